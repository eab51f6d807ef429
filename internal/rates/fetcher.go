// Package rates resolves market prices for floating-price offers by
// scraping a configurable HTML source. Fetched rates are cached in Redis so
// trade creation stays cheap under the frontend's polling load.
package rates

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Fetcher struct {
	httpClient *http.Client
	rdb        *redis.Client
	log        *zap.Logger
	sourceURL  string // template with {crypto} and {fiat} placeholders
	selector   string
	cacheTTL   time.Duration
	maxRetries int
}

func NewFetcher(sourceURL, selector string, timeoutMS, maxRetries int, cacheTTL time.Duration, rdb *redis.Client, log *zap.Logger) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutMS) * time.Millisecond,
		},
		rdb:        rdb,
		log:        log,
		sourceURL:  sourceURL,
		selector:   selector,
		cacheTTL:   cacheTTL,
		maxRetries: maxRetries,
	}
}

// MarketRate returns the fiat price of one unit of crypto, serving from the
// Redis cache when fresh.
func (f *Fetcher) MarketRate(ctx context.Context, crypto, fiat string) (decimal.Decimal, error) {
	if f.sourceURL == "" {
		return decimal.Zero, fmt.Errorf("no rates source configured")
	}

	cacheKey := fmt.Sprintf("rate:%s:%s", crypto, fiat)
	if f.rdb != nil {
		if cached, err := f.rdb.Get(ctx, cacheKey).Result(); err == nil {
			if rate, err := decimal.NewFromString(cached); err == nil {
				return rate, nil
			}
		}
	}

	rate, err := f.fetch(ctx, crypto, fiat)
	if err != nil {
		return decimal.Zero, err
	}

	if f.rdb != nil {
		if err := f.rdb.Set(ctx, cacheKey, rate.String(), f.cacheTTL).Err(); err != nil {
			f.log.Warn("failed to cache rate", zap.Error(err))
		}
	}
	return rate, nil
}

func (f *Fetcher) fetch(ctx context.Context, crypto, fiat string) (decimal.Decimal, error) {
	url := strings.NewReplacer("{crypto}", crypto, "{fiat}", fiat).Replace(f.sourceURL)

	var doc *goquery.Document
	var lastErr error

	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return decimal.Zero, err
		}
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")

		resp, err := f.httpClient.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(attempt+1) * 500 * time.Millisecond)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
			time.Sleep(time.Duration(attempt+1) * 500 * time.Millisecond)
			continue
		}

		doc, err = goquery.NewDocumentFromReader(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		lastErr = nil
		break
	}

	if lastErr != nil {
		return decimal.Zero, lastErr
	}

	text := strings.TrimSpace(doc.Find(f.selector).First().Text())
	if text == "" {
		return decimal.Zero, fmt.Errorf("no price element matched %q at %s", f.selector, url)
	}

	rate, err := parsePrice(text)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price %q: %w", text, err)
	}
	if rate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("non-positive rate %s for %s/%s", rate, crypto, fiat)
	}

	f.log.Debug("market rate fetched",
		zap.String("crypto", crypto),
		zap.String("fiat", fiat),
		zap.String("rate", rate.String()),
	)
	return rate, nil
}

// parsePrice extracts a decimal from display text like "£50,123.45" or
// "50 123,45 EUR". A trailing comma group of three digits is treated as a
// thousands separator, anything else as the decimal separator.
func parsePrice(s string) (decimal.Decimal, error) {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',':
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("no digits")
	}

	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")
	if lastComma > lastDot {
		if len(cleaned)-lastComma-1 == 3 {
			// comma groups thousands: "50,123"
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		} else {
			// comma is the decimal separator: "50 123,45"
			whole := strings.ReplaceAll(strings.ReplaceAll(cleaned[:lastComma], ",", ""), ".", "")
			cleaned = whole + "." + cleaned[lastComma+1:]
		}
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	return decimal.NewFromString(cleaned)
}
