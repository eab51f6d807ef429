package rates

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{"50000", "50000", false},
		{"50,123", "50123", false},
		{"£50,123.45", "50123.45", false},
		{"50 123,45 EUR", "50123.45", false},
		{"$1,234,567.89", "1234567.89", false},
		{"0.00012345 BTC", "0.00012345", false},
		{"42.5", "42.5", false},
		{"", "", true},
		{"no number", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := parsePrice(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parsePrice(%q) expected error, got %s", tt.input, result)
				}
				return
			}
			if err != nil {
				t.Fatalf("parsePrice(%q) error: %v", tt.input, err)
			}
			if result.String() != tt.expected {
				t.Errorf("parsePrice(%q) = %s, want %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFetcherMarketRate(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprintf(w, `<html><body><span class="price-value">£50,000.00</span></body></html>`)
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL+"/{crypto}-{fiat}", ".price-value", 2000, 0, time.Minute, nil, zap.NewNop())

	rate, err := f.MarketRate(context.Background(), "BTC", "GBP")
	if err != nil {
		t.Fatalf("MarketRate: %v", err)
	}
	if rate.String() != "50000" {
		t.Errorf("rate = %s, want 50000", rate)
	}
	if hits != 1 {
		t.Errorf("source hit %d times, want 1", hits)
	}
}

func TestFetcherRetriesThenFails(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, ".price-value", 2000, 2, time.Minute, nil, zap.NewNop())

	if _, err := f.MarketRate(context.Background(), "BTC", "GBP"); err == nil {
		t.Fatal("expected error from failing source")
	}
	if hits != 3 {
		t.Errorf("source hit %d times, want 3 (initial + 2 retries)", hits)
	}
}

func TestFetcherNoSelectorMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><div class="other">100</div></body></html>`)
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, ".price-value", 2000, 0, time.Minute, nil, zap.NewNop())
	if _, err := f.MarketRate(context.Background(), "BTC", "GBP"); err == nil {
		t.Fatal("expected error when selector matches nothing")
	}
}

func TestFetcherUnconfigured(t *testing.T) {
	f := NewFetcher("", ".price-value", 2000, 0, time.Minute, nil, zap.NewNop())
	if _, err := f.MarketRate(context.Background(), "BTC", "GBP"); err == nil {
		t.Fatal("expected error when no source URL configured")
	}
}
