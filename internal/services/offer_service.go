package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/p2p-exchange/backend/internal/apperr"
	"github.com/p2p-exchange/backend/internal/models"
	"github.com/p2p-exchange/backend/internal/rates"
	"github.com/p2p-exchange/backend/internal/repositories"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OfferService struct {
	offerRepo *repositories.OfferRepo
	auditRepo *repositories.AuditRepo
	rates     *rates.Fetcher
	log       *zap.Logger
}

func NewOfferService(offerRepo *repositories.OfferRepo, auditRepo *repositories.AuditRepo, rates *rates.Fetcher, log *zap.Logger) *OfferService {
	return &OfferService{offerRepo: offerRepo, auditRepo: auditRepo, rates: rates, log: log}
}

type CreateOfferInput struct {
	CryptoCurrency string
	FiatCurrency   string
	PriceType      string
	PriceValue     decimal.Decimal
	MinAmount      decimal.Decimal
	MaxAmount      decimal.Decimal
	CryptoAmount   decimal.Decimal
	PaymentMethods []string
	Terms          *string
}

func (s *OfferService) CreateOffer(ctx context.Context, sellerID uuid.UUID, input CreateOfferInput) (*models.Offer, error) {
	if input.CryptoCurrency == "" || input.FiatCurrency == "" {
		return nil, fmt.Errorf("crypto_currency and fiat_currency are required")
	}
	if !models.IsValidPriceType(input.PriceType) {
		return nil, fmt.Errorf("invalid price type %q, must be fixed or floating", input.PriceType)
	}
	if input.PriceValue.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("price value must be positive")
	}
	if input.CryptoAmount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("posted amount must be positive")
	}
	if input.MinAmount.LessThanOrEqual(decimal.Zero) || input.MinAmount.GreaterThan(input.MaxAmount) {
		return nil, fmt.Errorf("invalid amount limits: min %s, max %s", input.MinAmount, input.MaxAmount)
	}
	if input.MaxAmount.GreaterThan(input.CryptoAmount) {
		return nil, fmt.Errorf("max amount %s exceeds posted amount %s", input.MaxAmount, input.CryptoAmount)
	}
	if len(input.PaymentMethods) == 0 {
		return nil, fmt.Errorf("at least one payment method is required")
	}

	// Floating offers need a resolvable market rate; fail fast at creation
	// rather than at every trade attempt.
	if input.PriceType == models.PriceTypeFloating {
		if _, err := s.rates.MarketRate(ctx, input.CryptoCurrency, input.FiatCurrency); err != nil {
			return nil, fmt.Errorf("no market rate available for %s/%s: %w", input.CryptoCurrency, input.FiatCurrency, err)
		}
	}

	offer := &models.Offer{
		SellerID:       sellerID,
		CryptoCurrency: input.CryptoCurrency,
		FiatCurrency:   input.FiatCurrency,
		PriceType:      input.PriceType,
		PriceValue:     input.PriceValue,
		MinAmount:      input.MinAmount,
		MaxAmount:      input.MaxAmount,
		CryptoAmount:   input.CryptoAmount,
		PaymentMethods: input.PaymentMethods,
		Terms:          input.Terms,
		Active:         true,
	}
	if err := s.offerRepo.Create(ctx, offer); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &sellerID,
		ActorType:   "user",
		Action:      "offer_created",
		EntityType:  "offer",
		EntityID:    &offer.ID,
		Meta: map[string]any{
			"pair":       offer.CryptoCurrency + "/" + offer.FiatCurrency,
			"price_type": offer.PriceType,
			"amount":     offer.CryptoAmount.String(),
		},
	})
	return offer, nil
}

func (s *OfferService) GetOffer(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	offer, err := s.offerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: offer %s", apperr.ErrNotFound, id)
		}
		return nil, err
	}
	return offer, nil
}

func (s *OfferService) ListOffers(ctx context.Context, f repositories.OfferFilter) ([]models.Offer, error) {
	return s.offerRepo.List(ctx, f)
}

// DeleteOffer deactivates the seller's offer. Rejected while any trade holds
// a reservation against it.
func (s *OfferService) DeleteOffer(ctx context.Context, id, sellerID uuid.UUID) error {
	offer, err := s.GetOffer(ctx, id)
	if err != nil {
		return err
	}
	if offer.SellerID != sellerID {
		return fmt.Errorf("%w: not your offer", apperr.ErrUnauthorized)
	}

	ok, err := s.offerRepo.Deactivate(ctx, id, sellerID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: offer has open trades against it", apperr.ErrInvalidTransition)
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &sellerID,
		ActorType:   "user",
		Action:      "offer_deactivated",
		EntityType:  "offer",
		EntityID:    &id,
	})
	return nil
}

// ResolvePrice returns the effective fiat price per unit for a trade against
// the offer. Floating offers apply PriceValue as a percentage of the current
// market rate (100 = market).
func (s *OfferService) ResolvePrice(ctx context.Context, offer *models.Offer) (decimal.Decimal, error) {
	if offer.PriceType == models.PriceTypeFixed {
		return offer.PriceValue, nil
	}

	rate, err := s.rates.MarketRate(ctx, offer.CryptoCurrency, offer.FiatCurrency)
	if err != nil {
		return decimal.Zero, fmt.Errorf("resolve floating price: %w", err)
	}
	return rate.Mul(offer.PriceValue).Div(decimal.NewFromInt(100)), nil
}
