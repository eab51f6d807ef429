package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PriceTypeFixed    = "fixed"
	PriceTypeFloating = "floating"
)

func IsValidPriceType(t string) bool {
	return t == PriceTypeFixed || t == PriceTypeFloating
}

// Offer is a seller's standing advertisement. Multiple trades can be created
// against it until available() is exhausted.
//
// For fixed offers PriceValue is the fiat price per unit. For floating offers
// PriceValue is a percentage of the current market rate (100 = market), and
// the effective price is resolved at trade creation time.
type Offer struct {
	ID             uuid.UUID       `json:"id"`
	SellerID       uuid.UUID       `json:"seller_id"`
	CryptoCurrency string          `json:"crypto_currency"`
	FiatCurrency   string          `json:"fiat_currency"`
	PriceType      string          `json:"price_type"`
	PriceValue     decimal.Decimal `json:"price_value"`
	MinAmount      decimal.Decimal `json:"min_amount"`
	MaxAmount      decimal.Decimal `json:"max_amount"`
	CryptoAmount   decimal.Decimal `json:"crypto_amount"`
	LockedAmount   decimal.Decimal `json:"locked_amount"`
	PaymentMethods []string        `json:"payment_methods"`
	Terms          *string         `json:"terms,omitempty"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Available is the amount not currently reserved by open trades.
// Invariant: LockedAmount <= CryptoAmount, so this never goes negative.
func (o *Offer) Available() decimal.Decimal {
	return o.CryptoAmount.Sub(o.LockedAmount)
}

func (o *Offer) AcceptsPaymentMethod(method string) bool {
	for _, m := range o.PaymentMethods {
		if m == method {
			return true
		}
	}
	return false
}
