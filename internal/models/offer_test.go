package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestOfferAvailable(t *testing.T) {
	tests := []struct {
		name   string
		total  string
		locked string
		want   string
	}{
		{"nothing locked", "10", "0", "10"},
		{"partially locked", "10", "3.5", "6.5"},
		{"fully locked", "2.00000001", "2.00000001", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Offer{
				CryptoAmount: decimal.RequireFromString(tt.total),
				LockedAmount: decimal.RequireFromString(tt.locked),
			}
			if got := o.Available(); !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Available() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestOfferAcceptsPaymentMethod(t *testing.T) {
	o := Offer{PaymentMethods: []string{"bank_transfer", "paypal"}}

	if !o.AcceptsPaymentMethod("paypal") {
		t.Error("expected paypal to be accepted")
	}
	if o.AcceptsPaymentMethod("cash") {
		t.Error("expected cash to be rejected")
	}
	if o.AcceptsPaymentMethod("") {
		t.Error("expected empty method to be rejected")
	}
}

func TestIsValidPriceType(t *testing.T) {
	for _, valid := range []string{PriceTypeFixed, PriceTypeFloating} {
		if !IsValidPriceType(valid) {
			t.Errorf("IsValidPriceType(%q) = false", valid)
		}
	}
	for _, invalid := range []string{"", "market", "FIXED"} {
		if IsValidPriceType(invalid) {
			t.Errorf("IsValidPriceType(%q) = true", invalid)
		}
	}
}
