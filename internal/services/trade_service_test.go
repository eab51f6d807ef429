package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/p2p-exchange/backend/internal/apperr"
	"github.com/p2p-exchange/backend/internal/models"
	"github.com/p2p-exchange/backend/internal/rbac"
)

func TestAuthorize(t *testing.T) {
	buyer := uuid.New()
	seller := uuid.New()
	trade := &models.Trade{ID: uuid.New(), BuyerID: buyer, SellerID: seller}

	if _, err := authorize(trade, buyer, rbac.PermMarkPaid); err != nil {
		t.Errorf("buyer mark_paid: %v, want nil", err)
	}
	if _, err := authorize(trade, seller, rbac.PermReleaseCrypto); err != nil {
		t.Errorf("seller release_crypto: %v, want nil", err)
	}
	if _, err := authorize(trade, seller, rbac.PermMarkPaid); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("seller mark_paid: %v, want ErrUnauthorized", err)
	}
	if _, err := authorize(trade, uuid.New(), rbac.PermPostMessage); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("stranger post_message: %v, want ErrUnauthorized", err)
	}
}

// A disputed trade slips past both the permission check and the transition
// map: the seller holds release_crypto, the buyer holds cancel_trade, and
// disputed -> completed/cancelled are valid edges because arbitration uses
// them. Only the origin-status gate keeps participants out of those edges.
func TestDisputedTradeRejectsParticipantActions(t *testing.T) {
	buyer := uuid.New()
	seller := uuid.New()
	trade := &models.Trade{
		ID:       uuid.New(),
		BuyerID:  buyer,
		SellerID: seller,
		Status:   models.TradeStatusDisputed,
	}

	if _, err := authorize(trade, seller, rbac.PermReleaseCrypto); err != nil {
		t.Fatalf("authorize(seller, release_crypto) = %v, want nil", err)
	}
	if !models.IsValidTransition(models.TradeStatusDisputed, models.TradeStatusCompleted) {
		t.Fatal("transition map should allow disputed -> completed for resolution")
	}
	if err := requireStatus(trade, models.TradeStatusPaymentSent, "release"); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Errorf("seller release on disputed trade: %v, want ErrInvalidTransition", err)
	}

	if _, err := authorize(trade, buyer, rbac.PermCancelTrade); err != nil {
		t.Fatalf("authorize(buyer, cancel_trade) = %v, want nil", err)
	}
	if !models.IsValidTransition(models.TradeStatusDisputed, models.TradeStatusCancelled) {
		t.Fatal("transition map should allow disputed -> cancelled for resolution")
	}
	if err := requireStatus(trade, models.TradeStatusPendingPayment, "cancel"); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Errorf("buyer cancel on disputed trade: %v, want ErrInvalidTransition", err)
	}
}

func TestRequireStatus(t *testing.T) {
	tests := []struct {
		status string
		want   string
		ok     bool
	}{
		{models.TradeStatusPaymentSent, models.TradeStatusPaymentSent, true},
		{models.TradeStatusPendingPayment, models.TradeStatusPendingPayment, true},
		{models.TradeStatusPendingPayment, models.TradeStatusPaymentSent, false},
		{models.TradeStatusDisputed, models.TradeStatusPaymentSent, false},
		{models.TradeStatusDisputed, models.TradeStatusPendingPayment, false},
		{models.TradeStatusCompleted, models.TradeStatusPaymentSent, false},
	}

	for _, tt := range tests {
		trade := &models.Trade{Status: tt.status}
		err := requireStatus(trade, tt.want, "action")
		if tt.ok && err != nil {
			t.Errorf("requireStatus(%s, want %s) = %v, want nil", tt.status, tt.want, err)
		}
		if !tt.ok && !errors.Is(err, apperr.ErrInvalidTransition) {
			t.Errorf("requireStatus(%s, want %s) = %v, want ErrInvalidTransition", tt.status, tt.want, err)
		}
	}
}
