package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestIsValidTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		// Happy path
		{TradeStatusPendingPayment, TradeStatusPaymentSent, true},
		{TradeStatusPaymentSent, TradeStatusCompleted, true},

		// Cancellation and expiry
		{TradeStatusPendingPayment, TradeStatusCancelled, true},

		// Dispute paths
		{TradeStatusPendingPayment, TradeStatusDisputed, true},
		{TradeStatusPaymentSent, TradeStatusDisputed, true},
		{TradeStatusDisputed, TradeStatusCompleted, true},
		{TradeStatusDisputed, TradeStatusCancelled, true},

		// Buyer cannot renege after claiming payment
		{TradeStatusPaymentSent, TradeStatusCancelled, false},

		// No transitions out of terminal states
		{TradeStatusCompleted, TradeStatusCancelled, false},
		{TradeStatusCompleted, TradeStatusDisputed, false},
		{TradeStatusCompleted, TradeStatusPaymentSent, false},
		{TradeStatusCancelled, TradeStatusCompleted, false},
		{TradeStatusCancelled, TradeStatusDisputed, false},

		// No skipping or reversing
		{TradeStatusPendingPayment, TradeStatusCompleted, false},
		{TradeStatusPaymentSent, TradeStatusPendingPayment, false},
		{TradeStatusDisputed, TradeStatusPaymentSent, false},
		{TradeStatusDisputed, TradeStatusPendingPayment, false},

		// Unknown statuses
		{"nonexistent", TradeStatusCompleted, false},
		{TradeStatusPendingPayment, "nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestAllStatusesHaveTransitionEntry(t *testing.T) {
	allStatuses := []string{
		TradeStatusPendingPayment, TradeStatusPaymentSent,
		TradeStatusCompleted, TradeStatusDisputed, TradeStatusCancelled,
	}

	for _, status := range allStatuses {
		if _, ok := ValidTradeTransitions[status]; !ok {
			t.Errorf("status %q missing from ValidTradeTransitions map", status)
		}
	}
}

func TestTerminalStatusesHaveNoTransitions(t *testing.T) {
	terminal := []string{TradeStatusCompleted, TradeStatusCancelled}
	for _, status := range terminal {
		if !IsTerminalStatus(status) {
			t.Errorf("status %q should be terminal", status)
		}
		if transitions := ValidTradeTransitions[status]; len(transitions) != 0 {
			t.Errorf("terminal status %q should have no transitions, got %v", status, transitions)
		}
	}

	for _, status := range []string{TradeStatusPendingPayment, TradeStatusPaymentSent, TradeStatusDisputed} {
		if IsTerminalStatus(status) {
			t.Errorf("status %q should not be terminal", status)
		}
	}
}

func TestTradeIsExpired(t *testing.T) {
	now := time.Now()
	trade := Trade{Status: TradeStatusPendingPayment, ExpiresAt: now.Add(-time.Minute)}
	if !trade.IsExpired(now) {
		t.Error("pending trade past its deadline should be expired")
	}

	trade.ExpiresAt = now.Add(time.Minute)
	if trade.IsExpired(now) {
		t.Error("pending trade within its window should not be expired")
	}

	// Expiry only applies while awaiting payment.
	trade.Status = TradeStatusPaymentSent
	trade.ExpiresAt = now.Add(-time.Hour)
	if trade.IsExpired(now) {
		t.Error("payment_sent trade should never report expired")
	}
}

func TestTradeRoleOf(t *testing.T) {
	buyer := uuid.New()
	seller := uuid.New()
	trade := Trade{BuyerID: buyer, SellerID: seller}

	if got := trade.RoleOf(buyer); got != RoleBuyer {
		t.Errorf("RoleOf(buyer) = %q, want %q", got, RoleBuyer)
	}
	if got := trade.RoleOf(seller); got != RoleSeller {
		t.Errorf("RoleOf(seller) = %q, want %q", got, RoleSeller)
	}
	if got := trade.RoleOf(uuid.New()); got != "" {
		t.Errorf("RoleOf(stranger) = %q, want empty", got)
	}
}
