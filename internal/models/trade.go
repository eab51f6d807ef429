package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Trade statuses
const (
	TradeStatusPendingPayment = "pending_payment"
	TradeStatusPaymentSent    = "payment_sent"
	TradeStatusCompleted      = "completed"
	TradeStatusDisputed       = "disputed"
	TradeStatusCancelled      = "cancelled"
)

// Valid state transitions: from -> []to
var ValidTradeTransitions = map[string][]string{
	TradeStatusPendingPayment: {TradeStatusPaymentSent, TradeStatusCancelled, TradeStatusDisputed},
	TradeStatusPaymentSent:    {TradeStatusCompleted, TradeStatusDisputed},
	TradeStatusDisputed:       {TradeStatusCompleted, TradeStatusCancelled},
	TradeStatusCompleted:      {},
	TradeStatusCancelled:      {},
}

func IsValidTransition(from, to string) bool {
	allowed, ok := ValidTradeTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether no further transitions exist from status.
func IsTerminalStatus(status string) bool {
	allowed, ok := ValidTradeTransitions[status]
	return ok && len(allowed) == 0
}

type Trade struct {
	ID             uuid.UUID       `json:"id"`
	OfferID        uuid.UUID       `json:"offer_id"`
	BuyerID        uuid.UUID       `json:"buyer_id"`
	SellerID       uuid.UUID       `json:"seller_id"`
	Status         string          `json:"status"`
	CryptoCurrency string          `json:"crypto_currency"`
	FiatCurrency   string          `json:"fiat_currency"`
	CryptoAmount   decimal.Decimal `json:"crypto_amount"`
	FiatAmount     decimal.Decimal `json:"fiat_amount"`
	PricePerUnit   decimal.Decimal `json:"price_per_unit"`
	PaymentMethod  string          `json:"payment_method"`
	ExpiresAt      time.Time       `json:"expires_at"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	CancelledAt    *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// IsExpired reports whether the payment window has passed. Only meaningful
// while the trade is still pending_payment.
func (t *Trade) IsExpired(now time.Time) bool {
	return t.Status == TradeStatusPendingPayment && now.After(t.ExpiresAt)
}

// RoleOf derives the caller's role from the trade row itself.
func (t *Trade) RoleOf(userID uuid.UUID) string {
	switch userID {
	case t.BuyerID:
		return RoleBuyer
	case t.SellerID:
		return RoleSeller
	default:
		return ""
	}
}

// TradeWithCounterparty embeds Trade and adds participant display info to
// avoid N+1 queries on the trade page.
type TradeWithCounterparty struct {
	Trade
	BuyerName  *string `json:"buyer_name,omitempty"`
	SellerName *string `json:"seller_name,omitempty"`
}

const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)
