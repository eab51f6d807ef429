package models

import (
	"time"

	"github.com/google/uuid"
)

// TradeMessage is one entry in the per-trade chat log. Append-only: rows are
// never updated or deleted.
type TradeMessage struct {
	ID         uuid.UUID `json:"id"`
	TradeID    uuid.UUID `json:"trade_id"`
	SenderID   uuid.UUID `json:"sender_id"`
	SenderRole string    `json:"sender_role"` // buyer/seller/admin
	Message    string    `json:"message"`
	Attachment *string   `json:"attachment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
