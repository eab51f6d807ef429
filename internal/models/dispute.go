package models

import (
	"time"

	"github.com/google/uuid"
)

// Dispute statuses
const (
	DisputeStatusOpen     = "open"
	DisputeStatusResolved = "resolved"
)

// Resolution outcomes
const (
	DisputeOutcomeReleaseToBuyer = "release_to_buyer"
	DisputeOutcomeRefundToSeller = "refund_to_seller"
)

func IsValidDisputeOutcome(o string) bool {
	return o == DisputeOutcomeReleaseToBuyer || o == DisputeOutcomeRefundToSeller
}

// Evidence types
const (
	EvidenceTypeScreenshot    = "screenshot"
	EvidenceTypeBankStatement = "bank_statement"
	EvidenceTypeMessage       = "message"
)

func IsValidEvidenceType(t string) bool {
	switch t {
	case EvidenceTypeScreenshot, EvidenceTypeBankStatement, EvidenceTypeMessage:
		return true
	}
	return false
}

// MinDisputeReasonLen is enforced server-side; the frontend check is not a
// security boundary.
const MinDisputeReasonLen = 10

type Dispute struct {
	ID         uuid.UUID  `json:"id"`
	TradeID    uuid.UUID  `json:"trade_id"`
	OpenedBy   uuid.UUID  `json:"opened_by"`
	OpenerRole string     `json:"opener_role"` // buyer/seller
	Reason     string     `json:"reason"`
	Status     string     `json:"status"`
	Outcome    *string    `json:"outcome,omitempty"`
	ResolvedBy *uuid.UUID `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// DisputeWithEvidence embeds Dispute plus its evidence items.
type DisputeWithEvidence struct {
	Dispute
	Evidence []DisputeEvidence `json:"evidence"`
}

type DisputeEvidence struct {
	ID           uuid.UUID `json:"id"`
	DisputeID    uuid.UUID `json:"dispute_id"`
	UploadedBy   uuid.UUID `json:"uploaded_by"`
	EvidenceType string    `json:"evidence_type"`
	Description  string    `json:"description"`
	FileURL      *string   `json:"file_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
