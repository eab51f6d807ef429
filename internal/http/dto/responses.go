package dto

import "github.com/p2p-exchange/backend/internal/models"

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type ErrorResponse struct {
	Detail    string `json:"detail"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// TradeDetailResponse adds the countdown the trade page renders next to the
// payment instructions.
type TradeDetailResponse struct {
	models.TradeWithCounterparty
	TimeRemainingSeconds int64 `json:"time_remaining_seconds"`
}
