package dto

import (
	"encoding/json"
	"testing"
)

func TestTradeActionRequestID(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"current field", `{"trade_id": "abc"}`, "abc"},
		{"legacy order_id", `{"order_id": "def", "user_id": "ignored"}`, "def"},
		{"trade_id wins over order_id", `{"trade_id": "abc", "order_id": "def"}`, "abc"},
		{"empty body", `{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req TradeActionRequest
			if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got := req.ID(); got != tt.want {
				t.Errorf("ID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPostMessageRequestBody(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"current field", `{"text": "hello"}`, "hello"},
		{"legacy message field", `{"user_id": "ignored", "message": "hello from old client"}`, "hello from old client"},
		{"text wins over message", `{"text": "new", "message": "old"}`, "new"},
		{"empty body", `{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req PostMessageRequest
			if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got := req.Body(); got != tt.want {
				t.Errorf("Body() = %q, want %q", got, tt.want)
			}
		})
	}
}
