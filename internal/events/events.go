package events

import "context"

// Streams
const (
	StreamTrade = "events:trade"
)

// Event types
const (
	EventTradeStatusChanged = "trade_status_changed"
	EventTradeMessage       = "trade_message"
	EventDisputeOpened      = "dispute_opened"
	EventDisputeResolved    = "dispute_resolved"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
