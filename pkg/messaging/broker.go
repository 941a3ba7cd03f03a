package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Broker delivers domain events to downstream consumers
type Broker interface {
	Publish(ctx context.Context, channel string, msg *Message) error
	Close() error
}

// Message is the envelope published for every outbox event. Payload is the
// event document as stored.
type Message struct {
	ID            uuid.UUID       `json:"id"`
	Type          string          `json:"type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
