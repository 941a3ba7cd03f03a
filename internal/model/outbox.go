package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "PENDING"
	OutboxStatusProcessed OutboxStatus = "PROCESSED"
	OutboxStatusFailed    OutboxStatus = "FAILED"
)

const (
	EventAppointmentBooked    = "appointment.booked"
	EventAppointmentConfirmed = "appointment.confirmed"
	EventAppointmentStarted   = "appointment.started"
	EventAppointmentCompleted = "appointment.completed"
	EventAppointmentCancelled = "appointment.cancelled"
	EventConsentApproved      = "consent.approved"
	EventVIPSubscribed        = "vip.subscribed"
	EventVIPCancelled         = "vip.cancelled"
)

// Payload is a raw JSON document stored in a JSONB column
type Payload []byte

func (p Payload) Value() (driver.Value, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return []byte(p), nil
}

// Scan copies the column bytes, the driver may reuse its buffer
func (p *Payload) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*p = nil
	case []byte:
		*p = append(Payload(nil), v...)
	case string:
		*p = Payload(v)
	default:
		return fmt.Errorf("unsupported payload column type %T", src)
	}
	return nil
}

func (p Payload) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return p, nil
}

type OutboxEvent struct {
	ID            uuid.UUID    `db:"id" json:"id"`
	AggregateType string       `db:"aggregate_type" json:"aggregate_type"`
	AggregateID   uuid.UUID    `db:"aggregate_id" json:"aggregate_id"`
	EventType     string       `db:"event_type" json:"event_type"`
	Payload       Payload      `db:"payload" json:"payload"`
	Status        OutboxStatus `db:"status" json:"status"`
	Error         *string      `db:"error" json:"error,omitempty"`
	RetryCount    int          `db:"retry_count" json:"retry_count"`
	NextRetryAt   *time.Time   `db:"next_retry_at" json:"next_retry_at,omitempty"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	ProcessedAt   *time.Time   `db:"processed_at" json:"processed_at,omitempty"`
}

// NewOutboxEvent marshals payload into a pending event for an aggregate
func NewOutboxEvent(aggregateType string, aggregateID uuid.UUID, eventType string, payload interface{}) (*OutboxEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       data,
		Status:        OutboxStatusPending,
	}, nil
}
