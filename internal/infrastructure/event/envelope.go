package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tiller/backend/internal/domain/shared"
)

// Envelope is the wire form of a domain event sent to the broker
type Envelope struct {
	ID            uuid.UUID       `json:"id"`
	Type          string          `json:"type"`
	AggregateID   uuid.UUID       `json:"aggregateId"`
	AggregateType string          `json:"aggregateType"`
	OccurredAt    time.Time       `json:"occurredAt"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope wraps a domain event with its full JSON body as payload
func NewEnvelope(evt shared.DomainEvent) (Envelope, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s event: %w", evt.EventType(), err)
	}
	return Envelope{
		ID:            evt.EventID(),
		Type:          evt.EventType(),
		AggregateID:   evt.AggregateID(),
		AggregateType: evt.AggregateType(),
		OccurredAt:    evt.OccurredAt().UTC(),
		Payload:       payload,
	}, nil
}

// RoutingKey is "<aggregate type>.<event type>", e.g. "Project.PaymentRecorded"
func (e Envelope) RoutingKey() string {
	return e.AggregateType + "." + e.Type
}
