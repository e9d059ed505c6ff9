// Package events delivers registry events to sinks: an in-memory recorder,
// a transactional outbox relayed to Kafka, or Kafka directly.
package events

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"kitties/internal/kitty/models"
)

// Envelope is the wire form of a registry event, shared by the outbox
// payload column and Kafka record values.
type Envelope struct {
	ID         uuid.UUID        `json:"id"`
	Type       models.EventType `json:"type"`
	Topics     []string         `json:"topics"`
	OccurredAt time.Time        `json:"occurred_at"`
	Payload    json.RawMessage  `json:"payload"`
}

// NewEnvelope wraps an event with a fresh ID.
func NewEnvelope(event models.Event) (Envelope, error) {
	if event == nil {
		return Envelope{}, fmt.Errorf("event is required")
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", event.Type(), err)
	}
	topics := make([]string, 0, len(event.Topics()))
	for _, t := range event.Topics() {
		topics = append(topics, "0x"+hex.EncodeToString(t))
	}
	return Envelope{
		ID:         uuid.New(),
		Type:       event.Type(),
		Topics:     topics,
		OccurredAt: occurredAt(event),
		Payload:    payload,
	}, nil
}

// AggregateID is the first topic: the kitty DNA for Created, the sender for
// Approval. Kafka partitions by it.
func (e Envelope) AggregateID() string {
	if len(e.Topics) == 0 {
		return e.ID.String()
	}
	return e.Topics[0]
}

// Decode unmarshals the payload back into its typed event.
func (e Envelope) Decode() (models.Event, error) {
	switch e.Type {
	case models.EventCreated:
		var ev models.Created
		if err := json.Unmarshal(e.Payload, &ev); err != nil {
			return nil, fmt.Errorf("decode created event: %w", err)
		}
		return ev, nil
	case models.EventApproval:
		var ev models.Approval
		if err := json.Unmarshal(e.Payload, &ev); err != nil {
			return nil, fmt.Errorf("decode approval event: %w", err)
		}
		return ev, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
}

func occurredAt(event models.Event) time.Time {
	switch ev := event.(type) {
	case models.Created:
		return ev.OccurredAt
	case models.Approval:
		return ev.OccurredAt
	}
	return time.Time{}
}
