package events

import (
	"context"
	"encoding/json"
	"fmt"

	"kitties/internal/kitty/models"
)

// KafkaPublisher produces events straight to Kafka without an outbox.
// Used with the memory and redis backends, where there is no transaction
// to share.
type KafkaPublisher struct {
	producer Producer
	topic    string
}

func NewKafkaPublisher(producer Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Emit(ctx context.Context, event models.Event) error {
	env, err := NewEnvelope(event)
	if err != nil {
		return err
	}
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	headers := map[string]string{
		"event_type": string(env.Type),
		"event_id":   env.ID.String(),
	}
	if err := p.producer.Produce(ctx, p.topic, []byte(env.AggregateID()), value, headers); err != nil {
		return fmt.Errorf("produce %s: %w", env.Type, err)
	}
	return nil
}
