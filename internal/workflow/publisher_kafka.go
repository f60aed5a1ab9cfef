package workflow

import (
	"context"
	"encoding/json"
	"fmt"

	"suratdesa/internal/platform/kafka"
)

// KafkaPublisher writes transition events to the transitions topic, keyed by
// request id so per-request ordering survives partitioning.
type KafkaPublisher struct {
	producer *kafka.Producer
}

func NewKafkaPublisher(producer *kafka.Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event TransitionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal transition event: %w", err)
	}
	return p.producer.Produce(ctx, []byte(event.RequestID.String()), payload)
}
