// Package messaging adapts the Kafka producer to the domain's event ports.
package messaging

import (
	"context"

	"github.com/propvantage/receivables-service/pkg/events"
	"github.com/propvantage/receivables-service/pkg/kafka"
)

// KafkaPublisher implements port.EventPublisher over the shared Kafka
// producer. Events are keyed by aggregate ID so one aggregate's events stay
// ordered within a partition.
type KafkaPublisher struct {
	producer *kafka.Producer
}

// NewKafkaPublisher creates a Kafka-backed event publisher.
func NewKafkaPublisher(producer *kafka.Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

// Publish sends events to the topic.
func (p *KafkaPublisher) Publish(ctx context.Context, topic string, evts ...events.DomainEvent) error {
	if len(evts) == 0 {
		return nil
	}
	messages := make([]kafka.Message, 0, len(evts))
	for _, evt := range evts {
		messages = append(messages, kafka.Message{
			Key:   []byte(evt.AggregateID().String()),
			Value: evt.Payload(),
			Headers: map[string]string{
				"event_id":       evt.EventID().String(),
				"event_type":     evt.EventType(),
				"aggregate_type": evt.AggregateType(),
			},
		})
	}
	return p.producer.Publish(ctx, topic, messages...)
}
