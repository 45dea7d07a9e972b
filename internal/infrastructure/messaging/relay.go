package messaging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/propvantage/receivables-service/pkg/events"
	"github.com/propvantage/receivables-service/pkg/kafka"
)

// relayBatchSize bounds how many outbox entries one relay tick drains.
const relayBatchSize = 200

// OutboxRelay drains the outbox to Kafka. It is the delivery guarantee behind
// the best-effort publish the use cases do after commit: anything they failed
// to publish is picked up here.
type OutboxRelay struct {
	outbox   events.OutboxRepository
	producer *kafka.Producer
	topic    string
	interval time.Duration
	logger   *slog.Logger
}

// NewOutboxRelay creates a relay publishing to topic every interval.
func NewOutboxRelay(
	outbox events.OutboxRepository,
	producer *kafka.Producer,
	topic string,
	interval time.Duration,
	logger *slog.Logger,
) *OutboxRelay {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &OutboxRelay{
		outbox:   outbox,
		producer: producer,
		topic:    topic,
		interval: interval,
		logger:   logger,
	}
}

// Run ticks until the context is cancelled.
func (r *OutboxRelay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Tick(ctx); err != nil {
				r.logger.Error("outbox relay tick failed", "error", err)
			}
		}
	}
}

// Tick publishes one batch of unpublished entries and marks them published.
func (r *OutboxRelay) Tick(ctx context.Context) error {
	entries, err := r.outbox.FetchUnpublished(ctx, relayBatchSize)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	messages := make([]kafka.Message, 0, len(entries))
	ids := make([]uuid.UUID, 0, len(entries))
	for _, entry := range entries {
		messages = append(messages, kafka.Message{
			Key:   []byte(entry.AggregateID.String()),
			Value: entry.Payload,
			Headers: map[string]string{
				"event_id":       entry.ID.String(),
				"event_type":     entry.EventType,
				"aggregate_type": entry.AggregateType,
			},
		})
		ids = append(ids, entry.ID)
	}

	if err := r.producer.Publish(ctx, r.topic, messages...); err != nil {
		return err
	}
	if err := r.outbox.MarkPublished(ctx, ids); err != nil {
		return err
	}

	r.logger.Debug("outbox relayed", "entries", len(entries))
	return nil
}
