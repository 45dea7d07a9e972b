package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/propvantage/receivables-service/pkg/events"
	"github.com/propvantage/receivables-service/pkg/postgres"
)

// OutboxRepo implements events.OutboxRepository. Entries are written in the
// same transaction as the aggregates they describe and relayed to Kafka out
// of band.
type OutboxRepo struct {
	db postgres.Querier
}

// NewOutboxRepo creates a PostgreSQL-backed outbox repository.
func NewOutboxRepo(db postgres.Querier) *OutboxRepo {
	return &OutboxRepo{db: db}
}

// Store stages entries.
func (r *OutboxRepo) Store(ctx context.Context, entries []events.OutboxEntry) error {
	query := `
		INSERT INTO outbox (id, aggregate_id, aggregate_type, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`
	for _, entry := range entries {
		_, err := r.db.Exec(ctx, query,
			entry.ID, entry.AggregateID, entry.AggregateType,
			entry.EventType, entry.Payload, entry.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("store outbox entry %s: %w", entry.ID, err)
		}
	}
	return nil
}

// FetchUnpublished returns the oldest unpublished entries.
func (r *OutboxRepo) FetchUnpublished(ctx context.Context, batchSize int) ([]events.OutboxEntry, error) {
	query := `
		SELECT id, aggregate_id, aggregate_type, event_type, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, batchSize)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var entries []events.OutboxEntry
	for rows.Next() {
		var (
			entry     events.OutboxEntry
			createdAt pgTime
		)
		if err := rows.Scan(
			&entry.ID, &entry.AggregateID, &entry.AggregateType,
			&entry.EventType, &entry.Payload, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entry.CreatedAt = createdAt.Time()
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// MarkPublished stamps entries as relayed.
func (r *OutboxRepo) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE outbox SET published_at = now() WHERE id = ANY($1)`
	if _, err := r.db.Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}
