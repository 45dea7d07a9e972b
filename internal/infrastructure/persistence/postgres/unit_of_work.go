package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/propvantage/receivables-service/internal/domain/port"
	"github.com/propvantage/receivables-service/pkg/postgres"
)

// maxAttempts bounds retries of a unit of work on write conflicts.
const maxAttempts = 3

// UnitOfWork implements port.UnitOfWork over a pgx transaction. Version
// conflicts and serialization failures roll the whole unit back and rerun it
// against fresh state, a bounded number of times.
type UnitOfWork struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewUnitOfWork creates a transactional unit of work over the pool.
func NewUnitOfWork(pool *pgxpool.Pool, logger *slog.Logger) *UnitOfWork {
	return &UnitOfWork{pool: pool, logger: logger}
}

// Execute runs fn inside a transaction with all repositories bound to it.
func (u *UnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context, repos port.Repositories) error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = postgres.WithTransaction(ctx, u.pool, func(tx pgx.Tx) error {
			return fn(ctx, bindRepositories(tx))
		})
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		u.logger.Warn("unit of work conflicted, retrying",
			"attempt", attempt,
			"error", err,
		)
	}
	return err
}

func isRetryable(err error) bool {
	return errors.Is(err, port.ErrVersionConflict) || postgres.IsSerializationFailure(err)
}

func bindRepositories(tx pgx.Tx) port.Repositories {
	return port.Repositories{
		Templates:    NewTemplateRepo(tx),
		Plans:        NewPlanRepo(tx),
		Installments: NewInstallmentRepo(tx),
		Transactions: NewTransactionRepo(tx),
		Outbox:       NewOutboxRepo(tx),
	}
}
