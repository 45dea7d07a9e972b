// Package port defines the outbound interfaces the receivables domain depends
// on. Implementations live under internal/infrastructure.
package port

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/propvantage/receivables-service/internal/domain/model"
	"github.com/propvantage/receivables-service/pkg/events"
)

var (
	ErrTemplateNotFound    = errors.New("plan template not found")
	ErrPlanNotFound        = errors.New("payment plan not found")
	ErrInstallmentNotFound = errors.New("installment not found")
	ErrTransactionNotFound = errors.New("payment transaction not found")

	// ErrVersionConflict indicates a concurrent writer updated the aggregate
	// between read and save. Callers retry the whole unit of work.
	ErrVersionConflict = errors.New("aggregate version conflict")
)

// PlanTemplateRepository provides access to the tenant's plan templates.
type PlanTemplateRepository interface {
	Save(ctx context.Context, tmpl model.PlanTemplate) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (model.PlanTemplate, error)
	FindByName(ctx context.Context, tenantID uuid.UUID, name string) (model.PlanTemplate, error)
	ListActive(ctx context.Context, tenantID uuid.UUID) ([]model.PlanTemplate, error)
}

// PaymentPlanRepository persists payment plan aggregates.
type PaymentPlanRepository interface {
	Save(ctx context.Context, plan model.PaymentPlan) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (model.PaymentPlan, error)
	FindBySaleID(ctx context.Context, tenantID, saleID uuid.UUID) (model.PaymentPlan, error)
	ListFlaggedForResweep(ctx context.Context, limit int) ([]model.PaymentPlan, error)
	OverdueReport(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]OverdueCustomerSummary, error)
}

// InstallmentRepository persists installment aggregates.
type InstallmentRepository interface {
	SaveAll(ctx context.Context, installments []model.Installment) error
	Save(ctx context.Context, installment model.Installment) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (model.Installment, error)
	FindByPlanID(ctx context.Context, tenantID, planID uuid.UUID) ([]model.Installment, error)
}

// PaymentTransactionRepository persists payment transaction aggregates.
type PaymentTransactionRepository interface {
	Save(ctx context.Context, txn model.PaymentTransaction) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (model.PaymentTransaction, error)
	FindByPlanID(ctx context.Context, tenantID, planID uuid.UUID) ([]model.PaymentTransaction, error)
}

// OverdueCustomerSummary is one row of the per-customer overdue report.
type OverdueCustomerSummary struct {
	CustomerID          uuid.UUID
	PlanID              uuid.UUID
	SaleID              uuid.UUID
	OverdueAmount       decimal.Decimal
	OverdueInstallments int
	OldestDueDate       time.Time
	TotalLateFees       decimal.Decimal
}

// Repositories bundles the repositories bound to a single database
// transaction inside a unit of work.
type Repositories struct {
	Templates    PlanTemplateRepository
	Plans        PaymentPlanRepository
	Installments InstallmentRepository
	Transactions PaymentTransactionRepository
	Outbox       events.OutboxRepository
}

// UnitOfWork executes fn atomically. Every repository write inside fn commits
// or rolls back together, including outbox entries. Implementations retry a
// bounded number of times on version conflicts and serialization failures.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// EventPublisher relays domain events to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, evts ...events.DomainEvent) error
}
