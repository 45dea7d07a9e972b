package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/propvantage/receivables-service/internal/application/dto"
	"github.com/propvantage/receivables-service/internal/domain/model"
	"github.com/propvantage/receivables-service/internal/domain/port"
	"github.com/propvantage/receivables-service/internal/domain/service"
	"github.com/propvantage/receivables-service/pkg/events"
)

// ProcessRefundUseCase refunds a transaction, reverses its allocations, and
// refreshes the plan summary in one transaction.
type ProcessRefundUseCase struct {
	uow       port.UnitOfWork
	allocator *service.AllocationEngine
	publisher port.EventPublisher
	logger    *slog.Logger
}

// NewProcessRefundUseCase wires dependencies.
func NewProcessRefundUseCase(
	uow port.UnitOfWork,
	allocator *service.AllocationEngine,
	publisher port.EventPublisher,
	logger *slog.Logger,
) *ProcessRefundUseCase {
	return &ProcessRefundUseCase{
		uow:       uow,
		allocator: allocator,
		publisher: publisher,
		logger:    logger,
	}
}

// Execute refunds the transaction. The refund may not exceed the recorded
// amount; allocated portions flow back onto their installments as pending
// balances.
func (uc *ProcessRefundUseCase) Execute(
	ctx context.Context,
	req dto.ProcessRefundRequest,
) (dto.TransactionResponse, error) {
	now := time.Now().UTC()

	var (
		txn    model.PaymentTransaction
		staged []events.DomainEvent
	)

	err := uc.uow.Execute(ctx, func(ctx context.Context, repos port.Repositories) error {
		var err error
		txn, err = repos.Transactions.FindByID(ctx, req.TenantID, req.TransactionID)
		if err != nil {
			return fmt.Errorf("find transaction: %w", err)
		}
		if txn.Status().IsTerminal() {
			return model.ErrTransactionTerminal
		}
		if req.Amount.GreaterThan(txn.Amount()) {
			return model.ErrRefundExceedsAmount
		}

		installments, err := repos.Installments.FindByPlanID(ctx, req.TenantID, txn.PlanID())
		if err != nil {
			return fmt.Errorf("load installments: %w", err)
		}

		// A partial refund releases allocations proportionally; a full
		// refund clears them entirely.
		oldAllocations := txn.Allocations()
		remaining := txn.Amount().Sub(req.Amount)
		rescaled, installments, err := uc.allocator.Rescale(
			oldAllocations, txn.Amount(), remaining, installments, now,
		)
		if err != nil {
			return err
		}
		txn, err = txn.WithAllocations(rescaled, now)
		if err != nil {
			return err
		}
		txn, err = txn.Refund(req.Amount, req.Reason, req.UserID, now)
		if err != nil {
			return err
		}

		plan, err := repos.Plans.FindByID(ctx, req.TenantID, txn.PlanID())
		if err != nil {
			return fmt.Errorf("find plan: %w", err)
		}
		transactions, err := repos.Transactions.FindByPlanID(ctx, req.TenantID, txn.PlanID())
		if err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}
		for i := range transactions {
			if transactions[i].ID() == txn.ID() {
				transactions[i] = txn
			}
		}
		plan = plan.WithSummary(service.DeriveSummary(installments, transactions, now), now)

		if err := repos.Transactions.Save(ctx, txn.BumpVersion()); err != nil {
			return fmt.Errorf("save transaction: %w", err)
		}
		touched := make(map[uuid.UUID]bool, len(oldAllocations))
		for _, alloc := range oldAllocations {
			touched[alloc.InstallmentID] = true
		}
		for _, alloc := range rescaled {
			touched[alloc.InstallmentID] = true
		}
		for _, inst := range installments {
			if !touched[inst.ID()] {
				continue
			}
			if err := repos.Installments.Save(ctx, inst.BumpVersion()); err != nil {
				return fmt.Errorf("save installment %d: %w", inst.Number(), err)
			}
		}
		if err := repos.Plans.Save(ctx, plan.BumpVersion()); err != nil {
			return fmt.Errorf("save plan: %w", err)
		}

		staged = append(txn.DomainEvents(), plan.DomainEvents()...)
		return stageEvents(ctx, repos, staged)
	})
	if err != nil {
		return dto.TransactionResponse{}, err
	}

	if err := uc.publisher.Publish(ctx, LedgerTopic, staged...); err != nil {
		uc.logger.Warn("publish refund events", "transaction_id", txn.ID(), "error", err)
	}

	uc.logger.Info("refund processed",
		"transaction_id", req.TransactionID,
		"amount", req.Amount,
	)
	return toTransactionResponse(txn), nil
}
