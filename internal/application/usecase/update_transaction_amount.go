package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/propvantage/receivables-service/internal/application/dto"
	"github.com/propvantage/receivables-service/internal/domain/model"
	"github.com/propvantage/receivables-service/internal/domain/port"
	"github.com/propvantage/receivables-service/internal/domain/service"
	"github.com/propvantage/receivables-service/pkg/events"
)

// UpdateTransactionAmountUseCase corrects a recorded transaction amount and
// rescales its allocations proportionally across the affected installments.
type UpdateTransactionAmountUseCase struct {
	uow       port.UnitOfWork
	allocator *service.AllocationEngine
	publisher port.EventPublisher
	logger    *slog.Logger
}

// NewUpdateTransactionAmountUseCase wires dependencies.
func NewUpdateTransactionAmountUseCase(
	uow port.UnitOfWork,
	allocator *service.AllocationEngine,
	publisher port.EventPublisher,
	logger *slog.Logger,
) *UpdateTransactionAmountUseCase {
	return &UpdateTransactionAmountUseCase{
		uow:       uow,
		allocator: allocator,
		publisher: publisher,
		logger:    logger,
	}
}

// Execute adjusts the amount, rescales allocations, and refreshes the plan
// summary in one transaction.
func (uc *UpdateTransactionAmountUseCase) Execute(
	ctx context.Context,
	req dto.UpdateTransactionAmountRequest,
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

		installments, err := repos.Installments.FindByPlanID(ctx, req.TenantID, txn.PlanID())
		if err != nil {
			return fmt.Errorf("load installments: %w", err)
		}

		oldAmount := txn.Amount()
		oldAllocations := txn.Allocations()

		txn, err = txn.AdjustAmount(req.NewAmount, req.UserID, req.Reason, now)
		if err != nil {
			return err
		}

		rescaled, installments, err := uc.allocator.Rescale(
			oldAllocations, oldAmount, req.NewAmount, installments, now,
		)
		if err != nil {
			return err
		}
		txn, err = txn.WithAllocations(rescaled, now)
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
		touched := make(map[string]bool, len(oldAllocations))
		for _, alloc := range oldAllocations {
			touched[alloc.InstallmentID.String()] = true
		}
		for _, alloc := range rescaled {
			touched[alloc.InstallmentID.String()] = true
		}
		for _, inst := range installments {
			if !touched[inst.ID().String()] {
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
		uc.logger.Warn("publish adjustment events", "transaction_id", txn.ID(), "error", err)
	}

	uc.logger.Info("transaction amount updated",
		"transaction_id", req.TransactionID,
		"new_amount", req.NewAmount,
	)
	return toTransactionResponse(txn), nil
}
