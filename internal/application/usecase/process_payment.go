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
	"github.com/propvantage/receivables-service/internal/domain/valueobject"
	"github.com/propvantage/receivables-service/pkg/events"
)

// ProcessPaymentUseCase records a payment against a plan, allocates it across
// installments, and recalculates the plan summary, all in one transaction.
type ProcessPaymentUseCase struct {
	uow       port.UnitOfWork
	allocator *service.AllocationEngine
	publisher port.EventPublisher
	logger    *slog.Logger
}

// NewProcessPaymentUseCase wires dependencies.
func NewProcessPaymentUseCase(
	uow port.UnitOfWork,
	allocator *service.AllocationEngine,
	publisher port.EventPublisher,
	logger *slog.Logger,
) *ProcessPaymentUseCase {
	return &ProcessPaymentUseCase{
		uow:       uow,
		allocator: allocator,
		publisher: publisher,
		logger:    logger,
	}
}

// Execute records the payment. Explicit allocations are honored as given;
// without them the amount is spread oldest due first. Either the transaction,
// the touched installments, the refreshed summary, and the outbox entries all
// commit, or none do.
func (uc *ProcessPaymentUseCase) Execute(
	ctx context.Context,
	req dto.ProcessPaymentRequest,
) (dto.TransactionResponse, error) {
	now := time.Now().UTC()

	method, err := valueobject.NewPaymentMethod(req.Method)
	if err != nil {
		return dto.TransactionResponse{}, err
	}

	var (
		txn    model.PaymentTransaction
		staged []events.DomainEvent
	)

	err = uc.uow.Execute(ctx, func(ctx context.Context, repos port.Repositories) error {
		plan, err := repos.Plans.FindByID(ctx, req.TenantID, req.PlanID)
		if err != nil {
			return fmt.Errorf("find plan: %w", err)
		}
		if plan.Status().IsTerminal() {
			return model.ErrPlanTerminal
		}

		installments, err := repos.Installments.FindByPlanID(ctx, req.TenantID, req.PlanID)
		if err != nil {
			return fmt.Errorf("load installments: %w", err)
		}

		txn, err = model.NewPaymentTransaction(
			req.TenantID, req.PlanID,
			req.Amount, req.PaymentDate,
			method, req.Reference, req.Notes,
			now,
		)
		if err != nil {
			return fmt.Errorf("record transaction: %w", err)
		}

		var allocations []model.Allocation
		if len(req.Allocations) > 0 {
			for _, in := range req.Allocations {
				allocations = append(allocations, model.Allocation{
					InstallmentID: in.InstallmentID,
					Amount:        in.Amount,
					Type:          model.AllocationManual,
				})
			}
		} else {
			allocations = uc.allocator.AutoAllocate(req.Amount, installments)
		}

		txn, err = txn.WithAllocations(allocations, now)
		if err != nil {
			return err
		}
		txn = txn.EnsureReceipt(now)

		installments, err = uc.allocator.Apply(allocations, installments, txn.ID(), now)
		if err != nil {
			return err
		}

		transactions, err := repos.Transactions.FindByPlanID(ctx, req.TenantID, req.PlanID)
		if err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}
		transactions = append(transactions, txn)

		plan = plan.WithSummary(service.DeriveSummary(installments, transactions, now), now)

		if err := repos.Transactions.Save(ctx, txn); err != nil {
			return fmt.Errorf("save transaction: %w", err)
		}
		touched := make(map[uuid.UUID]bool, len(allocations))
		for _, alloc := range allocations {
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
		uc.logger.Warn("publish payment events", "transaction_id", txn.ID(), "error", err)
	}

	uc.logger.Info("payment processed",
		"transaction_id", txn.ID(),
		"plan_id", req.PlanID,
		"amount", req.Amount,
		"receipt", txn.ReceiptNumber(),
	)
	return toTransactionResponse(txn), nil
}
