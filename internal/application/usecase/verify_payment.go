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

// VerifyPaymentUseCase records a bank-verification outcome. A rejected
// payment is cancelled and its allocations reversed.
type VerifyPaymentUseCase struct {
	uow       port.UnitOfWork
	allocator *service.AllocationEngine
	publisher port.EventPublisher
	logger    *slog.Logger
}

// NewVerifyPaymentUseCase wires dependencies.
func NewVerifyPaymentUseCase(
	uow port.UnitOfWork,
	allocator *service.AllocationEngine,
	publisher port.EventPublisher,
	logger *slog.Logger,
) *VerifyPaymentUseCase {
	return &VerifyPaymentUseCase{
		uow:       uow,
		allocator: allocator,
		publisher: publisher,
		logger:    logger,
	}
}

// Execute applies the verification outcome atomically.
func (uc *VerifyPaymentUseCase) Execute(
	ctx context.Context,
	req dto.VerifyPaymentRequest,
) (dto.TransactionResponse, error) {
	now := time.Now().UTC()

	outcome, err := valueobject.NewVerificationStatus(req.Outcome)
	if err != nil {
		return dto.TransactionResponse{}, err
	}

	var (
		txn    model.PaymentTransaction
		staged []events.DomainEvent
	)

	err = uc.uow.Execute(ctx, func(ctx context.Context, repos port.Repositories) error {
		var err error
		txn, err = repos.Transactions.FindByID(ctx, req.TenantID, req.TransactionID)
		if err != nil {
			return fmt.Errorf("find transaction: %w", err)
		}

		txn, err = txn.Verify(req.UserID, outcome, req.BankStatementMatched, req.Notes, now)
		if err != nil {
			return err
		}

		installments, err := repos.Installments.FindByPlanID(ctx, req.TenantID, txn.PlanID())
		if err != nil {
			return fmt.Errorf("load installments: %w", err)
		}

		rejected := outcome == valueobject.VerificationRejected
		if rejected {
			installments, err = uc.allocator.Reverse(txn.Allocations(), installments, now)
			if err != nil {
				return err
			}
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
		if rejected {
			touched := make(map[uuid.UUID]bool, len(txn.Allocations()))
			for _, alloc := range txn.Allocations() {
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
		uc.logger.Warn("publish verification events", "transaction_id", txn.ID(), "error", err)
	}

	uc.logger.Info("payment verification recorded",
		"transaction_id", req.TransactionID,
		"outcome", req.Outcome,
	)
	return toTransactionResponse(txn), nil
}
