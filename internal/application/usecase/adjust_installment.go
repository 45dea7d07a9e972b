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
)

// AdjustInstallmentAmountUseCase changes one installment's current amount,
// recording the adjustment on the installment and on the plan history.
type AdjustInstallmentAmountUseCase struct {
	uow    port.UnitOfWork
	logger *slog.Logger
}

// NewAdjustInstallmentAmountUseCase wires dependencies.
func NewAdjustInstallmentAmountUseCase(uow port.UnitOfWork, logger *slog.Logger) *AdjustInstallmentAmountUseCase {
	return &AdjustInstallmentAmountUseCase{uow: uow, logger: logger}
}

// Execute applies the amount change and refreshes the plan summary.
func (uc *AdjustInstallmentAmountUseCase) Execute(
	ctx context.Context,
	req dto.AdjustInstallmentAmountRequest,
) (dto.InstallmentResponse, error) {
	now := time.Now().UTC()

	var adjusted model.Installment

	err := uc.uow.Execute(ctx, func(ctx context.Context, repos port.Repositories) error {
		inst, err := repos.Installments.FindByID(ctx, req.TenantID, req.InstallmentID)
		if err != nil {
			return fmt.Errorf("find installment: %w", err)
		}
		if inst.PlanID() != req.PlanID {
			return port.ErrInstallmentNotFound
		}

		oldAmount := inst.CurrentAmount()
		adjusted, err = inst.UpdateAmount(req.NewAmount, req.UserID, req.Reason, now)
		if err != nil {
			return err
		}

		if err := repos.Installments.Save(ctx, adjusted.BumpVersion()); err != nil {
			return fmt.Errorf("save installment: %w", err)
		}

		return refreshPlan(ctx, repos, req.TenantID, req.PlanID,
			req.UserID,
			fmt.Sprintf("installment %d amount %s -> %s", inst.Number(), oldAmount, req.NewAmount),
			req.Reason, now)
	})
	if err != nil {
		return dto.InstallmentResponse{}, err
	}

	uc.logger.Info("installment amount adjusted",
		"installment_id", req.InstallmentID,
		"new_amount", req.NewAmount,
	)
	return toInstallmentResponse(adjusted), nil
}

// AdjustInstallmentDueDateUseCase moves one installment's due date.
type AdjustInstallmentDueDateUseCase struct {
	uow    port.UnitOfWork
	logger *slog.Logger
}

// NewAdjustInstallmentDueDateUseCase wires dependencies.
func NewAdjustInstallmentDueDateUseCase(uow port.UnitOfWork, logger *slog.Logger) *AdjustInstallmentDueDateUseCase {
	return &AdjustInstallmentDueDateUseCase{uow: uow, logger: logger}
}

// Execute applies the due-date change, recomputing the grace period end and
// the derived status.
func (uc *AdjustInstallmentDueDateUseCase) Execute(
	ctx context.Context,
	req dto.AdjustInstallmentDueDateRequest,
) (dto.InstallmentResponse, error) {
	now := time.Now().UTC()

	var adjusted model.Installment

	err := uc.uow.Execute(ctx, func(ctx context.Context, repos port.Repositories) error {
		inst, err := repos.Installments.FindByID(ctx, req.TenantID, req.InstallmentID)
		if err != nil {
			return fmt.Errorf("find installment: %w", err)
		}
		if inst.PlanID() != req.PlanID {
			return port.ErrInstallmentNotFound
		}

		plan, err := repos.Plans.FindByID(ctx, req.TenantID, req.PlanID)
		if err != nil {
			return fmt.Errorf("find plan: %w", err)
		}

		oldDate := inst.CurrentDueDate()
		adjusted, err = inst.UpdateDueDate(req.NewDueDate, req.UserID, req.Reason, plan.Terms().GracePeriodDays, now)
		if err != nil {
			return err
		}

		if err := repos.Installments.Save(ctx, adjusted.BumpVersion()); err != nil {
			return fmt.Errorf("save installment: %w", err)
		}

		return refreshPlan(ctx, repos, req.TenantID, req.PlanID,
			req.UserID,
			fmt.Sprintf("installment %d due date %s -> %s",
				inst.Number(), oldDate.Format("2006-01-02"), req.NewDueDate.Format("2006-01-02")),
			req.Reason, now)
	})
	if err != nil {
		return dto.InstallmentResponse{}, err
	}

	uc.logger.Info("installment due date adjusted",
		"installment_id", req.InstallmentID,
		"new_due_date", req.NewDueDate,
	)
	return toInstallmentResponse(adjusted), nil
}

// refreshPlan re-derives the plan summary from current state and appends a
// modification entry. Must run inside the same unit of work as the change it
// follows.
func refreshPlan(
	ctx context.Context,
	repos port.Repositories,
	tenantID, planID uuid.UUID,
	userID uuid.UUID,
	change, reason string,
	now time.Time,
) error {
	plan, err := repos.Plans.FindByID(ctx, tenantID, planID)
	if err != nil {
		return fmt.Errorf("find plan: %w", err)
	}
	installments, err := repos.Installments.FindByPlanID(ctx, tenantID, planID)
	if err != nil {
		return fmt.Errorf("load installments: %w", err)
	}
	transactions, err := repos.Transactions.FindByPlanID(ctx, tenantID, planID)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}

	plan = plan.AddModification(userID, change, reason, now)
	plan = plan.WithSummary(service.DeriveSummary(installments, transactions, now), now)

	if err := repos.Plans.Save(ctx, plan.BumpVersion()); err != nil {
		return fmt.Errorf("save plan: %w", err)
	}
	return stageEvents(ctx, repos, plan.DomainEvents())
}
