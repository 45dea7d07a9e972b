package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/propvantage/receivables-service/internal/application/dto"
	"github.com/propvantage/receivables-service/internal/domain/model"
	"github.com/propvantage/receivables-service/internal/domain/port"
	"github.com/propvantage/receivables-service/pkg/events"
)

// WaiveInstallmentUseCase writes off an installment's pending balance.
type WaiveInstallmentUseCase struct {
	uow       port.UnitOfWork
	publisher port.EventPublisher
	logger    *slog.Logger
}

// NewWaiveInstallmentUseCase wires dependencies.
func NewWaiveInstallmentUseCase(
	uow port.UnitOfWork,
	publisher port.EventPublisher,
	logger *slog.Logger,
) *WaiveInstallmentUseCase {
	return &WaiveInstallmentUseCase{uow: uow, publisher: publisher, logger: logger}
}

// Execute waives the installment and refreshes the plan summary. Only lines
// marked waivable can be written off.
func (uc *WaiveInstallmentUseCase) Execute(
	ctx context.Context,
	req dto.WaiveInstallmentRequest,
) (dto.InstallmentResponse, error) {
	now := time.Now().UTC()

	var (
		waived model.Installment
		staged []events.DomainEvent
	)

	err := uc.uow.Execute(ctx, func(ctx context.Context, repos port.Repositories) error {
		inst, err := repos.Installments.FindByID(ctx, req.TenantID, req.InstallmentID)
		if err != nil {
			return fmt.Errorf("find installment: %w", err)
		}
		if inst.PlanID() != req.PlanID {
			return port.ErrInstallmentNotFound
		}

		waived, err = inst.Waive(req.UserID, req.Reason, now)
		if err != nil {
			return err
		}

		if err := repos.Installments.Save(ctx, waived.BumpVersion()); err != nil {
			return fmt.Errorf("save installment: %w", err)
		}

		staged = waived.DomainEvents()
		if err := stageEvents(ctx, repos, staged); err != nil {
			return err
		}

		return refreshPlan(ctx, repos, req.TenantID, req.PlanID,
			req.UserID,
			fmt.Sprintf("installment %d waived", inst.Number()),
			req.Reason, now)
	})
	if err != nil {
		return dto.InstallmentResponse{}, err
	}

	if err := uc.publisher.Publish(ctx, LedgerTopic, staged...); err != nil {
		uc.logger.Warn("publish waiver events", "installment_id", req.InstallmentID, "error", err)
	}

	uc.logger.Info("installment waived",
		"installment_id", req.InstallmentID,
		"plan_id", req.PlanID,
	)
	return toInstallmentResponse(waived), nil
}
