package usecase

import (
	"context"
	"log/slog"

	"github.com/propvantage/receivables-service/internal/application/dto"
	"github.com/propvantage/receivables-service/internal/domain/port"
)

// ResweepFlaggedPlansUseCase drains the re-sweep backlog: plans whose last
// sweep finished partially and skipped the summary refresh.
type ResweepFlaggedPlansUseCase struct {
	planRepo    port.PaymentPlanRepository
	recalculate *RecalculatePlanUseCase
	logger      *slog.Logger
}

// NewResweepFlaggedPlansUseCase wires dependencies.
func NewResweepFlaggedPlansUseCase(
	planRepo port.PaymentPlanRepository,
	recalculate *RecalculatePlanUseCase,
	logger *slog.Logger,
) *ResweepFlaggedPlansUseCase {
	return &ResweepFlaggedPlansUseCase{
		planRepo:    planRepo,
		recalculate: recalculate,
		logger:      logger,
	}
}

// Execute re-runs the sweep for up to limit flagged plans. A plan that fails
// again keeps its flag and is picked up on the next run.
func (uc *ResweepFlaggedPlansUseCase) Execute(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}

	plans, err := uc.planRepo.ListFlaggedForResweep(ctx, limit)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, plan := range plans {
		resp, err := uc.recalculate.Execute(ctx, dto.RecalculatePlanRequest{
			TenantID: plan.TenantID(),
			PlanID:   plan.ID(),
		})
		if err != nil {
			uc.logger.Error("resweep failed", "plan_id", plan.ID(), "error", err)
			continue
		}
		if !resp.ResweepRequired {
			swept++
		}
	}

	uc.logger.Info("resweep pass finished", "flagged", len(plans), "cleared", swept)
	return swept, nil
}
