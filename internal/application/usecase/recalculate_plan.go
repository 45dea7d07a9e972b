package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/propvantage/receivables-service/internal/application/dto"
	"github.com/propvantage/receivables-service/internal/domain/port"
	"github.com/propvantage/receivables-service/internal/domain/service"
)

// RecalculatePlanUseCase is the periodic sweep for one plan: it re-derives
// installment statuses, accrues late fees, and refreshes the summary.
//
// The sweep is deliberately tolerant: a line that fails to update is logged
// and skipped rather than aborting the whole run. When any line was skipped
// the summary is NOT finalized from partial state; the plan is instead
// flagged for an out-of-band re-sweep.
type RecalculatePlanUseCase struct {
	uow    port.UnitOfWork
	logger *slog.Logger
}

// NewRecalculatePlanUseCase wires dependencies.
func NewRecalculatePlanUseCase(uow port.UnitOfWork, logger *slog.Logger) *RecalculatePlanUseCase {
	return &RecalculatePlanUseCase{uow: uow, logger: logger}
}

// Execute sweeps the plan.
func (uc *RecalculatePlanUseCase) Execute(
	ctx context.Context,
	req dto.RecalculatePlanRequest,
) (dto.RecalculateResponse, error) {
	now := time.Now().UTC()

	var resp dto.RecalculateResponse

	err := uc.uow.Execute(ctx, func(ctx context.Context, repos port.Repositories) error {
		plan, err := repos.Plans.FindByID(ctx, req.TenantID, req.PlanID)
		if err != nil {
			return fmt.Errorf("find plan: %w", err)
		}

		installments, err := repos.Installments.FindByPlanID(ctx, req.TenantID, req.PlanID)
		if err != nil {
			return fmt.Errorf("load installments: %w", err)
		}

		resp = dto.RecalculateResponse{PlanID: req.PlanID}
		rate := plan.Terms().LateFeeRatePerMonth

		for i, inst := range installments {
			updated, grew := inst.AccrueLateFee(rate, now)
			refreshed := updated.WithDerivedStatus(now)

			if grew || refreshed.Status() != inst.Status() {
				if err := repos.Installments.Save(ctx, refreshed.BumpVersion()); err != nil {
					uc.logger.Error("sweep failed to save installment",
						"plan_id", req.PlanID,
						"installment_id", inst.ID(),
						"error", err,
					)
					resp.SkippedLines++
					continue
				}
			}
			installments[i] = refreshed
			resp.InstallmentsSwept++
			if grew {
				resp.FeesAccrued++
			}
		}

		for _, inst := range installments {
			resp.Installments = append(resp.Installments, toInstallmentResponse(inst))
		}

		if resp.SkippedLines > 0 {
			// Partial state: do not finalize a summary from it.
			plan = plan.FlagForResweep(now)
			resp.ResweepRequired = true
			if err := repos.Plans.Save(ctx, plan.BumpVersion()); err != nil {
				return fmt.Errorf("save plan: %w", err)
			}
			resp.Summary = toSummaryResponse(plan)
			return nil
		}

		transactions, err := repos.Transactions.FindByPlanID(ctx, req.TenantID, req.PlanID)
		if err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}

		plan = plan.ClearResweep(now)
		plan = plan.WithSummary(service.DeriveSummary(installments, transactions, now), now)

		if err := repos.Plans.Save(ctx, plan.BumpVersion()); err != nil {
			return fmt.Errorf("save plan: %w", err)
		}
		if err := stageEvents(ctx, repos, plan.DomainEvents()); err != nil {
			return err
		}
		resp.Summary = toSummaryResponse(plan)
		return nil
	})
	if err != nil {
		return dto.RecalculateResponse{}, err
	}

	uc.logger.Info("plan swept",
		"plan_id", req.PlanID,
		"installments", resp.InstallmentsSwept,
		"fees_accrued", resp.FeesAccrued,
		"skipped", resp.SkippedLines,
	)
	return resp, nil
}
