package usecase

import (
	"context"
	"fmt"

	"github.com/propvantage/receivables-service/internal/application/dto"
	"github.com/propvantage/receivables-service/internal/domain/port"
)

// GetPaymentSummaryUseCase returns a plan with its schedule and derived
// financial summary.
type GetPaymentSummaryUseCase struct {
	planRepo        port.PaymentPlanRepository
	installmentRepo port.InstallmentRepository
}

// NewGetPaymentSummaryUseCase wires dependencies.
func NewGetPaymentSummaryUseCase(
	planRepo port.PaymentPlanRepository,
	installmentRepo port.InstallmentRepository,
) *GetPaymentSummaryUseCase {
	return &GetPaymentSummaryUseCase{
		planRepo:        planRepo,
		installmentRepo: installmentRepo,
	}
}

// Execute reads the plan as persisted. The stored summary reflects the last
// write; it is not recomputed here.
func (uc *GetPaymentSummaryUseCase) Execute(
	ctx context.Context,
	req dto.GetPaymentSummaryRequest,
) (dto.PaymentPlanResponse, error) {
	plan, err := uc.planRepo.FindByID(ctx, req.TenantID, req.PlanID)
	if err != nil {
		return dto.PaymentPlanResponse{}, fmt.Errorf("find plan: %w", err)
	}

	installments, err := uc.installmentRepo.FindByPlanID(ctx, req.TenantID, req.PlanID)
	if err != nil {
		return dto.PaymentPlanResponse{}, fmt.Errorf("load installments: %w", err)
	}

	return toPlanResponse(plan, installments), nil
}
