package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/propvantage/receivables-service/internal/application/dto"
	"github.com/propvantage/receivables-service/internal/domain/port"
)

// OverdueReportUseCase produces the per-customer overdue report for a tenant.
type OverdueReportUseCase struct {
	planRepo port.PaymentPlanRepository
}

// NewOverdueReportUseCase wires dependencies.
func NewOverdueReportUseCase(planRepo port.PaymentPlanRepository) *OverdueReportUseCase {
	return &OverdueReportUseCase{planRepo: planRepo}
}

// Execute aggregates overdue balances per customer as of the given time.
func (uc *OverdueReportUseCase) Execute(
	ctx context.Context,
	req dto.OverdueReportRequest,
) (dto.OverdueReportResponse, error) {
	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	rows, err := uc.planRepo.OverdueReport(ctx, req.TenantID, asOf)
	if err != nil {
		return dto.OverdueReportResponse{}, fmt.Errorf("overdue report: %w", err)
	}

	resp := dto.OverdueReportResponse{AsOf: asOf}
	for _, row := range rows {
		resp.Customers = append(resp.Customers, dto.OverdueCustomerResponse{
			CustomerID:          row.CustomerID,
			PlanID:              row.PlanID,
			SaleID:              row.SaleID,
			OverdueAmount:       row.OverdueAmount,
			OverdueInstallments: row.OverdueInstallments,
			OldestDueDate:       row.OldestDueDate,
			TotalLateFees:       row.TotalLateFees,
		})
	}
	return resp, nil
}
