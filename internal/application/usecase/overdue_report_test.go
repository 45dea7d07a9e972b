package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propvantage/receivables-service/internal/application/dto"
	"github.com/propvantage/receivables-service/internal/application/usecase"
	"github.com/propvantage/receivables-service/internal/domain/port"
)

func TestOverdueReport(t *testing.T) {
	tenantID := uuid.New()
	asOf := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	row := port.OverdueCustomerSummary{
		CustomerID:          uuid.New(),
		PlanID:              uuid.New(),
		SaleID:              uuid.New(),
		OverdueAmount:       decimal.NewFromInt(750_000),
		OverdueInstallments: 2,
		OldestDueDate:       asOf.AddDate(0, -2, 0),
		TotalLateFees:       decimal.NewFromInt(30_000),
	}
	plans := &mockPlanRepository{overdueFunc: func(_ context.Context, tid uuid.UUID, at time.Time) ([]port.OverdueCustomerSummary, error) {
		assert.Equal(t, tenantID, tid)
		assert.True(t, asOf.Equal(at))
		return []port.OverdueCustomerSummary{row}, nil
	}}
	uc := usecase.NewOverdueReportUseCase(plans)

	resp, err := uc.Execute(context.Background(), dto.OverdueReportRequest{
		TenantID: tenantID,
		AsOf:     asOf,
	})
	require.NoError(t, err)

	assert.True(t, asOf.Equal(resp.AsOf))
	require.Len(t, resp.Customers, 1)
	assert.Equal(t, row.CustomerID, resp.Customers[0].CustomerID)
	assert.True(t, row.OverdueAmount.Equal(resp.Customers[0].OverdueAmount))
	assert.Equal(t, 2, resp.Customers[0].OverdueInstallments)
}

func TestOverdueReport_DefaultsAsOf(t *testing.T) {
	var seen time.Time
	plans := &mockPlanRepository{overdueFunc: func(_ context.Context, _ uuid.UUID, at time.Time) ([]port.OverdueCustomerSummary, error) {
		seen = at
		return nil, nil
	}}
	uc := usecase.NewOverdueReportUseCase(plans)

	resp, err := uc.Execute(context.Background(), dto.OverdueReportRequest{TenantID: uuid.New()})
	require.NoError(t, err)
	assert.False(t, seen.IsZero())
	assert.Empty(t, resp.Customers)
}
