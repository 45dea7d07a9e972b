package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propvantage/receivables-service/internal/application/dto"
	"github.com/propvantage/receivables-service/internal/application/usecase"
	"github.com/propvantage/receivables-service/internal/domain/model"
	"github.com/propvantage/receivables-service/internal/domain/valueobject"
)

func TestRecalculatePlan_AccruesFeesAndRefreshesSummary(t *testing.T) {
	plan := fixturePlan(t, uuid.New())
	// Lines 1 and 2 are past their grace period; line 3 is not yet due.
	lines := fixtureInstallments(t, plan, time.Now().UTC().AddDate(0, 0, -60))
	uow, _, plans, installments, _, _ := newMockUnitOfWork()
	plans.findByIDFunc = func(_ context.Context, _, _ uuid.UUID) (model.PaymentPlan, error) {
		return plan, nil
	}
	installments.findByPlanIDFunc = func(_ context.Context, _, _ uuid.UUID) ([]model.Installment, error) {
		return lines, nil
	}
	uc := usecase.NewRecalculatePlanUseCase(uow, testLogger())

	resp, err := uc.Execute(context.Background(), dto.RecalculatePlanRequest{
		TenantID: plan.TenantID(),
		PlanID:   plan.ID(),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, resp.InstallmentsSwept)
	assert.Equal(t, 2, resp.FeesAccrued)
	assert.Zero(t, resp.SkippedLines)
	assert.False(t, resp.ResweepRequired)
	assert.True(t, resp.Summary.TotalLateFees.IsPositive())
	assert.True(t, resp.Summary.TotalOverdue.IsPositive())

	// The refreshed installment set comes back with the sweep outcome.
	require.Len(t, resp.Installments, 3)
	assert.Equal(t, "OVERDUE", resp.Installments[0].Status)
	assert.Equal(t, "OVERDUE", resp.Installments[1].Status)
	assert.True(t, resp.Installments[0].LateFeeAccrued.IsPositive())
	assert.Equal(t, "PENDING", resp.Installments[2].Status)

	// Only lines that changed are written back.
	require.Len(t, installments.savedInstallments, 2)
	for _, line := range installments.savedInstallments {
		assert.Equal(t, valueobject.InstallmentStatusOverdue, line.Status())
		assert.True(t, line.LateFeeAccrued().IsPositive())
	}
	require.NotEmpty(t, plans.savedPlans)
	assert.False(t, plans.savedPlans[len(plans.savedPlans)-1].ResweepRequired())
}

func TestRecalculatePlan_SkippedLineFlagsResweep(t *testing.T) {
	plan := fixturePlan(t, uuid.New())
	lines := fixtureInstallments(t, plan, time.Now().UTC().AddDate(0, 0, -60))
	uow, _, plans, installments, _, _ := newMockUnitOfWork()
	plans.findByIDFunc = func(_ context.Context, _, _ uuid.UUID) (model.PaymentPlan, error) {
		return plan, nil
	}
	installments.findByPlanIDFunc = func(_ context.Context, _, _ uuid.UUID) ([]model.Installment, error) {
		return lines, nil
	}
	firstLine := lines[0].ID()
	installments.saveFunc = func(_ context.Context, inst model.Installment) error {
		if inst.ID() == firstLine {
			return errors.New("row deadlock")
		}
		return nil
	}
	uc := usecase.NewRecalculatePlanUseCase(uow, testLogger())

	resp, err := uc.Execute(context.Background(), dto.RecalculatePlanRequest{
		TenantID: plan.TenantID(),
		PlanID:   plan.ID(),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.SkippedLines)
	assert.True(t, resp.ResweepRequired)
	// A partial sweep must not publish a summary derived from it.
	require.NotEmpty(t, plans.savedPlans)
	flagged := plans.savedPlans[len(plans.savedPlans)-1]
	assert.True(t, flagged.ResweepRequired())
	assert.True(t, flagged.Summary().TotalLateFees.IsZero())
}
