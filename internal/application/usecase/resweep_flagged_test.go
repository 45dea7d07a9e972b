package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propvantage/receivables-service/internal/application/usecase"
	"github.com/propvantage/receivables-service/internal/domain/model"
)

func TestResweepFlaggedPlans(t *testing.T) {
	plan := fixturePlan(t, uuid.New()).FlagForResweep(time.Now().UTC())
	lines := fixtureInstallments(t, plan, time.Now().UTC().AddDate(0, 0, -60))

	uow, _, plans, installments, _, _ := newMockUnitOfWork()
	plans.findByIDFunc = func(_ context.Context, _, _ uuid.UUID) (model.PaymentPlan, error) {
		return plan, nil
	}
	installments.findByPlanIDFunc = func(_ context.Context, _, _ uuid.UUID) ([]model.Installment, error) {
		return lines, nil
	}

	backlog := &mockPlanRepository{listFlaggedFunc: func(_ context.Context, limit int) ([]model.PaymentPlan, error) {
		assert.Equal(t, 100, limit)
		return []model.PaymentPlan{plan}, nil
	}}
	recalculate := usecase.NewRecalculatePlanUseCase(uow, testLogger())
	uc := usecase.NewResweepFlaggedPlansUseCase(backlog, recalculate, testLogger())

	swept, err := uc.Execute(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 1, swept)
	require.NotEmpty(t, plans.savedPlans)
	assert.False(t, plans.savedPlans[len(plans.savedPlans)-1].ResweepRequired())
}

func TestResweepFlaggedPlans_EmptyBacklog(t *testing.T) {
	uow, _, _, _, _, _ := newMockUnitOfWork()
	recalculate := usecase.NewRecalculatePlanUseCase(uow, testLogger())
	uc := usecase.NewResweepFlaggedPlansUseCase(&mockPlanRepository{}, recalculate, testLogger())

	swept, err := uc.Execute(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, swept)
}
