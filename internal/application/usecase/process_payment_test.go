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
	"github.com/propvantage/receivables-service/internal/domain/model"
	"github.com/propvantage/receivables-service/internal/domain/service"
)

func newProcessPaymentFixture(t *testing.T) (model.PaymentPlan, []model.Installment, *mockUnitOfWork, *mockInstallmentRepository, *mockTransactionRepository, *mockOutboxRepository, *mockEventPublisher, *usecase.ProcessPaymentUseCase) {
	t.Helper()
	tenantID := uuid.New()
	plan := fixturePlan(t, tenantID)
	booking := time.Now().UTC().AddDate(0, 0, -60)
	lines := fixtureInstallments(t, plan, booking)

	uow, _, plans, installments, transactions, outbox := newMockUnitOfWork()
	plans.findByIDFunc = func(_ context.Context, _, _ uuid.UUID) (model.PaymentPlan, error) {
		return plan, nil
	}
	installments.findByPlanIDFunc = func(_ context.Context, _, _ uuid.UUID) ([]model.Installment, error) {
		return lines, nil
	}
	publisher := &mockEventPublisher{}
	uc := usecase.NewProcessPaymentUseCase(uow, service.NewAllocationEngine(), publisher, testLogger())
	return plan, lines, uow, installments, transactions, outbox, publisher, uc
}

func TestProcessPayment_AutoAllocates(t *testing.T) {
	plan, lines, _, installments, transactions, outbox, publisher, uc := newProcessPaymentFixture(t)

	resp, err := uc.Execute(context.Background(), dto.ProcessPaymentRequest{
		TenantID:    plan.TenantID(),
		PlanID:      plan.ID(),
		Amount:      decimal.NewFromInt(1_500_000),
		PaymentDate: time.Now().UTC(),
		Method:      "BANK_TRANSFER",
		Reference:   "UTR-998877",
	})
	require.NoError(t, err)

	assert.Equal(t, "COMPLETED", resp.Status)
	require.Len(t, resp.Allocations, 2)
	assert.Equal(t, lines[0].ID(), resp.Allocations[0].InstallmentID)
	assert.True(t, decimal.NewFromInt(1_000_000).Equal(resp.Allocations[0].Amount))
	assert.Equal(t, lines[1].ID(), resp.Allocations[1].InstallmentID)
	assert.True(t, decimal.NewFromInt(500_000).Equal(resp.Allocations[1].Amount))
	assert.True(t, resp.Unallocated.IsZero())
	assert.Contains(t, resp.ReceiptNumber, "RCP-")

	require.Len(t, transactions.savedTxns, 1)
	assert.Len(t, installments.savedInstallments, 2)
	require.Len(t, outbox.entries, 1)
	assert.Len(t, publisher.published, 1)
}

func TestProcessPayment_ExplicitAllocation(t *testing.T) {
	plan, lines, _, installments, _, _, _, uc := newProcessPaymentFixture(t)

	resp, err := uc.Execute(context.Background(), dto.ProcessPaymentRequest{
		TenantID:    plan.TenantID(),
		PlanID:      plan.ID(),
		Amount:      decimal.NewFromInt(200_000),
		PaymentDate: time.Now().UTC(),
		Method:      "CHEQUE",
		Allocations: []dto.AllocationInput{
			{InstallmentID: lines[1].ID(), Amount: decimal.NewFromInt(200_000)},
		},
	})
	require.NoError(t, err)

	require.Len(t, resp.Allocations, 1)
	assert.Equal(t, lines[1].ID(), resp.Allocations[0].InstallmentID)
	assert.Equal(t, "MANUAL", resp.Allocations[0].Type)
	require.Len(t, installments.savedInstallments, 1)
	assert.True(t, decimal.NewFromInt(200_000).Equal(installments.savedInstallments[0].PaidAmount()))
}

func TestProcessPayment_TerminalPlanRejected(t *testing.T) {
	tenantID := uuid.New()
	plan := fixturePlan(t, tenantID)
	cancelled, err := plan.Cancel(time.Now().UTC())
	require.NoError(t, err)

	uow, _, plans, _, transactions, _ := newMockUnitOfWork()
	plans.findByIDFunc = func(_ context.Context, _, _ uuid.UUID) (model.PaymentPlan, error) {
		return cancelled, nil
	}
	uc := usecase.NewProcessPaymentUseCase(uow, service.NewAllocationEngine(), &mockEventPublisher{}, testLogger())

	_, err = uc.Execute(context.Background(), dto.ProcessPaymentRequest{
		TenantID:    tenantID,
		PlanID:      plan.ID(),
		Amount:      decimal.NewFromInt(100_000),
		PaymentDate: time.Now().UTC(),
		Method:      "CASH",
	})
	require.ErrorIs(t, err, model.ErrPlanTerminal)
	assert.Empty(t, transactions.savedTxns)
}

func TestProcessPayment_UnknownMethodRejected(t *testing.T) {
	plan, _, _, _, transactions, _, _, uc := newProcessPaymentFixture(t)

	_, err := uc.Execute(context.Background(), dto.ProcessPaymentRequest{
		TenantID: plan.TenantID(),
		PlanID:   plan.ID(),
		Amount:   decimal.NewFromInt(100_000),
		Method:   "BARTER",
	})
	require.Error(t, err)
	assert.Empty(t, transactions.savedTxns)
}
