package usecase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propvantage/receivables-service/internal/application/dto"
	"github.com/propvantage/receivables-service/internal/application/usecase"
	"github.com/propvantage/receivables-service/internal/domain/model"
	"github.com/propvantage/receivables-service/internal/domain/service"
	"github.com/propvantage/receivables-service/internal/domain/valueobject"
)

func TestUpdateTransactionAmount_RescalesAllocations(t *testing.T) {
	plan, lines, txn := fixtureRecordedPayment(t)
	uow, installments, transactions, outbox := wireTransactionMocks(plan, lines, txn)
	uc := usecase.NewUpdateTransactionAmountUseCase(uow, service.NewAllocationEngine(), &mockEventPublisher{}, testLogger())

	resp, err := uc.Execute(context.Background(), dto.UpdateTransactionAmountRequest{
		TenantID:      plan.TenantID(),
		TransactionID: txn.ID(),
		NewAmount:     decimal.NewFromInt(600_000),
		Reason:        "bank credited a lower amount",
		UserID:        lines[0].TenantID(),
	})
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(600_000).Equal(resp.Amount))
	require.Len(t, resp.Allocations, 1)
	assert.True(t, decimal.NewFromInt(600_000).Equal(resp.Allocations[0].Amount))

	require.Len(t, transactions.savedTxns, 1)
	saved := transactions.savedTxns[0]
	assert.True(t, decimal.NewFromInt(600_000).Equal(saved.Amount()))
	require.Len(t, saved.Modifications(), 1)
	assert.Equal(t, "amount", saved.Modifications()[0].Field)

	require.Len(t, installments.savedInstallments, 1)
	line := installments.savedInstallments[0]
	assert.True(t, decimal.NewFromInt(600_000).Equal(line.PaidAmount()))
	assert.Equal(t, valueobject.InstallmentStatusPartiallyPaid, line.Status())

	assert.NotEmpty(t, outbox.entries)
}

func TestUpdateTransactionAmount_TerminalTransactionRejected(t *testing.T) {
	plan, lines, txn := fixtureRecordedPayment(t)
	refunded, err := txn.Refund(txn.Amount(), "deal fell through", plan.CustomerID(), txn.PaymentDate())
	require.NoError(t, err)
	uow, _, transactions, _ := wireTransactionMocks(plan, lines, refunded)
	uc := usecase.NewUpdateTransactionAmountUseCase(uow, service.NewAllocationEngine(), &mockEventPublisher{}, testLogger())

	_, err = uc.Execute(context.Background(), dto.UpdateTransactionAmountRequest{
		TenantID:      plan.TenantID(),
		TransactionID: txn.ID(),
		NewAmount:     decimal.NewFromInt(600_000),
		Reason:        "correction",
	})
	require.ErrorIs(t, err, model.ErrTransactionTerminal)
	assert.Empty(t, transactions.savedTxns)
}
