package model_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propvantage/receivables-service/internal/domain/event"
	"github.com/propvantage/receivables-service/internal/domain/model"
	"github.com/propvantage/receivables-service/internal/domain/valueobject"
)

func newTransaction(t *testing.T, amount decimal.Decimal) model.PaymentTransaction {
	t.Helper()
	txn, err := model.NewPaymentTransaction(
		uuid.New(), uuid.New(),
		amount,
		time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC),
		valueobject.MethodBankTransfer,
		"UTR-12345", "",
		time.Now().UTC(),
	)
	require.NoError(t, err)
	return txn
}

func TestNewPaymentTransaction(t *testing.T) {
	txn := newTransaction(t, decimal.NewFromInt(500_000))

	assert.Equal(t, valueobject.TransactionStatusCompleted, txn.Status())
	assert.Equal(t, valueobject.VerificationPending, txn.Verification().Status)
	assert.True(t, txn.Amount().Equal(txn.OriginalAmount()))

	events := txn.DomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, event.TypePaymentRecorded, events[0].EventType())
}

func TestNewPaymentTransaction_RejectsNonPositiveAmount(t *testing.T) {
	_, err := model.NewPaymentTransaction(
		uuid.New(), uuid.New(),
		decimal.Zero,
		time.Now(), valueobject.MethodCash, "", "", time.Now(),
	)

	assert.Error(t, err)
}

func TestPaymentTransaction_WithAllocations(t *testing.T) {
	txn := newTransaction(t, decimal.NewFromInt(1000))

	updated, err := txn.WithAllocations([]model.Allocation{
		{InstallmentID: uuid.New(), Amount: decimal.NewFromInt(600), Type: model.AllocationAuto},
		{InstallmentID: uuid.New(), Amount: decimal.NewFromInt(300), Type: model.AllocationAuto},
	}, time.Now())

	require.NoError(t, err)
	assert.Len(t, updated.Allocations(), 2)
	assert.True(t, decimal.NewFromInt(900).Equal(updated.AllocatedTotal()))
	assert.True(t, decimal.NewFromInt(100).Equal(updated.UnallocatedAmount()))
	assert.Empty(t, txn.Allocations())
}

func TestPaymentTransaction_WithAllocations_RejectsOverAllocation(t *testing.T) {
	txn := newTransaction(t, decimal.NewFromInt(1000))

	_, err := txn.WithAllocations([]model.Allocation{
		{InstallmentID: uuid.New(), Amount: decimal.NewFromInt(1001), Type: model.AllocationManual},
	}, time.Now())

	assert.ErrorIs(t, err, model.ErrOverAllocation)
}

func TestPaymentTransaction_AdjustAmount_RecordsModification(t *testing.T) {
	txn := newTransaction(t, decimal.NewFromInt(1000)).ClearEvents()
	userID := uuid.New()

	updated, err := txn.AdjustAmount(decimal.NewFromInt(1200), userID, "typo in entry", time.Now())

	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1200).Equal(updated.Amount()))
	assert.True(t, decimal.NewFromInt(1000).Equal(updated.OriginalAmount()))

	mods := updated.Modifications()
	require.Len(t, mods, 1)
	assert.Equal(t, "amount", mods[0].Field)
	assert.Equal(t, "1000", mods[0].Before)
	assert.Equal(t, "1200", mods[0].After)
	assert.Equal(t, userID, mods[0].UserID)

	events := updated.DomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, event.TypeTransactionAmountAdjusted, events[0].EventType())
}

func TestPaymentTransaction_Verify_Verified(t *testing.T) {
	txn := newTransaction(t, decimal.NewFromInt(1000)).ClearEvents()

	updated, err := txn.Verify(uuid.New(), valueobject.VerificationVerified, true, "matched UTR", time.Now())

	require.NoError(t, err)
	assert.Equal(t, valueobject.TransactionStatusCleared, updated.Status())
	assert.Equal(t, valueobject.VerificationVerified, updated.Verification().Status)
	require.NotNil(t, updated.Verification().VerifiedAt)
	// Verification never changes the amount.
	assert.True(t, txn.Amount().Equal(updated.Amount()))
}

func TestPaymentTransaction_Verify_Rejected(t *testing.T) {
	txn := newTransaction(t, decimal.NewFromInt(1000))

	updated, err := txn.Verify(uuid.New(), valueobject.VerificationRejected, false, "no bank match", time.Now())

	require.NoError(t, err)
	assert.Equal(t, valueobject.TransactionStatusCancelled, updated.Status())
	assert.True(t, updated.Status().IsTerminal())
}

func TestPaymentTransaction_Verify_RejectsPendingOutcome(t *testing.T) {
	txn := newTransaction(t, decimal.NewFromInt(1000))

	_, err := txn.Verify(uuid.New(), valueobject.VerificationPending, false, "", time.Now())

	assert.Error(t, err)
}

func TestPaymentTransaction_Refund(t *testing.T) {
	txn := newTransaction(t, decimal.NewFromInt(1000)).ClearEvents()
	userID := uuid.New()

	updated, err := txn.Refund(decimal.NewFromInt(1000), "booking cancelled", userID, time.Now())

	require.NoError(t, err)
	assert.Equal(t, valueobject.TransactionStatusRefunded, updated.Status())
	require.NotNil(t, updated.RefundDetails())
	assert.Equal(t, userID, updated.RefundDetails().ProcessedBy)

	events := updated.DomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, event.TypePaymentRefunded, events[0].EventType())
}

func TestPaymentTransaction_Refund_ExceedsAmount(t *testing.T) {
	txn := newTransaction(t, decimal.NewFromInt(1000))

	_, err := txn.Refund(decimal.NewFromInt(1001), "over", uuid.New(), time.Now())

	assert.ErrorIs(t, err, model.ErrRefundExceedsAmount)
}

func TestPaymentTransaction_TerminalRejectsMutation(t *testing.T) {
	txn := newTransaction(t, decimal.NewFromInt(1000))
	refunded, err := txn.Refund(decimal.NewFromInt(1000), "cancelled", uuid.New(), time.Now())
	require.NoError(t, err)

	_, err = refunded.AdjustAmount(decimal.NewFromInt(500), uuid.New(), "late edit", time.Now())
	assert.ErrorIs(t, err, model.ErrTransactionTerminal)

	_, err = refunded.Refund(decimal.NewFromInt(1), "again", uuid.New(), time.Now())
	assert.ErrorIs(t, err, model.ErrTransactionTerminal)

	_, err = refunded.WithAllocations(nil, time.Now())
	assert.ErrorIs(t, err, model.ErrTransactionTerminal)
}

func TestPaymentTransaction_EnsureReceipt_Idempotent(t *testing.T) {
	txn := newTransaction(t, decimal.NewFromInt(1000))
	issued := time.Date(2026, 4, 11, 9, 30, 0, 0, time.UTC)

	first := txn.EnsureReceipt(issued)
	require.NotEmpty(t, first.ReceiptNumber())
	assert.True(t, strings.HasPrefix(first.ReceiptNumber(), "RCP-20260411-"))
	require.NotNil(t, first.ReceiptIssuedAt())

	second := first.EnsureReceipt(issued.AddDate(0, 0, 3))
	assert.Equal(t, first.ReceiptNumber(), second.ReceiptNumber())
}
