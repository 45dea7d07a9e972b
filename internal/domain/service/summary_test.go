package service_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propvantage/receivables-service/internal/domain/model"
	"github.com/propvantage/receivables-service/internal/domain/service"
	"github.com/propvantage/receivables-service/internal/domain/valueobject"
)

func makePlan(t *testing.T, total int64) model.PaymentPlan {
	t.Helper()
	plan, err := model.NewPaymentPlan(
		uuid.New(), uuid.New(), uuid.New(),
		"INR",
		model.AmountBreakdown{BasePrice: decimal.NewFromInt(total)},
		model.PlanTerms{GracePeriodDays: 5, LateFeeRatePerMonth: decimal.NewFromInt(2)},
		allocBase,
	)
	require.NoError(t, err)
	return plan
}

func makeTransaction(t *testing.T, planID uuid.UUID, amount int64, paymentDate time.Time) model.PaymentTransaction {
	t.Helper()
	txn, err := model.NewPaymentTransaction(
		uuid.New(), planID,
		decimal.NewFromInt(amount), paymentDate,
		valueobject.MethodBankTransfer, "", "",
		paymentDate,
	)
	require.NoError(t, err)
	return txn
}

func TestDeriveSummary_Totals(t *testing.T) {
	plan := makePlan(t, 3000)
	overdueDue := allocBase.AddDate(0, 0, -60)
	first := makeInstallment(t, plan.ID(), 1, 1000, overdueDue)
	second := makeInstallment(t, plan.ID(), 2, 1000, allocBase.AddDate(0, 0, 30))
	third := makeInstallment(t, plan.ID(), 3, 1000, allocBase.AddDate(0, 0, 60))

	paymentDate := allocBase.AddDate(0, 0, -10)
	second, err := second.RecordPayment(decimal.NewFromInt(400), uuid.New(), paymentDate)
	require.NoError(t, err)
	first, accrued := first.AccrueLateFee(decimal.NewFromInt(2), allocBase)
	require.True(t, accrued)

	txn := makeTransaction(t, plan.ID(), 400, paymentDate)

	summary := service.DeriveSummary([]model.Installment{first, second, third}, []model.PaymentTransaction{txn}, allocBase)

	assert.True(t, decimal.NewFromInt(400).Equal(summary.TotalPaid), "paid %s", summary.TotalPaid)
	assert.True(t, decimal.NewFromInt(2600).Equal(summary.TotalOutstanding), "outstanding %s", summary.TotalOutstanding)
	// Only the first installment is past its grace period.
	assert.True(t, decimal.NewFromInt(1000).Equal(summary.TotalOverdue), "overdue %s", summary.TotalOverdue)
	assert.True(t, summary.TotalLateFees.GreaterThan(decimal.Zero))

	// Next due is the overdue installment, the earliest unpaid line.
	require.NotNil(t, summary.NextDueDate)
	assert.Equal(t, overdueDue, *summary.NextDueDate)
	assert.True(t, decimal.NewFromInt(1000).Equal(summary.NextDueAmount))

	require.NotNil(t, summary.LastPaymentDate)
	assert.Equal(t, paymentDate, *summary.LastPaymentDate)
	assert.True(t, decimal.NewFromInt(400).Equal(summary.LastPaymentAmount))
}

func TestDeriveSummary_Idempotent(t *testing.T) {
	plan := makePlan(t, 2000)
	first := makeInstallment(t, plan.ID(), 1, 1000, allocBase.AddDate(0, 0, 30))
	second := makeInstallment(t, plan.ID(), 2, 1000, allocBase.AddDate(0, 0, 60))
	first, err := first.RecordPayment(decimal.NewFromInt(1000), uuid.New(), allocBase)
	require.NoError(t, err)
	txn := makeTransaction(t, plan.ID(), 1000, allocBase)

	installments := []model.Installment{first, second}
	transactions := []model.PaymentTransaction{txn}

	once := service.DeriveSummary(installments, transactions, allocBase)
	twice := service.DeriveSummary(installments, transactions, allocBase)

	assert.True(t, once.Equal(twice))
}

func TestDeriveSummary_IgnoresNonCountingTransactions(t *testing.T) {
	plan := makePlan(t, 1000)
	inst := makeInstallment(t, plan.ID(), 1, 1000, allocBase.AddDate(0, 0, 30))

	counted := makeTransaction(t, plan.ID(), 400, allocBase.AddDate(0, 0, -5))
	refunded := makeTransaction(t, plan.ID(), 900, allocBase.AddDate(0, 0, -1))
	refunded, err := refunded.Refund(decimal.NewFromInt(900), "bounced cheque replacement", uuid.New(), allocBase)
	require.NoError(t, err)

	summary := service.DeriveSummary([]model.Installment{inst}, []model.PaymentTransaction{counted, refunded}, allocBase)

	// The refunded transaction is newer but does not count toward paid.
	require.NotNil(t, summary.LastPaymentDate)
	assert.Equal(t, counted.PaymentDate(), *summary.LastPaymentDate)
	assert.True(t, decimal.NewFromInt(400).Equal(summary.LastPaymentAmount))
}

func TestDeriveSummary_AllSettled(t *testing.T) {
	plan := makePlan(t, 1000)
	inst := makeInstallment(t, plan.ID(), 1, 1000, allocBase.AddDate(0, 0, 30))
	inst, err := inst.RecordPayment(decimal.NewFromInt(1000), uuid.New(), allocBase)
	require.NoError(t, err)
	txn := makeTransaction(t, plan.ID(), 1000, allocBase)

	summary := service.DeriveSummary([]model.Installment{inst}, []model.PaymentTransaction{txn}, allocBase)

	assert.True(t, summary.TotalOutstanding.IsZero())
	assert.True(t, summary.TotalOverdue.IsZero())
	assert.Nil(t, summary.NextDueDate)
	assert.True(t, summary.NextDueAmount.IsZero())

	completed := plan.WithSummary(summary, allocBase)
	assert.Equal(t, valueobject.PlanStatusCompleted, completed.Status())
}

func TestDeriveSummary_WaivedBalanceLeavesOutstanding(t *testing.T) {
	plan := makePlan(t, 2000)
	kept := makeInstallment(t, plan.ID(), 1, 1000, allocBase.AddDate(0, 0, 30))
	kept, err := kept.RecordPayment(decimal.NewFromInt(1000), uuid.New(), allocBase)
	require.NoError(t, err)

	optional, err := model.NewInstallment(
		plan.ID(), uuid.New(),
		2, "club membership",
		valueobject.MilestonePossession,
		decimal.NewFromInt(1000), allocBase.AddDate(0, 0, 60), 5, true,
		allocBase,
	)
	require.NoError(t, err)
	optional, err = optional.Waive(uuid.New(), "goodwill", allocBase)
	require.NoError(t, err)

	summary := service.DeriveSummary([]model.Installment{kept, optional}, nil, allocBase)

	// The written-off balance is no longer receivable, so the plan can
	// complete.
	assert.True(t, decimal.NewFromInt(1000).Equal(summary.TotalPaid))
	assert.True(t, summary.TotalOutstanding.IsZero())
	assert.True(t, summary.TotalOverdue.IsZero())

	completed := plan.WithSummary(summary, allocBase)
	assert.Equal(t, valueobject.PlanStatusCompleted, completed.Status())
}
