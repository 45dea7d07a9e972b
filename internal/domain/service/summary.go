package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/propvantage/receivables-service/internal/domain/model"
)

// DeriveSummary recomputes a plan's financial summary from its installments
// and transactions. It is a pure function of its inputs; running it twice
// over unchanged state yields an equal summary.
func DeriveSummary(installments []model.Installment, transactions []model.PaymentTransaction, now time.Time) model.FinancialSummary {
	summary := model.ZeroSummary()

	for _, inst := range installments {
		summary.TotalPaid = summary.TotalPaid.Add(inst.PaidAmount())
		summary.TotalLateFees = summary.TotalLateFees.Add(inst.LateFeeAccrued())
		if inst.Status().IsTerminal() {
			// Waived and cancelled lines carry no receivable.
			continue
		}
		summary.TotalOutstanding = summary.TotalOutstanding.Add(inst.PendingAmount())
		if inst.IsOverdue(now) {
			summary.TotalOverdue = summary.TotalOverdue.Add(inst.PendingAmount())
		}
	}

	if next, ok := nextUnpaid(installments); ok {
		summary.NextDueAmount = next.PendingAmount()
		due := next.CurrentDueDate()
		summary.NextDueDate = &due
	}

	if last, ok := lastCountedPayment(transactions); ok {
		summary.LastPaymentAmount = last.Amount()
		at := last.PaymentDate()
		summary.LastPaymentDate = &at
	}

	return summary
}

// nextUnpaid returns the allocatable installment with the earliest due date
// that still has a pending balance.
func nextUnpaid(installments []model.Installment) (model.Installment, bool) {
	var best model.Installment
	found := false
	for _, inst := range installments {
		if !inst.Status().IsAllocatable() || inst.PendingAmount().LessThanOrEqual(decimal.Zero) {
			continue
		}
		if !found ||
			inst.CurrentDueDate().Before(best.CurrentDueDate()) ||
			(inst.CurrentDueDate().Equal(best.CurrentDueDate()) && inst.Number() < best.Number()) {
			best = inst
			found = true
		}
	}
	return best, found
}

// lastCountedPayment returns the transaction with the latest payment date
// among those whose status counts toward the paid total.
func lastCountedPayment(transactions []model.PaymentTransaction) (model.PaymentTransaction, bool) {
	var best model.PaymentTransaction
	found := false
	for _, txn := range transactions {
		if !txn.Status().CountsTowardPaid() {
			continue
		}
		if !found || txn.PaymentDate().After(best.PaymentDate()) {
			best = txn
			found = true
		}
	}
	return best, found
}
