// Package usecase implements the application operations of the receivables
// ledger. Each use case runs its writes inside a single unit of work so plan,
// installment, transaction, and outbox rows commit or roll back together.
package usecase

import (
	"context"
	"fmt"

	"github.com/propvantage/receivables-service/internal/application/dto"
	"github.com/propvantage/receivables-service/internal/domain/model"
	"github.com/propvantage/receivables-service/internal/domain/port"
	"github.com/propvantage/receivables-service/pkg/events"
)

// LedgerTopic is the Kafka topic all ledger events are published to.
const LedgerTopic = "receivables.ledger"

func toInstallmentResponse(inst model.Installment) dto.InstallmentResponse {
	return dto.InstallmentResponse{
		ID:             inst.ID(),
		Number:         inst.Number(),
		Description:    inst.Description(),
		Milestone:      inst.Milestone().String(),
		OriginalAmount: inst.OriginalAmount(),
		CurrentAmount:  inst.CurrentAmount(),
		PaidAmount:     inst.PaidAmount(),
		PendingAmount:  inst.PendingAmount(),
		LateFeeAccrued: inst.LateFeeAccrued(),
		DueDate:        inst.CurrentDueDate(),
		GraceEndDate:   inst.GracePeriodEndDate(),
		Status:         inst.Status().String(),
		Waivable:       inst.Waivable(),
	}
}

func toSummaryResponse(plan model.PaymentPlan) dto.FinancialSummaryResponse {
	s := plan.Summary()
	return dto.FinancialSummaryResponse{
		TotalPaid:         s.TotalPaid,
		TotalOutstanding:  s.TotalOutstanding,
		TotalOverdue:      s.TotalOverdue,
		TotalLateFees:     s.TotalLateFees,
		NextDueAmount:     s.NextDueAmount,
		NextDueDate:       s.NextDueDate,
		LastPaymentDate:   s.LastPaymentDate,
		LastPaymentAmount: s.LastPaymentAmount,
		CompletionPercent: plan.CompletionPercent(),
	}
}

func toPlanResponse(plan model.PaymentPlan, installments []model.Installment) dto.PaymentPlanResponse {
	resp := dto.PaymentPlanResponse{
		ID:          plan.ID(),
		TenantID:    plan.TenantID(),
		SaleID:      plan.SaleID(),
		CustomerID:  plan.CustomerID(),
		Currency:    plan.Currency(),
		TotalAmount: plan.TotalAmount(),
		Status:      plan.Status().String(),
		Summary:     toSummaryResponse(plan),
		CreatedAt:   plan.CreatedAt(),
	}
	for _, inst := range installments {
		resp.Installments = append(resp.Installments, toInstallmentResponse(inst))
	}
	return resp
}

func toTransactionResponse(txn model.PaymentTransaction) dto.TransactionResponse {
	resp := dto.TransactionResponse{
		ID:            txn.ID(),
		PlanID:        txn.PlanID(),
		Amount:        txn.Amount(),
		PaymentDate:   txn.PaymentDate(),
		Method:        txn.Method().String(),
		Status:        txn.Status().String(),
		Reference:     txn.Reference(),
		ReceiptNumber: txn.ReceiptNumber(),
		Unallocated:   txn.UnallocatedAmount(),
	}
	for _, alloc := range txn.Allocations() {
		resp.Allocations = append(resp.Allocations, dto.AllocationResponse{
			InstallmentID: alloc.InstallmentID,
			Amount:        alloc.Amount,
			Type:          alloc.Type,
		})
	}
	return resp
}

// stageEvents writes domain events to the outbox within the current unit of
// work.
func stageEvents(ctx context.Context, repos port.Repositories, evts []events.DomainEvent) error {
	if len(evts) == 0 {
		return nil
	}
	entries := make([]events.OutboxEntry, 0, len(evts))
	for _, evt := range evts {
		entries = append(entries, events.NewOutboxEntry(evt))
	}
	if err := repos.Outbox.Store(ctx, entries); err != nil {
		return fmt.Errorf("store outbox entries: %w", err)
	}
	return nil
}
