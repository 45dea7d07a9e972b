// Package service holds stateless domain services that operate across the
// receivables aggregates.
package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/propvantage/receivables-service/internal/domain/model"
)

// AllocationEngine decides how a transaction's amount is split across a
// plan's installments and pushes the resulting amounts onto them.
type AllocationEngine struct{}

// NewAllocationEngine creates an AllocationEngine.
func NewAllocationEngine() *AllocationEngine {
	return &AllocationEngine{}
}

// AutoAllocate splits amount across the allocatable installments in due-date
// order, oldest first, filling each installment's pending balance before
// moving to the next. Any remainder beyond the total pending stays
// unallocated on the transaction.
func (e *AllocationEngine) AutoAllocate(amount decimal.Decimal, installments []model.Installment) []model.Allocation {
	open := make([]model.Installment, 0, len(installments))
	for _, inst := range installments {
		if inst.Status().IsAllocatable() && inst.PendingAmount().GreaterThan(decimal.Zero) {
			open = append(open, inst)
		}
	}
	sort.Slice(open, func(a, b int) bool {
		if !open[a].CurrentDueDate().Equal(open[b].CurrentDueDate()) {
			return open[a].CurrentDueDate().Before(open[b].CurrentDueDate())
		}
		return open[a].Number() < open[b].Number()
	})

	remaining := amount
	var allocations []model.Allocation
	for _, inst := range open {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		portion := decimal.Min(remaining, inst.PendingAmount())
		allocations = append(allocations, model.Allocation{
			InstallmentID: inst.ID(),
			Amount:        portion,
			Type:          model.AllocationAuto,
		})
		remaining = remaining.Sub(portion)
	}
	return allocations
}

// Apply records each allocation against its installment and returns the
// updated installments. Installments not touched by any allocation are
// returned unchanged.
func (e *AllocationEngine) Apply(allocations []model.Allocation, installments []model.Installment, transactionID uuid.UUID, now time.Time) ([]model.Installment, error) {
	byID := indexInstallments(installments)
	for _, alloc := range allocations {
		idx, ok := byID[alloc.InstallmentID]
		if !ok {
			return nil, fmt.Errorf("allocation targets unknown installment %s", alloc.InstallmentID)
		}
		updated, err := installments[idx].RecordPayment(alloc.Amount, transactionID, now)
		if err != nil {
			return nil, fmt.Errorf("allocate %s to installment %d: %w", alloc.Amount, installments[idx].Number(), err)
		}
		installments[idx] = updated
	}
	return installments, nil
}

// Rescale recomputes a transaction's allocations after its amount changed
// from oldAmount to newAmount, scaling each allocation proportionally. The
// last allocation absorbs the rounding remainder so the rescaled total is
// exact. Deltas are pushed onto the installments, upward deltas capped at
// each installment's pending balance.
func (e *AllocationEngine) Rescale(
	allocations []model.Allocation,
	oldAmount, newAmount decimal.Decimal,
	installments []model.Installment,
	now time.Time,
) ([]model.Allocation, []model.Installment, error) {
	if len(allocations) == 0 || oldAmount.IsZero() {
		return allocations, installments, nil
	}

	oldTotal := decimal.Zero
	for _, a := range allocations {
		oldTotal = oldTotal.Add(a.Amount)
	}
	factor := newAmount.Div(oldAmount)
	targetTotal := oldTotal.Mul(factor).Round(2)

	rescaled := make([]model.Allocation, len(allocations))
	assigned := decimal.Zero
	for i, a := range allocations {
		next := a
		if i == len(allocations)-1 {
			next.Amount = targetTotal.Sub(assigned)
		} else {
			next.Amount = a.Amount.Mul(factor).Round(2)
		}
		assigned = assigned.Add(next.Amount)
		rescaled[i] = next
	}

	byID := indexInstallments(installments)
	out := make([]model.Allocation, 0, len(rescaled))
	for i, next := range rescaled {
		idx, ok := byID[next.InstallmentID]
		if !ok {
			return nil, nil, fmt.Errorf("allocation targets unknown installment %s", next.InstallmentID)
		}
		delta := next.Amount.Sub(allocations[i].Amount)
		switch {
		case delta.GreaterThan(decimal.Zero):
			applied := decimal.Min(delta, installments[idx].PendingAmount())
			if applied.GreaterThan(decimal.Zero) {
				updated, err := installments[idx].RecordPayment(applied, uuid.Nil, now)
				if err != nil {
					return nil, nil, fmt.Errorf("rescale installment %d: %w", installments[idx].Number(), err)
				}
				installments[idx] = updated
			}
			next.Amount = allocations[i].Amount.Add(applied)
		case delta.LessThan(decimal.Zero):
			updated, err := installments[idx].ReversePayment(delta.Neg(), now)
			if err != nil {
				return nil, nil, fmt.Errorf("rescale installment %d: %w", installments[idx].Number(), err)
			}
			installments[idx] = updated
		}
		if next.Amount.GreaterThan(decimal.Zero) {
			out = append(out, next)
		}
	}
	return out, installments, nil
}

// Reverse undoes every allocation of a transaction against its installments,
// used when a payment bounces or is refunded.
func (e *AllocationEngine) Reverse(allocations []model.Allocation, installments []model.Installment, now time.Time) ([]model.Installment, error) {
	byID := indexInstallments(installments)
	for _, alloc := range allocations {
		idx, ok := byID[alloc.InstallmentID]
		if !ok {
			return nil, fmt.Errorf("allocation targets unknown installment %s", alloc.InstallmentID)
		}
		updated, err := installments[idx].ReversePayment(alloc.Amount, now)
		if err != nil {
			return nil, fmt.Errorf("reverse %s from installment %d: %w", alloc.Amount, installments[idx].Number(), err)
		}
		installments[idx] = updated
	}
	return installments, nil
}

func indexInstallments(installments []model.Installment) map[uuid.UUID]int {
	byID := make(map[uuid.UUID]int, len(installments))
	for i, inst := range installments {
		byID[inst.ID()] = i
	}
	return byID
}
