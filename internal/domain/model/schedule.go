package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GenerateSchedule builds the installment set for a plan from a template.
//
// Each line's amount is round(total * percentage / 100, 2); the final line
// absorbs the rounding remainder so the schedule sums exactly to the plan
// total. Due dates for TIME_BASED milestones accumulate on a running clock
// from the booking date; every other milestone type offsets from the booking
// date directly.
func GenerateSchedule(
	planID, tenantID uuid.UUID,
	totalAmount decimal.Decimal,
	tmpl PlanTemplate,
	bookingDate time.Time,
	gracePeriodDays int,
	now time.Time,
) ([]Installment, error) {
	if err := tmpl.Validate(); err != nil {
		return nil, fmt.Errorf("invalid template %q: %w", tmpl.Name(), err)
	}
	if totalAmount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("plan total must be positive, got %s", totalAmount)
	}

	lines := tmpl.Lines()
	installments := make([]Installment, 0, len(lines))

	allocated := decimal.Zero
	runningDate := bookingDate

	for idx, line := range lines {
		var amount decimal.Decimal
		if idx == len(lines)-1 {
			// Last line: absorb the rounding remainder.
			amount = totalAmount.Sub(allocated)
		} else {
			amount = totalAmount.Mul(line.Percentage).Div(oneHundred).Round(2)
		}
		allocated = allocated.Add(amount)

		var dueDate time.Time
		if line.Milestone.IsCumulative() {
			runningDate = runningDate.AddDate(0, 0, line.DueAfterDays)
			dueDate = runningDate
		} else {
			dueDate = bookingDate.AddDate(0, 0, line.DueAfterDays)
		}

		inst, err := NewInstallment(
			planID, tenantID,
			line.Number,
			line.Description,
			line.Milestone,
			amount,
			dueDate,
			gracePeriodDays,
			line.Optional,
			now,
		)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line.Number, err)
		}
		installments = append(installments, inst)
	}

	return installments, nil
}
