package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/propvantage/receivables-service/internal/domain/event"
	"github.com/propvantage/receivables-service/internal/domain/valueobject"
	"github.com/propvantage/receivables-service/pkg/events"
)

// AmountBreakdown is the charge composition a plan's total is derived from.
type AmountBreakdown struct {
	BasePrice         decimal.Decimal `json:"base_price"`
	Taxes             decimal.Decimal `json:"taxes"`
	AdditionalCharges decimal.Decimal `json:"additional_charges"`
	Discounts         decimal.Decimal `json:"discounts"`
}

// Total returns basePrice + taxes + additionalCharges - discounts.
func (b AmountBreakdown) Total() decimal.Decimal {
	return b.BasePrice.Add(b.Taxes).Add(b.AdditionalCharges).Sub(b.Discounts)
}

// PlanTerms are the payment terms applied to every installment of a plan.
type PlanTerms struct {
	GracePeriodDays     int             `json:"grace_period_days"`
	LateFeeRatePerMonth decimal.Decimal `json:"late_fee_rate_per_month"`
	InterestRate        decimal.Decimal `json:"interest_rate"`
	// CompoundInterest is persisted for forward compatibility; the late-fee
	// formula is always simple and never branches on it.
	CompoundInterest bool `json:"compound_interest"`
}

// FinancialSummary is the derived cache of a plan's financial position. It is
// always recomputed from the installment and transaction sets, never mutated
// independently.
type FinancialSummary struct {
	TotalPaid         decimal.Decimal `json:"total_paid"`
	TotalOutstanding  decimal.Decimal `json:"total_outstanding"`
	TotalOverdue      decimal.Decimal `json:"total_overdue"`
	TotalLateFees     decimal.Decimal `json:"total_late_fees"`
	NextDueAmount     decimal.Decimal `json:"next_due_amount"`
	NextDueDate       *time.Time      `json:"next_due_date,omitempty"`
	LastPaymentDate   *time.Time      `json:"last_payment_date,omitempty"`
	LastPaymentAmount decimal.Decimal `json:"last_payment_amount"`
}

// Equal compares two summaries field by field.
func (s FinancialSummary) Equal(o FinancialSummary) bool {
	return s.TotalPaid.Equal(o.TotalPaid) &&
		s.TotalOutstanding.Equal(o.TotalOutstanding) &&
		s.TotalOverdue.Equal(o.TotalOverdue) &&
		s.TotalLateFees.Equal(o.TotalLateFees) &&
		s.NextDueAmount.Equal(o.NextDueAmount) &&
		equalTimePtr(s.NextDueDate, o.NextDueDate) &&
		equalTimePtr(s.LastPaymentDate, o.LastPaymentDate) &&
		s.LastPaymentAmount.Equal(o.LastPaymentAmount)
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// ZeroSummary returns a summary with all amounts initialized to zero.
func ZeroSummary() FinancialSummary {
	return FinancialSummary{
		TotalPaid:         decimal.Zero,
		TotalOutstanding:  decimal.Zero,
		TotalOverdue:      decimal.Zero,
		TotalLateFees:     decimal.Zero,
		NextDueAmount:     decimal.Zero,
		LastPaymentAmount: decimal.Zero,
	}
}

// ModificationEntry is an audit record of a plan-level change.
type ModificationEntry struct {
	UserID uuid.UUID `json:"user_id"`
	Change string    `json:"change"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

// PaymentPlan is the aggregate root for one sale's receivables schedule.
// It is immutable; mutations return a new copy.
type PaymentPlan struct {
	id              uuid.UUID
	tenantID        uuid.UUID
	saleID          uuid.UUID
	customerID      uuid.UUID
	currency        string
	totalAmount     decimal.Decimal
	baseAmount      decimal.Decimal
	breakdown       AmountBreakdown
	terms           PlanTerms
	status          valueobject.PlanStatus
	summary         FinancialSummary
	history         []ModificationEntry
	resweepRequired bool
	version         int
	createdAt       time.Time
	updatedAt       time.Time
	domainEvents    []events.DomainEvent
}

// NewPaymentPlan creates a plan for a sale. The total is always derived from
// the full charge breakdown, never from a raw sale price.
func NewPaymentPlan(
	tenantID, saleID, customerID uuid.UUID,
	currency string,
	breakdown AmountBreakdown,
	terms PlanTerms,
	now time.Time,
) (PaymentPlan, error) {
	if tenantID == uuid.Nil {
		return PaymentPlan{}, errors.New("tenant ID is required")
	}
	if saleID == uuid.Nil {
		return PaymentPlan{}, errors.New("sale ID is required")
	}
	if customerID == uuid.Nil {
		return PaymentPlan{}, errors.New("customer ID is required")
	}
	if currency == "" {
		currency = "INR"
	}
	total := breakdown.Total().Round(2)
	if total.LessThanOrEqual(decimal.Zero) {
		return PaymentPlan{}, errors.New("plan total must be positive")
	}
	if terms.GracePeriodDays < 0 {
		return PaymentPlan{}, errors.New("grace period days must not be negative")
	}
	if terms.LateFeeRatePerMonth.IsNegative() {
		return PaymentPlan{}, errors.New("late fee rate must not be negative")
	}

	id := uuid.New()
	plan := PaymentPlan{
		id:          id,
		tenantID:    tenantID,
		saleID:      saleID,
		customerID:  customerID,
		currency:    currency,
		totalAmount: total,
		baseAmount:  breakdown.BasePrice,
		breakdown:   breakdown,
		terms:       terms,
		status:      valueobject.PlanStatusActive,
		summary:     ZeroSummary(),
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}
	plan.summary.TotalOutstanding = total
	plan.summary.NextDueAmount = decimal.Zero

	plan.domainEvents = append(plan.domainEvents,
		event.NewPlanCreated(id, tenantID, saleID, customerID, total, currency),
	)
	return plan, nil
}

// ReconstructPaymentPlan rebuilds a plan from persistence without validation
// or events.
func ReconstructPaymentPlan(
	id, tenantID, saleID, customerID uuid.UUID,
	currency string,
	totalAmount, baseAmount decimal.Decimal,
	breakdown AmountBreakdown,
	terms PlanTerms,
	status valueobject.PlanStatus,
	summary FinancialSummary,
	history []ModificationEntry,
	resweepRequired bool,
	version int,
	createdAt, updatedAt time.Time,
) PaymentPlan {
	return PaymentPlan{
		id:              id,
		tenantID:        tenantID,
		saleID:          saleID,
		customerID:      customerID,
		currency:        currency,
		totalAmount:     totalAmount,
		baseAmount:      baseAmount,
		breakdown:       breakdown,
		terms:           terms,
		status:          status,
		summary:         summary,
		history:         history,
		resweepRequired: resweepRequired,
		version:         version,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// WithSummary returns a copy carrying a freshly derived financial summary.
// When the summary shows nothing outstanding the plan completes.
func (p PaymentPlan) WithSummary(summary FinancialSummary, now time.Time) PaymentPlan {
	next := p
	next.summary = summary
	next.updatedAt = now
	next.domainEvents = copyEvents(p.domainEvents)

	if p.status == valueobject.PlanStatusActive && summary.TotalOutstanding.IsZero() {
		next.status = valueobject.PlanStatusCompleted
		next.domainEvents = append(next.domainEvents, event.NewPlanCompleted(p.id, p.tenantID, now))
	}
	return next
}

// AddModification appends a plan-level audit entry. It has no effect on any
// financial field.
func (p PaymentPlan) AddModification(userID uuid.UUID, change, reason string, now time.Time) PaymentPlan {
	next := p
	next.history = append(copyHistory(p.history), ModificationEntry{
		UserID: userID,
		Change: change,
		Reason: reason,
		At:     now,
	})
	next.updatedAt = now
	next.domainEvents = copyEvents(p.domainEvents)
	return next
}

// Cancel transitions the plan to CANCELLED.
func (p PaymentPlan) Cancel(now time.Time) (PaymentPlan, error) {
	if p.status.IsTerminal() {
		return p, ErrPlanTerminal
	}
	next := p
	next.status = valueobject.PlanStatusCancelled
	next.updatedAt = now
	next.domainEvents = copyEvents(p.domainEvents)
	return next, nil
}

// MarkDefaulted transitions an active plan to DEFAULTED.
func (p PaymentPlan) MarkDefaulted(now time.Time) (PaymentPlan, error) {
	if p.status != valueobject.PlanStatusActive {
		return p, ErrPlanTerminal
	}
	next := p
	next.status = valueobject.PlanStatusDefaulted
	next.updatedAt = now
	next.domainEvents = copyEvents(p.domainEvents)
	return next, nil
}

// FlagForResweep marks the plan for an out-of-band recalculation after a
// partially failed sweep. The summary is left untouched.
func (p PaymentPlan) FlagForResweep(now time.Time) PaymentPlan {
	next := p
	next.resweepRequired = true
	next.updatedAt = now
	next.domainEvents = copyEvents(p.domainEvents)
	return next
}

// ClearResweep clears the re-sweep flag after a fully successful sweep.
func (p PaymentPlan) ClearResweep(now time.Time) PaymentPlan {
	next := p
	next.resweepRequired = false
	next.updatedAt = now
	next.domainEvents = copyEvents(p.domainEvents)
	return next
}

// BumpVersion increments the optimistic-concurrency version before a save.
func (p PaymentPlan) BumpVersion() PaymentPlan {
	next := p
	next.version++
	return next
}

// Accessors.

func (p PaymentPlan) ID() uuid.UUID                  { return p.id }
func (p PaymentPlan) TenantID() uuid.UUID            { return p.tenantID }
func (p PaymentPlan) SaleID() uuid.UUID              { return p.saleID }
func (p PaymentPlan) CustomerID() uuid.UUID          { return p.customerID }
func (p PaymentPlan) Currency() string               { return p.currency }
func (p PaymentPlan) TotalAmount() decimal.Decimal   { return p.totalAmount }
func (p PaymentPlan) BaseAmount() decimal.Decimal    { return p.baseAmount }
func (p PaymentPlan) Breakdown() AmountBreakdown     { return p.breakdown }
func (p PaymentPlan) Terms() PlanTerms               { return p.terms }
func (p PaymentPlan) Status() valueobject.PlanStatus { return p.status }
func (p PaymentPlan) Summary() FinancialSummary      { return p.summary }
func (p PaymentPlan) ResweepRequired() bool          { return p.resweepRequired }
func (p PaymentPlan) Version() int                   { return p.version }
func (p PaymentPlan) CreatedAt() time.Time           { return p.createdAt }
func (p PaymentPlan) UpdatedAt() time.Time           { return p.updatedAt }

// History returns a defensive copy of the modification history.
func (p PaymentPlan) History() []ModificationEntry {
	return copyHistory(p.history)
}

// DomainEvents returns the accumulated domain events.
func (p PaymentPlan) DomainEvents() []events.DomainEvent { return p.domainEvents }

// ClearEvents returns a copy with an empty event list.
func (p PaymentPlan) ClearEvents() PaymentPlan {
	next := p
	next.domainEvents = nil
	return next
}

// CompletionPercent returns paid/total as a percentage, computed on read.
func (p PaymentPlan) CompletionPercent() decimal.Decimal {
	if p.totalAmount.IsZero() {
		return decimal.Zero
	}
	return p.summary.TotalPaid.Div(p.totalAmount).Mul(oneHundred).Round(2)
}

func copyEvents(in []events.DomainEvent) []events.DomainEvent {
	if in == nil {
		return nil
	}
	out := make([]events.DomainEvent, len(in))
	copy(out, in)
	return out
}

func copyHistory(in []ModificationEntry) []ModificationEntry {
	if in == nil {
		return nil
	}
	out := make([]ModificationEntry, len(in))
	copy(out, in)
	return out
}
