package model

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/propvantage/receivables-service/internal/domain/event"
	"github.com/propvantage/receivables-service/internal/domain/valueobject"
	"github.com/propvantage/receivables-service/pkg/events"
)

// Adjustment is an audit record appended before any amount or date edit.
type Adjustment struct {
	Type           string          `json:"type"` // "amount", "due_date", "waiver", "charge"
	OriginalAmount decimal.Decimal `json:"original_amount"`
	NewAmount      decimal.Decimal `json:"new_amount"`
	Delta          decimal.Decimal `json:"delta"`
	OriginalDate   *time.Time      `json:"original_date,omitempty"`
	NewDate        *time.Time      `json:"new_date,omitempty"`
	Reason         string          `json:"reason"`
	UserID         uuid.UUID       `json:"user_id"`
	At             time.Time       `json:"at"`
}

// Charge is an additional amount added to an installment after creation.
type Charge struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
	UserID uuid.UUID       `json:"user_id"`
	At     time.Time       `json:"at"`
}

// Installment is one scheduled receivable line within a payment plan.
// It is immutable; mutations return a new copy.
type Installment struct {
	id                 uuid.UUID
	planID             uuid.UUID
	tenantID           uuid.UUID
	number             int
	description        string
	milestone          valueobject.MilestoneType
	originalAmount     decimal.Decimal
	currentAmount      decimal.Decimal
	paidAmount         decimal.Decimal
	lateFeeAccrued     decimal.Decimal
	lateFeeUpdatedAt   *time.Time
	originalDueDate    time.Time
	currentDueDate     time.Time
	gracePeriodEndDate time.Time
	status             valueobject.InstallmentStatus
	lateFeeApplicable  bool
	waivable           bool
	adjustments        []Adjustment
	charges            []Charge
	transactionIDs     []uuid.UUID
	firstPaymentAt     *time.Time
	lastPaymentAt      *time.Time
	version            int
	createdAt          time.Time
	updatedAt          time.Time
	domainEvents       []events.DomainEvent
}

// NewInstallment creates one schedule line. Callers normally go through
// GenerateSchedule rather than constructing lines directly.
func NewInstallment(
	planID, tenantID uuid.UUID,
	number int,
	description string,
	milestone valueobject.MilestoneType,
	amount decimal.Decimal,
	dueDate time.Time,
	gracePeriodDays int,
	waivable bool,
	now time.Time,
) (Installment, error) {
	if planID == uuid.Nil {
		return Installment{}, errors.New("plan ID is required")
	}
	if amount.IsNegative() {
		return Installment{}, errors.New("installment amount must not be negative")
	}
	graceEnd := dueDate.AddDate(0, 0, gracePeriodDays)

	inst := Installment{
		id:                 uuid.New(),
		planID:             planID,
		tenantID:           tenantID,
		number:             number,
		description:        description,
		milestone:          milestone,
		originalAmount:     amount,
		currentAmount:      amount,
		paidAmount:         decimal.Zero,
		lateFeeAccrued:     decimal.Zero,
		originalDueDate:    dueDate,
		currentDueDate:     dueDate,
		gracePeriodEndDate: graceEnd,
		lateFeeApplicable:  true,
		waivable:           waivable,
		version:            1,
		createdAt:          now,
		updatedAt:          now,
	}
	inst.status = DeriveInstallmentStatus(inst.paidAmount, inst.currentAmount, now, dueDate, graceEnd)
	return inst, nil
}

// ReconstructInstallment rebuilds an installment from persistence.
func ReconstructInstallment(
	id, planID, tenantID uuid.UUID,
	number int,
	description string,
	milestone valueobject.MilestoneType,
	originalAmount, currentAmount, paidAmount, lateFeeAccrued decimal.Decimal,
	lateFeeUpdatedAt *time.Time,
	originalDueDate, currentDueDate, gracePeriodEndDate time.Time,
	status valueobject.InstallmentStatus,
	lateFeeApplicable, waivable bool,
	adjustments []Adjustment,
	charges []Charge,
	transactionIDs []uuid.UUID,
	firstPaymentAt, lastPaymentAt *time.Time,
	version int,
	createdAt, updatedAt time.Time,
) Installment {
	return Installment{
		id:                 id,
		planID:             planID,
		tenantID:           tenantID,
		number:             number,
		description:        description,
		milestone:          milestone,
		originalAmount:     originalAmount,
		currentAmount:      currentAmount,
		paidAmount:         paidAmount,
		lateFeeAccrued:     lateFeeAccrued,
		lateFeeUpdatedAt:   lateFeeUpdatedAt,
		originalDueDate:    originalDueDate,
		currentDueDate:     currentDueDate,
		gracePeriodEndDate: gracePeriodEndDate,
		status:             status,
		lateFeeApplicable:  lateFeeApplicable,
		waivable:           waivable,
		adjustments:        adjustments,
		charges:            charges,
		transactionIDs:     transactionIDs,
		firstPaymentAt:     firstPaymentAt,
		lastPaymentAt:      lastPaymentAt,
		version:            version,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}

// DeriveInstallmentStatus is the single derivation path for installment
// status. Terminal WAIVED/CANCELLED states are handled by their methods and
// never pass through here.
func DeriveInstallmentStatus(
	paid, current decimal.Decimal,
	now, dueDate, graceEnd time.Time,
) valueobject.InstallmentStatus {
	switch {
	case paid.GreaterThanOrEqual(current) && current.GreaterThan(decimal.Zero):
		return valueobject.InstallmentStatusPaid
	case current.IsZero() && paid.GreaterThanOrEqual(current):
		// Zero-amount lines are trivially settled.
		return valueobject.InstallmentStatusPaid
	case paid.GreaterThan(decimal.Zero):
		return valueobject.InstallmentStatusPartiallyPaid
	case now.After(graceEnd):
		return valueobject.InstallmentStatusOverdue
	case !now.Before(dueDate):
		return valueobject.InstallmentStatusDue
	default:
		return valueobject.InstallmentStatusPending
	}
}

// refreshStatus re-derives the status unless the installment was explicitly
// terminated.
func (i *Installment) refreshStatus(now time.Time) {
	if i.status.IsTerminal() {
		return
	}
	i.status = DeriveInstallmentStatus(i.paidAmount, i.currentAmount, now, i.currentDueDate, i.gracePeriodEndDate)
}

// PendingAmount returns max(0, currentAmount - paidAmount). It is always
// computed, never stored, so it cannot drift.
func (i Installment) PendingAmount() decimal.Decimal {
	pending := i.currentAmount.Sub(i.paidAmount)
	if pending.IsNegative() {
		return decimal.Zero
	}
	return pending
}

// RecordPayment applies an allocated amount from a transaction. The caller is
// responsible for not over-allocating; amounts beyond the pending balance are
// rejected, not clamped.
func (i Installment) RecordPayment(amount decimal.Decimal, transactionID uuid.UUID, now time.Time) (Installment, error) {
	if i.status.IsTerminal() {
		return i, ErrInvalidAdjustment
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return i, errors.New("payment amount must be positive")
	}
	if amount.GreaterThan(i.PendingAmount()) {
		return i, ErrOverAllocation
	}

	next := i
	next.paidAmount = i.paidAmount.Add(amount)
	next.transactionIDs = appendUniqueID(copyIDs(i.transactionIDs), transactionID)
	if next.firstPaymentAt == nil {
		t := now
		next.firstPaymentAt = &t
	}
	t := now
	next.lastPaymentAt = &t
	next.updatedAt = now
	next.domainEvents = copyEvents(i.domainEvents)
	next.refreshStatus(now)
	return next, nil
}

// ReversePayment removes a previously applied allocation, e.g. for a refund
// or a downward rescale. The transaction link is kept as audit history; only
// the amounts reverse. Reversing more than was applied is an error.
func (i Installment) ReversePayment(amount decimal.Decimal, now time.Time) (Installment, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return i, errors.New("reversal amount must be positive")
	}
	if amount.GreaterThan(i.paidAmount) {
		return i, errors.New("reversal exceeds paid amount")
	}

	next := i
	next.paidAmount = i.paidAmount.Sub(amount)
	next.updatedAt = now
	next.domainEvents = copyEvents(i.domainEvents)
	next.refreshStatus(now)
	return next, nil
}

// AccrueLateFee recomputes the late fee when past the grace period:
// pending * rate * ceil(daysOverdue/30) / 100. The accrued fee only ever
// increases; a smaller recomputation leaves it untouched. Returns the
// (possibly unchanged) installment and whether the fee grew.
func (i Installment) AccrueLateFee(ratePerMonth decimal.Decimal, now time.Time) (Installment, bool) {
	if !i.lateFeeApplicable || i.status.IsTerminal() || i.status == valueobject.InstallmentStatusPaid {
		return i, false
	}
	if !now.After(i.gracePeriodEndDate) || ratePerMonth.LessThanOrEqual(decimal.Zero) {
		return i, false
	}
	pending := i.PendingAmount()
	if pending.LessThanOrEqual(decimal.Zero) {
		return i, false
	}

	daysOverdue := now.Sub(i.gracePeriodEndDate).Hours() / 24
	monthsOverdue := int64(math.Ceil(daysOverdue / 30))
	if monthsOverdue < 1 {
		monthsOverdue = 1
	}

	fee := pending.
		Mul(ratePerMonth).
		Mul(decimal.NewFromInt(monthsOverdue)).
		Div(oneHundred).
		Round(2)

	if fee.LessThanOrEqual(i.lateFeeAccrued) {
		return i, false
	}

	next := i
	next.lateFeeAccrued = fee
	t := now
	next.lateFeeUpdatedAt = &t
	next.updatedAt = now
	next.domainEvents = copyEvents(i.domainEvents)
	return next, true
}

// UpdateAmount changes the current amount, appending an adjustment record
// before the mutation.
func (i Installment) UpdateAmount(newAmount decimal.Decimal, userID uuid.UUID, reason string, now time.Time) (Installment, error) {
	if newAmount.IsNegative() {
		return i, ErrInvalidAdjustment
	}
	if i.status.IsTerminal() {
		return i, ErrInvalidAdjustment
	}

	next := i
	next.adjustments = append(copyAdjustments(i.adjustments), Adjustment{
		Type:           "amount",
		OriginalAmount: i.currentAmount,
		NewAmount:      newAmount,
		Delta:          newAmount.Sub(i.currentAmount),
		Reason:         reason,
		UserID:         userID,
		At:             now,
	})
	next.currentAmount = newAmount
	next.updatedAt = now
	next.domainEvents = copyEvents(i.domainEvents)
	next.refreshStatus(now)
	return next, nil
}

// UpdateDueDate moves the due date and recomputes the grace period end.
func (i Installment) UpdateDueDate(newDate time.Time, userID uuid.UUID, reason string, gracePeriodDays int, now time.Time) (Installment, error) {
	if i.status.IsTerminal() {
		return i, ErrInvalidAdjustment
	}
	if newDate.IsZero() {
		return i, ErrInvalidAdjustment
	}

	oldDate := i.currentDueDate
	next := i
	next.adjustments = append(copyAdjustments(i.adjustments), Adjustment{
		Type:           "due_date",
		OriginalAmount: i.currentAmount,
		NewAmount:      i.currentAmount,
		Delta:          decimal.Zero,
		OriginalDate:   &oldDate,
		NewDate:        &newDate,
		Reason:         reason,
		UserID:         userID,
		At:             now,
	})
	next.currentDueDate = newDate
	next.gracePeriodEndDate = newDate.AddDate(0, 0, gracePeriodDays)
	next.updatedAt = now
	next.domainEvents = copyEvents(i.domainEvents)
	next.refreshStatus(now)
	return next, nil
}

// AddCharge appends an additional charge and raises the current amount.
func (i Installment) AddCharge(label string, amount decimal.Decimal, userID uuid.UUID, now time.Time) (Installment, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return i, ErrInvalidAdjustment
	}
	if i.status.IsTerminal() {
		return i, ErrInvalidAdjustment
	}

	next := i
	next.charges = append(copyCharges(i.charges), Charge{
		Label:  label,
		Amount: amount,
		UserID: userID,
		At:     now,
	})
	next.adjustments = append(copyAdjustments(i.adjustments), Adjustment{
		Type:           "charge",
		OriginalAmount: i.currentAmount,
		NewAmount:      i.currentAmount.Add(amount),
		Delta:          amount,
		Reason:         label,
		UserID:         userID,
		At:             now,
	})
	next.currentAmount = i.currentAmount.Add(amount)
	next.updatedAt = now
	next.domainEvents = copyEvents(i.domainEvents)
	next.refreshStatus(now)
	return next, nil
}

// Waive writes off the pending balance: currentAmount collapses to the paid
// amount and the installment terminates as WAIVED.
func (i Installment) Waive(userID uuid.UUID, reason string, now time.Time) (Installment, error) {
	if !i.waivable || i.status.IsTerminal() || i.status == valueobject.InstallmentStatusPaid {
		return i, ErrNotWaivable
	}

	writeOff := i.PendingAmount()
	next := i
	next.adjustments = append(copyAdjustments(i.adjustments), Adjustment{
		Type:           "waiver",
		OriginalAmount: i.currentAmount,
		NewAmount:      i.paidAmount,
		Delta:          writeOff.Neg(),
		Reason:         reason,
		UserID:         userID,
		At:             now,
	})
	next.currentAmount = i.paidAmount
	next.status = valueobject.InstallmentStatusWaived
	next.updatedAt = now
	next.domainEvents = copyEvents(i.domainEvents)
	next.domainEvents = append(next.domainEvents,
		event.NewInstallmentWaived(i.id, i.tenantID, i.planID, writeOff, userID),
	)
	return next, nil
}

// Cancel terminates the installment without settling it. Paid installments
// cannot be cancelled.
func (i Installment) Cancel(userID uuid.UUID, reason string, now time.Time) (Installment, error) {
	if i.status.IsTerminal() || i.status == valueobject.InstallmentStatusPaid {
		return i, ErrInvalidAdjustment
	}

	next := i
	next.adjustments = append(copyAdjustments(i.adjustments), Adjustment{
		Type:           "cancellation",
		OriginalAmount: i.currentAmount,
		NewAmount:      i.currentAmount,
		Delta:          decimal.Zero,
		Reason:         reason,
		UserID:         userID,
		At:             now,
	})
	next.status = valueobject.InstallmentStatusCancelled
	next.updatedAt = now
	next.domainEvents = copyEvents(i.domainEvents)
	return next, nil
}

// WithDerivedStatus re-derives the status against the clock, e.g. when a
// sweep moves a DUE line past its grace period. Terminal statuses stay put.
func (i Installment) WithDerivedStatus(now time.Time) Installment {
	next := i
	next.domainEvents = copyEvents(i.domainEvents)
	next.refreshStatus(now)
	if next.status != i.status {
		next.updatedAt = now
	}
	return next
}

// BumpVersion increments the optimistic-concurrency version before a save.
func (i Installment) BumpVersion() Installment {
	next := i
	next.version++
	return next
}

// IsOverdue reports whether the grace period has lapsed with money pending.
func (i Installment) IsOverdue(now time.Time) bool {
	return !i.status.IsTerminal() &&
		i.status != valueobject.InstallmentStatusPaid &&
		now.After(i.gracePeriodEndDate) &&
		i.PendingAmount().GreaterThan(decimal.Zero)
}

// CompletionPercent returns paid/current as a percentage, computed on read.
func (i Installment) CompletionPercent() decimal.Decimal {
	if i.currentAmount.IsZero() {
		return oneHundred
	}
	return i.paidAmount.Div(i.currentAmount).Mul(oneHundred).Round(2)
}

// Accessors.

func (i Installment) ID() uuid.UUID                            { return i.id }
func (i Installment) PlanID() uuid.UUID                        { return i.planID }
func (i Installment) TenantID() uuid.UUID                      { return i.tenantID }
func (i Installment) Number() int                              { return i.number }
func (i Installment) Description() string                      { return i.description }
func (i Installment) Milestone() valueobject.MilestoneType     { return i.milestone }
func (i Installment) OriginalAmount() decimal.Decimal          { return i.originalAmount }
func (i Installment) CurrentAmount() decimal.Decimal           { return i.currentAmount }
func (i Installment) PaidAmount() decimal.Decimal              { return i.paidAmount }
func (i Installment) LateFeeAccrued() decimal.Decimal          { return i.lateFeeAccrued }
func (i Installment) LateFeeUpdatedAt() *time.Time             { return i.lateFeeUpdatedAt }
func (i Installment) OriginalDueDate() time.Time               { return i.originalDueDate }
func (i Installment) CurrentDueDate() time.Time                { return i.currentDueDate }
func (i Installment) GracePeriodEndDate() time.Time            { return i.gracePeriodEndDate }
func (i Installment) Status() valueobject.InstallmentStatus    { return i.status }
func (i Installment) LateFeeApplicable() bool                  { return i.lateFeeApplicable }
func (i Installment) Waivable() bool                           { return i.waivable }
func (i Installment) FirstPaymentAt() *time.Time               { return i.firstPaymentAt }
func (i Installment) LastPaymentAt() *time.Time                { return i.lastPaymentAt }
func (i Installment) Version() int                             { return i.version }
func (i Installment) CreatedAt() time.Time                     { return i.createdAt }
func (i Installment) UpdatedAt() time.Time                     { return i.updatedAt }
func (i Installment) DomainEvents() []events.DomainEvent       { return i.domainEvents }

// Adjustments returns a defensive copy of the adjustment audit trail.
func (i Installment) Adjustments() []Adjustment {
	return copyAdjustments(i.adjustments)
}

// Charges returns a defensive copy of the additional charges.
func (i Installment) Charges() []Charge {
	return copyCharges(i.charges)
}

// TransactionIDs returns a defensive copy of the linked transaction IDs.
func (i Installment) TransactionIDs() []uuid.UUID {
	return copyIDs(i.transactionIDs)
}

// ClearEvents returns a copy with an empty event list.
func (i Installment) ClearEvents() Installment {
	next := i
	next.domainEvents = nil
	return next
}

func copyAdjustments(in []Adjustment) []Adjustment {
	if in == nil {
		return nil
	}
	out := make([]Adjustment, len(in))
	copy(out, in)
	return out
}

func copyCharges(in []Charge) []Charge {
	if in == nil {
		return nil
	}
	out := make([]Charge, len(in))
	copy(out, in)
	return out
}

func copyIDs(in []uuid.UUID) []uuid.UUID {
	if in == nil {
		return nil
	}
	out := make([]uuid.UUID, len(in))
	copy(out, in)
	return out
}

func appendUniqueID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	if id == uuid.Nil {
		return ids
	}
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
