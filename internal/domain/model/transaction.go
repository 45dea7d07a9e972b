package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/propvantage/receivables-service/internal/domain/event"
	"github.com/propvantage/receivables-service/internal/domain/valueobject"
	"github.com/propvantage/receivables-service/pkg/events"
)

// AllocationType records whether an allocation was chosen by the caller or by
// the auto-allocation policy.
const (
	AllocationManual = "MANUAL"
	AllocationAuto   = "AUTO"
)

// Allocation is the portion of a transaction's amount assigned to one
// installment.
type Allocation struct {
	InstallmentID uuid.UUID       `json:"installment_id"`
	Amount        decimal.Decimal `json:"amount"`
	Type          string          `json:"type"`
}

// Verification is the bank-verification state of a transaction.
type Verification struct {
	Status               valueobject.VerificationStatus
	VerifiedBy           uuid.UUID
	VerifiedAt           *time.Time
	BankStatementMatched bool
	Notes                string
}

// Modification is an append-only audit record of a transaction edit.
type Modification struct {
	Field  string    `json:"field"`
	Before string    `json:"before"`
	After  string    `json:"after"`
	Reason string    `json:"reason"`
	UserID uuid.UUID `json:"user_id"`
	At     time.Time `json:"at"`
}

// RefundDetails records the terminal refund applied to a transaction.
type RefundDetails struct {
	Amount      decimal.Decimal `json:"amount"`
	Reason      string          `json:"reason"`
	ProcessedBy uuid.UUID       `json:"processed_by"`
	ProcessedAt time.Time       `json:"processed_at"`
}

// PaymentTransaction is one recorded money-received event, possibly split
// across several installments. It is immutable; mutations return a new copy.
type PaymentTransaction struct {
	id              uuid.UUID
	tenantID        uuid.UUID
	planID          uuid.UUID
	amount          decimal.Decimal
	originalAmount  decimal.Decimal
	paymentDate     time.Time
	method          valueobject.PaymentMethod
	status          valueobject.TransactionStatus
	reference       string
	notes           string
	allocations     []Allocation
	verification    Verification
	modifications   []Modification
	refund          *RefundDetails
	receiptNumber   string
	receiptIssuedAt *time.Time
	version         int
	createdAt       time.Time
	updatedAt       time.Time
	domainEvents    []events.DomainEvent
}

// NewPaymentTransaction records a received payment against a plan. Recorded
// transactions start COMPLETED; bank verification later moves them to CLEARED
// or CANCELLED.
func NewPaymentTransaction(
	tenantID, planID uuid.UUID,
	amount decimal.Decimal,
	paymentDate time.Time,
	method valueobject.PaymentMethod,
	reference, notes string,
	now time.Time,
) (PaymentTransaction, error) {
	if tenantID == uuid.Nil {
		return PaymentTransaction{}, errors.New("tenant ID is required")
	}
	if planID == uuid.Nil {
		return PaymentTransaction{}, errors.New("plan ID is required")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return PaymentTransaction{}, fmt.Errorf("transaction amount must be positive, got %s", amount)
	}
	if method.IsZero() {
		return PaymentTransaction{}, errors.New("payment method is required")
	}
	if paymentDate.IsZero() {
		paymentDate = now
	}

	id := uuid.New()
	txn := PaymentTransaction{
		id:             id,
		tenantID:       tenantID,
		planID:         planID,
		amount:         amount,
		originalAmount: amount,
		paymentDate:    paymentDate,
		method:         method,
		status:         valueobject.TransactionStatusCompleted,
		reference:      reference,
		notes:          notes,
		verification:   Verification{Status: valueobject.VerificationPending},
		version:        1,
		createdAt:      now,
		updatedAt:      now,
	}

	txn.domainEvents = append(txn.domainEvents,
		event.NewPaymentRecorded(id, tenantID, planID, amount, method.String()),
	)
	return txn, nil
}

// ReconstructPaymentTransaction rebuilds a transaction from persistence.
func ReconstructPaymentTransaction(
	id, tenantID, planID uuid.UUID,
	amount, originalAmount decimal.Decimal,
	paymentDate time.Time,
	method valueobject.PaymentMethod,
	status valueobject.TransactionStatus,
	reference, notes string,
	allocations []Allocation,
	verification Verification,
	modifications []Modification,
	refund *RefundDetails,
	receiptNumber string,
	receiptIssuedAt *time.Time,
	version int,
	createdAt, updatedAt time.Time,
) PaymentTransaction {
	return PaymentTransaction{
		id:              id,
		tenantID:        tenantID,
		planID:          planID,
		amount:          amount,
		originalAmount:  originalAmount,
		paymentDate:     paymentDate,
		method:          method,
		status:          status,
		reference:       reference,
		notes:           notes,
		allocations:     allocations,
		verification:    verification,
		modifications:   modifications,
		refund:          refund,
		receiptNumber:   receiptNumber,
		receiptIssuedAt: receiptIssuedAt,
		version:         version,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// WithAllocations replaces the allocation set. The sum of allocated amounts
// must not exceed the transaction amount; an unallocated remainder is
// permitted and stays pending.
func (t PaymentTransaction) WithAllocations(allocations []Allocation, now time.Time) (PaymentTransaction, error) {
	if t.status.IsTerminal() {
		return t, ErrTransactionTerminal
	}

	sum := decimal.Zero
	for _, a := range allocations {
		if a.InstallmentID == uuid.Nil {
			return t, errors.New("allocation installment ID is required")
		}
		if a.Amount.LessThanOrEqual(decimal.Zero) {
			return t, fmt.Errorf("allocation amount must be positive, got %s", a.Amount)
		}
		sum = sum.Add(a.Amount)
	}
	if sum.GreaterThan(t.amount) {
		return t, ErrOverAllocation
	}

	next := t
	next.allocations = append([]Allocation(nil), allocations...)
	next.updatedAt = now
	next.domainEvents = copyEvents(t.domainEvents)
	return next, nil
}

// AdjustAmount corrects the recorded amount, appending a modification record
// with the before/after values. Rescaling of existing allocations against
// their installments is the allocation engine's responsibility.
func (t PaymentTransaction) AdjustAmount(newAmount decimal.Decimal, userID uuid.UUID, reason string, now time.Time) (PaymentTransaction, error) {
	if t.status.IsTerminal() {
		return t, ErrTransactionTerminal
	}
	if newAmount.LessThanOrEqual(decimal.Zero) {
		return t, fmt.Errorf("transaction amount must be positive, got %s", newAmount)
	}

	next := t
	next.modifications = append(copyModifications(t.modifications), Modification{
		Field:  "amount",
		Before: t.amount.String(),
		After:  newAmount.String(),
		Reason: reason,
		UserID: userID,
		At:     now,
	})
	next.amount = newAmount
	next.updatedAt = now
	next.domainEvents = copyEvents(t.domainEvents)
	next.domainEvents = append(next.domainEvents,
		event.NewTransactionAmountAdjusted(t.id, t.tenantID, t.planID, t.amount, newAmount, userID),
	)
	return next, nil
}

// Verify records the bank-verification outcome. VERIFIED clears the
// transaction; REJECTED cancels it. Verification never alters amounts.
func (t PaymentTransaction) Verify(userID uuid.UUID, outcome valueobject.VerificationStatus, bankStatementMatched bool, notes string, now time.Time) (PaymentTransaction, error) {
	if t.status.IsTerminal() {
		return t, ErrTransactionTerminal
	}

	next := t
	vt := now
	next.verification = Verification{
		Status:               outcome,
		VerifiedBy:           userID,
		VerifiedAt:           &vt,
		BankStatementMatched: bankStatementMatched,
		Notes:                notes,
	}

	switch outcome {
	case valueobject.VerificationVerified:
		next.status = valueobject.TransactionStatusCleared
	case valueobject.VerificationRejected:
		next.status = valueobject.TransactionStatusCancelled
	default:
		return t, fmt.Errorf("verification outcome must be VERIFIED or REJECTED, got %s", outcome)
	}

	next.updatedAt = now
	next.domainEvents = copyEvents(t.domainEvents)
	next.domainEvents = append(next.domainEvents,
		event.NewPaymentVerified(t.id, t.tenantID, t.planID, outcome.String(), userID),
	)
	return next, nil
}

// Refund terminates the transaction as REFUNDED. Reversal of allocations
// against installments is the allocation engine's responsibility.
func (t PaymentTransaction) Refund(refundAmount decimal.Decimal, reason string, userID uuid.UUID, now time.Time) (PaymentTransaction, error) {
	if t.status.IsTerminal() {
		return t, ErrTransactionTerminal
	}
	if refundAmount.LessThanOrEqual(decimal.Zero) {
		return t, fmt.Errorf("refund amount must be positive, got %s", refundAmount)
	}
	if refundAmount.GreaterThan(t.amount) {
		return t, ErrRefundExceedsAmount
	}

	next := t
	next.refund = &RefundDetails{
		Amount:      refundAmount,
		Reason:      reason,
		ProcessedBy: userID,
		ProcessedAt: now,
	}
	next.status = valueobject.TransactionStatusRefunded
	next.updatedAt = now
	next.domainEvents = copyEvents(t.domainEvents)
	next.domainEvents = append(next.domainEvents,
		event.NewPaymentRefunded(t.id, t.tenantID, t.planID, refundAmount, userID),
	)
	return next, nil
}

// EnsureReceipt mints a receipt number once; subsequent calls return the same
// receipt unchanged.
func (t PaymentTransaction) EnsureReceipt(now time.Time) PaymentTransaction {
	if t.receiptNumber != "" {
		return t
	}
	next := t
	next.receiptNumber = fmt.Sprintf("RCP-%s-%s", now.Format("20060102"), t.id.String()[:8])
	it := now
	next.receiptIssuedAt = &it
	next.updatedAt = now
	next.domainEvents = copyEvents(t.domainEvents)
	return next
}

// AllocatedTotal returns the sum of all allocation amounts.
func (t PaymentTransaction) AllocatedTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, a := range t.allocations {
		sum = sum.Add(a.Amount)
	}
	return sum
}

// UnallocatedAmount returns the remainder not yet assigned to installments.
func (t PaymentTransaction) UnallocatedAmount() decimal.Decimal {
	return t.amount.Sub(t.AllocatedTotal())
}

// BumpVersion increments the optimistic-concurrency version before a save.
func (t PaymentTransaction) BumpVersion() PaymentTransaction {
	next := t
	next.version++
	return next
}

// Accessors.

func (t PaymentTransaction) ID() uuid.UUID                          { return t.id }
func (t PaymentTransaction) TenantID() uuid.UUID                    { return t.tenantID }
func (t PaymentTransaction) PlanID() uuid.UUID                      { return t.planID }
func (t PaymentTransaction) Amount() decimal.Decimal                { return t.amount }
func (t PaymentTransaction) OriginalAmount() decimal.Decimal        { return t.originalAmount }
func (t PaymentTransaction) PaymentDate() time.Time                 { return t.paymentDate }
func (t PaymentTransaction) Method() valueobject.PaymentMethod      { return t.method }
func (t PaymentTransaction) Status() valueobject.TransactionStatus  { return t.status }
func (t PaymentTransaction) Reference() string                      { return t.reference }
func (t PaymentTransaction) Notes() string                          { return t.notes }
func (t PaymentTransaction) Verification() Verification             { return t.verification }
func (t PaymentTransaction) RefundDetails() *RefundDetails          { return t.refund }
func (t PaymentTransaction) ReceiptNumber() string                  { return t.receiptNumber }
func (t PaymentTransaction) ReceiptIssuedAt() *time.Time            { return t.receiptIssuedAt }
func (t PaymentTransaction) Version() int                           { return t.version }
func (t PaymentTransaction) CreatedAt() time.Time                   { return t.createdAt }
func (t PaymentTransaction) UpdatedAt() time.Time                   { return t.updatedAt }
func (t PaymentTransaction) DomainEvents() []events.DomainEvent     { return t.domainEvents }

// Allocations returns a defensive copy of the allocation set.
func (t PaymentTransaction) Allocations() []Allocation {
	if t.allocations == nil {
		return nil
	}
	out := make([]Allocation, len(t.allocations))
	copy(out, t.allocations)
	return out
}

// Modifications returns a defensive copy of the modification audit trail.
func (t PaymentTransaction) Modifications() []Modification {
	return copyModifications(t.modifications)
}

// ClearEvents returns a copy with an empty event list.
func (t PaymentTransaction) ClearEvents() PaymentTransaction {
	next := t
	next.domainEvents = nil
	return next
}

func copyModifications(in []Modification) []Modification {
	if in == nil {
		return nil
	}
	out := make([]Modification, len(in))
	copy(out, in)
	return out
}
