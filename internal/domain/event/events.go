// Package event defines the domain events emitted by the receivables ledger
// aggregates. Events are written to the transactional outbox alongside state
// changes and relayed to Kafka.
package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/propvantage/receivables-service/pkg/events"
)

// Aggregate type names used in outbox entries.
const (
	AggregatePaymentPlan        = "PaymentPlan"
	AggregateInstallment        = "Installment"
	AggregatePaymentTransaction = "PaymentTransaction"
)

// Event type names.
const (
	TypePlanCreated               = "plan.created"
	TypePlanCompleted             = "plan.completed"
	TypeInstallmentWaived         = "installment.waived"
	TypePaymentRecorded           = "payment.recorded"
	TypePaymentVerified           = "payment.verified"
	TypePaymentRefunded           = "payment.refunded"
	TypeTransactionAmountAdjusted = "payment.amount_adjusted"
)

// PlanCreated signals that a payment plan and its schedule were generated.
type PlanCreated struct {
	events.BaseEvent
	TenantID    uuid.UUID       `json:"tenant_id"`
	SaleID      uuid.UUID       `json:"sale_id"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
}

// NewPlanCreated creates a PlanCreated event.
func NewPlanCreated(planID, tenantID, saleID, customerID uuid.UUID, total decimal.Decimal, currency string) PlanCreated {
	e := PlanCreated{
		TenantID:    tenantID,
		SaleID:      saleID,
		CustomerID:  customerID,
		TotalAmount: total,
		Currency:    currency,
	}
	payload, _ := json.Marshal(map[string]any{
		"plan_id":      planID,
		"tenant_id":    tenantID,
		"sale_id":      saleID,
		"customer_id":  customerID,
		"total_amount": total,
		"currency":     currency,
	})
	e.BaseEvent = events.NewBaseEvent(TypePlanCreated, planID, AggregatePaymentPlan, payload)
	return e
}

// PlanCompleted signals that a plan's outstanding balance reached zero.
type PlanCompleted struct {
	events.BaseEvent
	TenantID    uuid.UUID `json:"tenant_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// NewPlanCompleted creates a PlanCompleted event.
func NewPlanCompleted(planID, tenantID uuid.UUID, completedAt time.Time) PlanCompleted {
	e := PlanCompleted{TenantID: tenantID, CompletedAt: completedAt}
	payload, _ := json.Marshal(map[string]any{
		"plan_id":      planID,
		"tenant_id":    tenantID,
		"completed_at": completedAt,
	})
	e.BaseEvent = events.NewBaseEvent(TypePlanCompleted, planID, AggregatePaymentPlan, payload)
	return e
}

// InstallmentWaived signals that an installment's pending balance was written
// off.
type InstallmentWaived struct {
	events.BaseEvent
	TenantID uuid.UUID       `json:"tenant_id"`
	PlanID   uuid.UUID       `json:"plan_id"`
	WriteOff decimal.Decimal `json:"write_off"`
	WaivedBy uuid.UUID       `json:"waived_by"`
}

// NewInstallmentWaived creates an InstallmentWaived event.
func NewInstallmentWaived(installmentID, tenantID, planID uuid.UUID, writeOff decimal.Decimal, userID uuid.UUID) InstallmentWaived {
	e := InstallmentWaived{TenantID: tenantID, PlanID: planID, WriteOff: writeOff, WaivedBy: userID}
	payload, _ := json.Marshal(map[string]any{
		"installment_id": installmentID,
		"tenant_id":      tenantID,
		"plan_id":        planID,
		"write_off":      writeOff,
		"waived_by":      userID,
	})
	e.BaseEvent = events.NewBaseEvent(TypeInstallmentWaived, installmentID, AggregateInstallment, payload)
	return e
}

// PaymentRecorded signals that a payment transaction was recorded against a
// plan.
type PaymentRecorded struct {
	events.BaseEvent
	TenantID uuid.UUID       `json:"tenant_id"`
	PlanID   uuid.UUID       `json:"plan_id"`
	Amount   decimal.Decimal `json:"amount"`
	Method   string          `json:"method"`
}

// NewPaymentRecorded creates a PaymentRecorded event.
func NewPaymentRecorded(transactionID, tenantID, planID uuid.UUID, amount decimal.Decimal, method string) PaymentRecorded {
	e := PaymentRecorded{TenantID: tenantID, PlanID: planID, Amount: amount, Method: method}
	payload, _ := json.Marshal(map[string]any{
		"transaction_id": transactionID,
		"tenant_id":      tenantID,
		"plan_id":        planID,
		"amount":         amount,
		"method":         method,
	})
	e.BaseEvent = events.NewBaseEvent(TypePaymentRecorded, transactionID, AggregatePaymentTransaction, payload)
	return e
}

// PaymentVerified signals the bank-verification outcome of a transaction.
type PaymentVerified struct {
	events.BaseEvent
	TenantID   uuid.UUID `json:"tenant_id"`
	PlanID     uuid.UUID `json:"plan_id"`
	Outcome    string    `json:"outcome"`
	VerifiedBy uuid.UUID `json:"verified_by"`
}

// NewPaymentVerified creates a PaymentVerified event.
func NewPaymentVerified(transactionID, tenantID, planID uuid.UUID, outcome string, userID uuid.UUID) PaymentVerified {
	e := PaymentVerified{TenantID: tenantID, PlanID: planID, Outcome: outcome, VerifiedBy: userID}
	payload, _ := json.Marshal(map[string]any{
		"transaction_id": transactionID,
		"tenant_id":      tenantID,
		"plan_id":        planID,
		"outcome":        outcome,
		"verified_by":    userID,
	})
	e.BaseEvent = events.NewBaseEvent(TypePaymentVerified, transactionID, AggregatePaymentTransaction, payload)
	return e
}

// PaymentRefunded signals that a transaction was refunded and its allocations
// reversed.
type PaymentRefunded struct {
	events.BaseEvent
	TenantID     uuid.UUID       `json:"tenant_id"`
	PlanID       uuid.UUID       `json:"plan_id"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	ProcessedBy  uuid.UUID       `json:"processed_by"`
}

// NewPaymentRefunded creates a PaymentRefunded event.
func NewPaymentRefunded(transactionID, tenantID, planID uuid.UUID, refundAmount decimal.Decimal, userID uuid.UUID) PaymentRefunded {
	e := PaymentRefunded{TenantID: tenantID, PlanID: planID, RefundAmount: refundAmount, ProcessedBy: userID}
	payload, _ := json.Marshal(map[string]any{
		"transaction_id": transactionID,
		"tenant_id":      tenantID,
		"plan_id":        planID,
		"refund_amount":  refundAmount,
		"processed_by":   userID,
	})
	e.BaseEvent = events.NewBaseEvent(TypePaymentRefunded, transactionID, AggregatePaymentTransaction, payload)
	return e
}

// TransactionAmountAdjusted signals that a recorded transaction amount was
// corrected.
type TransactionAmountAdjusted struct {
	events.BaseEvent
	TenantID   uuid.UUID       `json:"tenant_id"`
	PlanID     uuid.UUID       `json:"plan_id"`
	OldAmount  decimal.Decimal `json:"old_amount"`
	NewAmount  decimal.Decimal `json:"new_amount"`
	AdjustedBy uuid.UUID       `json:"adjusted_by"`
}

// NewTransactionAmountAdjusted creates a TransactionAmountAdjusted event.
func NewTransactionAmountAdjusted(transactionID, tenantID, planID uuid.UUID, oldAmount, newAmount decimal.Decimal, userID uuid.UUID) TransactionAmountAdjusted {
	e := TransactionAmountAdjusted{TenantID: tenantID, PlanID: planID, OldAmount: oldAmount, NewAmount: newAmount, AdjustedBy: userID}
	payload, _ := json.Marshal(map[string]any{
		"transaction_id": transactionID,
		"tenant_id":      tenantID,
		"plan_id":        planID,
		"old_amount":     oldAmount,
		"new_amount":     newAmount,
		"adjusted_by":    userID,
	})
	e.BaseEvent = events.NewBaseEvent(TypeTransactionAmountAdjusted, transactionID, AggregatePaymentTransaction, payload)
	return e
}
