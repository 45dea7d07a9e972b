package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Request DTOs
// ---------------------------------------------------------------------------

// CreatePaymentPlanRequest carries the data needed to open a payment plan for
// a sale.
type CreatePaymentPlanRequest struct {
	TenantID            uuid.UUID       `json:"tenant_id"`
	SaleID              uuid.UUID       `json:"sale_id"`
	CustomerID          uuid.UUID       `json:"customer_id"`
	TemplateName        string          `json:"template_name"`
	Currency            string          `json:"currency"`
	BasePrice           decimal.Decimal `json:"base_price"`
	Taxes               decimal.Decimal `json:"taxes"`
	AdditionalCharges   decimal.Decimal `json:"additional_charges"`
	Discounts           decimal.Decimal `json:"discounts"`
	BookingDate         time.Time       `json:"booking_date"`
	GracePeriodDays     int             `json:"grace_period_days"`
	LateFeeRatePerMonth decimal.Decimal `json:"late_fee_rate_per_month"`
	InterestRate        decimal.Decimal `json:"interest_rate"`
	CompoundInterest    bool            `json:"compound_interest"`
}

// AllocationInput is one caller-chosen split of a payment.
type AllocationInput struct {
	InstallmentID uuid.UUID       `json:"installment_id"`
	Amount        decimal.Decimal `json:"amount"`
}

// ProcessPaymentRequest records a received payment. When Allocations is empty
// the amount is auto-allocated oldest due first.
type ProcessPaymentRequest struct {
	TenantID    uuid.UUID         `json:"tenant_id"`
	PlanID      uuid.UUID         `json:"plan_id"`
	Amount      decimal.Decimal   `json:"amount"`
	PaymentDate time.Time         `json:"payment_date"`
	Method      string            `json:"method"`
	Reference   string            `json:"reference"`
	Notes       string            `json:"notes"`
	Allocations []AllocationInput `json:"allocations,omitempty"`
}

// UpdateTransactionAmountRequest corrects a recorded transaction amount.
type UpdateTransactionAmountRequest struct {
	TenantID      uuid.UUID       `json:"tenant_id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	NewAmount     decimal.Decimal `json:"new_amount"`
	Reason        string          `json:"reason"`
	UserID        uuid.UUID       `json:"user_id"`
}

// VerifyPaymentRequest records the bank-verification outcome of a transaction.
type VerifyPaymentRequest struct {
	TenantID             uuid.UUID `json:"tenant_id"`
	TransactionID        uuid.UUID `json:"transaction_id"`
	Outcome              string    `json:"outcome"`
	BankStatementMatched bool      `json:"bank_statement_matched"`
	Notes                string    `json:"notes"`
	UserID               uuid.UUID `json:"user_id"`
}

// ProcessRefundRequest refunds a transaction and reverses its allocations.
type ProcessRefundRequest struct {
	TenantID      uuid.UUID       `json:"tenant_id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason"`
	UserID        uuid.UUID       `json:"user_id"`
}

// AdjustInstallmentAmountRequest changes an installment's current amount.
type AdjustInstallmentAmountRequest struct {
	TenantID      uuid.UUID       `json:"tenant_id"`
	PlanID        uuid.UUID       `json:"plan_id"`
	InstallmentID uuid.UUID       `json:"installment_id"`
	NewAmount     decimal.Decimal `json:"new_amount"`
	Reason        string          `json:"reason"`
	UserID        uuid.UUID       `json:"user_id"`
}

// AdjustInstallmentDueDateRequest moves an installment's due date.
type AdjustInstallmentDueDateRequest struct {
	TenantID      uuid.UUID `json:"tenant_id"`
	PlanID        uuid.UUID `json:"plan_id"`
	InstallmentID uuid.UUID `json:"installment_id"`
	NewDueDate    time.Time `json:"new_due_date"`
	Reason        string    `json:"reason"`
	UserID        uuid.UUID `json:"user_id"`
}

// WaiveInstallmentRequest writes off an installment's pending balance.
type WaiveInstallmentRequest struct {
	TenantID      uuid.UUID `json:"tenant_id"`
	PlanID        uuid.UUID `json:"plan_id"`
	InstallmentID uuid.UUID `json:"installment_id"`
	Reason        string    `json:"reason"`
	UserID        uuid.UUID `json:"user_id"`
}

// RecalculatePlanRequest re-derives statuses, late fees, and the summary for
// one plan.
type RecalculatePlanRequest struct {
	TenantID uuid.UUID `json:"tenant_id"`
	PlanID   uuid.UUID `json:"plan_id"`
}

// GetPaymentSummaryRequest identifies a plan to summarize.
type GetPaymentSummaryRequest struct {
	TenantID uuid.UUID `json:"tenant_id"`
	PlanID   uuid.UUID `json:"plan_id"`
}

// OverdueReportRequest asks for the per-customer overdue report.
type OverdueReportRequest struct {
	TenantID uuid.UUID `json:"tenant_id"`
	AsOf     time.Time `json:"as_of"`
}

// ---------------------------------------------------------------------------
// Response DTOs
// ---------------------------------------------------------------------------

// InstallmentResponse is the external representation of one schedule line.
type InstallmentResponse struct {
	ID             uuid.UUID       `json:"id"`
	Number         int             `json:"number"`
	Description    string          `json:"description"`
	Milestone      string          `json:"milestone"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	CurrentAmount  decimal.Decimal `json:"current_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	PendingAmount  decimal.Decimal `json:"pending_amount"`
	LateFeeAccrued decimal.Decimal `json:"late_fee_accrued"`
	DueDate        time.Time       `json:"due_date"`
	GraceEndDate   time.Time       `json:"grace_end_date"`
	Status         string          `json:"status"`
	Waivable       bool            `json:"waivable"`
}

// FinancialSummaryResponse is the external representation of a plan summary.
type FinancialSummaryResponse struct {
	TotalPaid         decimal.Decimal `json:"total_paid"`
	TotalOutstanding  decimal.Decimal `json:"total_outstanding"`
	TotalOverdue      decimal.Decimal `json:"total_overdue"`
	TotalLateFees     decimal.Decimal `json:"total_late_fees"`
	NextDueAmount     decimal.Decimal `json:"next_due_amount"`
	NextDueDate       *time.Time      `json:"next_due_date,omitempty"`
	LastPaymentDate   *time.Time      `json:"last_payment_date,omitempty"`
	LastPaymentAmount decimal.Decimal `json:"last_payment_amount"`
	CompletionPercent decimal.Decimal `json:"completion_percent"`
}

// PaymentPlanResponse is the external representation of a payment plan.
type PaymentPlanResponse struct {
	ID           uuid.UUID                `json:"id"`
	TenantID     uuid.UUID                `json:"tenant_id"`
	SaleID       uuid.UUID                `json:"sale_id"`
	CustomerID   uuid.UUID                `json:"customer_id"`
	Currency     string                   `json:"currency"`
	TotalAmount  decimal.Decimal          `json:"total_amount"`
	Status       string                   `json:"status"`
	Summary      FinancialSummaryResponse `json:"summary"`
	Installments []InstallmentResponse    `json:"installments,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
}

// AllocationResponse is one applied split of a transaction.
type AllocationResponse struct {
	InstallmentID uuid.UUID       `json:"installment_id"`
	Amount        decimal.Decimal `json:"amount"`
	Type          string          `json:"type"`
}

// TransactionResponse is the external representation of a payment
// transaction.
type TransactionResponse struct {
	ID            uuid.UUID            `json:"id"`
	PlanID        uuid.UUID            `json:"plan_id"`
	Amount        decimal.Decimal      `json:"amount"`
	PaymentDate   time.Time            `json:"payment_date"`
	Method        string               `json:"method"`
	Status        string               `json:"status"`
	Reference     string               `json:"reference,omitempty"`
	ReceiptNumber string               `json:"receipt_number,omitempty"`
	Allocations   []AllocationResponse `json:"allocations,omitempty"`
	Unallocated   decimal.Decimal      `json:"unallocated"`
}

// RecalculateResponse reports the outcome of a plan sweep, including the
// refreshed installment set.
type RecalculateResponse struct {
	PlanID            uuid.UUID                `json:"plan_id"`
	InstallmentsSwept int                      `json:"installments_swept"`
	FeesAccrued       int                      `json:"fees_accrued"`
	SkippedLines      int                      `json:"skipped_lines"`
	ResweepRequired   bool                     `json:"resweep_required"`
	Summary           FinancialSummaryResponse `json:"summary"`
	Installments      []InstallmentResponse    `json:"installments,omitempty"`
}

// OverdueCustomerResponse is one row of the overdue report.
type OverdueCustomerResponse struct {
	CustomerID          uuid.UUID       `json:"customer_id"`
	PlanID              uuid.UUID       `json:"plan_id"`
	SaleID              uuid.UUID       `json:"sale_id"`
	OverdueAmount       decimal.Decimal `json:"overdue_amount"`
	OverdueInstallments int             `json:"overdue_installments"`
	OldestDueDate       time.Time       `json:"oldest_due_date"`
	TotalLateFees       decimal.Decimal `json:"total_late_fees"`
}

// OverdueReportResponse is the per-customer overdue report.
type OverdueReportResponse struct {
	AsOf      time.Time                 `json:"as_of"`
	Customers []OverdueCustomerResponse `json:"customers"`
}
