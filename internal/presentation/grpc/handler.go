package grpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/propvantage/receivables-service/internal/application/dto"
	"github.com/propvantage/receivables-service/internal/application/usecase"
	"github.com/propvantage/receivables-service/internal/domain/model"
	"github.com/propvantage/receivables-service/internal/domain/port"
)

// LedgerHandler implements the gRPC ledger service handler.
type LedgerHandler struct {
	UnimplementedLedgerServiceServer

	createPlan        *usecase.CreatePaymentPlanUseCase
	processPayment    *usecase.ProcessPaymentUseCase
	updateTxnAmount   *usecase.UpdateTransactionAmountUseCase
	verifyPayment     *usecase.VerifyPaymentUseCase
	processRefund     *usecase.ProcessRefundUseCase
	adjustAmount      *usecase.AdjustInstallmentAmountUseCase
	adjustDueDate     *usecase.AdjustInstallmentDueDateUseCase
	waiveInstallment  *usecase.WaiveInstallmentUseCase
	recalculatePlan   *usecase.RecalculatePlanUseCase
	getPaymentSummary *usecase.GetPaymentSummaryUseCase
	overdueReport     *usecase.OverdueReportUseCase
}

// NewLedgerHandler creates a new gRPC ledger handler.
func NewLedgerHandler(
	createPlan *usecase.CreatePaymentPlanUseCase,
	processPayment *usecase.ProcessPaymentUseCase,
	updateTxnAmount *usecase.UpdateTransactionAmountUseCase,
	verifyPayment *usecase.VerifyPaymentUseCase,
	processRefund *usecase.ProcessRefundUseCase,
	adjustAmount *usecase.AdjustInstallmentAmountUseCase,
	adjustDueDate *usecase.AdjustInstallmentDueDateUseCase,
	waiveInstallment *usecase.WaiveInstallmentUseCase,
	recalculatePlan *usecase.RecalculatePlanUseCase,
	getPaymentSummary *usecase.GetPaymentSummaryUseCase,
	overdueReport *usecase.OverdueReportUseCase,
) *LedgerHandler {
	return &LedgerHandler{
		createPlan:        createPlan,
		processPayment:    processPayment,
		updateTxnAmount:   updateTxnAmount,
		verifyPayment:     verifyPayment,
		processRefund:     processRefund,
		adjustAmount:      adjustAmount,
		adjustDueDate:     adjustDueDate,
		waiveInstallment:  waiveInstallment,
		recalculatePlan:   recalculatePlan,
		getPaymentSummary: getPaymentSummary,
		overdueReport:     overdueReport,
	}
}

// ---------------------------------------------------------------------------
// Wire messages
// ---------------------------------------------------------------------------

// CreatePaymentPlanRequest represents the gRPC request for creating a plan.
type CreatePaymentPlanRequest struct {
	TenantID            string `json:"tenant_id"`
	SaleID              string `json:"sale_id"`
	CustomerID          string `json:"customer_id"`
	TemplateName        string `json:"template_name"`
	Currency            string `json:"currency"`
	BasePrice           string `json:"base_price"`
	Taxes               string `json:"taxes"`
	AdditionalCharges   string `json:"additional_charges"`
	Discounts           string `json:"discounts"`
	BookingDate         string `json:"booking_date"`
	GracePeriodDays     int32  `json:"grace_period_days"`
	LateFeeRatePerMonth string `json:"late_fee_rate_per_month"`
	InterestRate        string `json:"interest_rate"`
	CompoundInterest    bool   `json:"compound_interest"`
}

// InstallmentMessage represents one schedule line on the wire.
type InstallmentMessage struct {
	InstallmentID  string `json:"installment_id"`
	Number         int32  `json:"number"`
	Description    string `json:"description"`
	Milestone      string `json:"milestone"`
	OriginalAmount string `json:"original_amount"`
	CurrentAmount  string `json:"current_amount"`
	PaidAmount     string `json:"paid_amount"`
	PendingAmount  string `json:"pending_amount"`
	LateFeeAccrued string `json:"late_fee_accrued"`
	DueDate        string `json:"due_date"`
	GraceEndDate   string `json:"grace_end_date"`
	Status         string `json:"status"`
	Waivable       bool   `json:"waivable"`
}

// SummaryMessage represents the derived financial summary on the wire.
type SummaryMessage struct {
	TotalPaid         string `json:"total_paid"`
	TotalOutstanding  string `json:"total_outstanding"`
	TotalOverdue      string `json:"total_overdue"`
	TotalLateFees     string `json:"total_late_fees"`
	NextDueAmount     string `json:"next_due_amount"`
	NextDueDate       string `json:"next_due_date,omitempty"`
	LastPaymentDate   string `json:"last_payment_date,omitempty"`
	LastPaymentAmount string `json:"last_payment_amount"`
	CompletionPercent string `json:"completion_percent"`
}

// PaymentPlanResponse represents a payment plan on the wire.
type PaymentPlanResponse struct {
	PlanID       string                `json:"plan_id"`
	TenantID     string                `json:"tenant_id"`
	SaleID       string                `json:"sale_id"`
	CustomerID   string                `json:"customer_id"`
	Currency     string                `json:"currency"`
	TotalAmount  string                `json:"total_amount"`
	Status       string                `json:"status"`
	Summary      *SummaryMessage       `json:"summary"`
	Installments []*InstallmentMessage `json:"installments,omitempty"`
}

// AllocationMessage represents one applied split of a transaction.
type AllocationMessage struct {
	InstallmentID string `json:"installment_id"`
	Amount        string `json:"amount"`
	Type          string `json:"type"`
}

// ProcessPaymentRequest represents the gRPC request for recording a payment.
type ProcessPaymentRequest struct {
	TenantID    string               `json:"tenant_id"`
	PlanID      string               `json:"plan_id"`
	Amount      string               `json:"amount"`
	PaymentDate string               `json:"payment_date"`
	Method      string               `json:"method"`
	Reference   string               `json:"reference"`
	Notes       string               `json:"notes"`
	Allocations []*AllocationMessage `json:"allocations,omitempty"`
}

// TransactionResponse represents a payment transaction on the wire.
type TransactionResponse struct {
	TransactionID string               `json:"transaction_id"`
	PlanID        string               `json:"plan_id"`
	Amount        string               `json:"amount"`
	PaymentDate   string               `json:"payment_date"`
	Method        string               `json:"method"`
	Status        string               `json:"status"`
	Reference     string               `json:"reference,omitempty"`
	ReceiptNumber string               `json:"receipt_number,omitempty"`
	Allocations   []*AllocationMessage `json:"allocations,omitempty"`
	Unallocated   string               `json:"unallocated"`
}

// UpdateTransactionAmountRequest corrects a recorded transaction amount.
type UpdateTransactionAmountRequest struct {
	TenantID      string `json:"tenant_id"`
	TransactionID string `json:"transaction_id"`
	NewAmount     string `json:"new_amount"`
	Reason        string `json:"reason"`
	UserID        string `json:"user_id"`
}

// VerifyPaymentRequest records a bank-verification outcome.
type VerifyPaymentRequest struct {
	TenantID             string `json:"tenant_id"`
	TransactionID        string `json:"transaction_id"`
	Outcome              string `json:"outcome"`
	BankStatementMatched bool   `json:"bank_statement_matched"`
	Notes                string `json:"notes"`
	UserID               string `json:"user_id"`
}

// ProcessRefundRequest refunds a transaction.
type ProcessRefundRequest struct {
	TenantID      string `json:"tenant_id"`
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount"`
	Reason        string `json:"reason"`
	UserID        string `json:"user_id"`
}

// AdjustInstallmentAmountRequest changes an installment amount.
type AdjustInstallmentAmountRequest struct {
	TenantID      string `json:"tenant_id"`
	PlanID        string `json:"plan_id"`
	InstallmentID string `json:"installment_id"`
	NewAmount     string `json:"new_amount"`
	Reason        string `json:"reason"`
	UserID        string `json:"user_id"`
}

// AdjustInstallmentDueDateRequest moves an installment due date.
type AdjustInstallmentDueDateRequest struct {
	TenantID      string `json:"tenant_id"`
	PlanID        string `json:"plan_id"`
	InstallmentID string `json:"installment_id"`
	NewDueDate    string `json:"new_due_date"`
	Reason        string `json:"reason"`
	UserID        string `json:"user_id"`
}

// WaiveInstallmentRequest writes off an installment.
type WaiveInstallmentRequest struct {
	TenantID      string `json:"tenant_id"`
	PlanID        string `json:"plan_id"`
	InstallmentID string `json:"installment_id"`
	Reason        string `json:"reason"`
	UserID        string `json:"user_id"`
}

// InstallmentResponse wraps one installment.
type InstallmentResponse struct {
	Installment *InstallmentMessage `json:"installment"`
}

// RecalculatePlanRequest sweeps one plan.
type RecalculatePlanRequest struct {
	TenantID string `json:"tenant_id"`
	PlanID   string `json:"plan_id"`
}

// RecalculatePlanResponse reports the sweep outcome and the refreshed
// installment set.
type RecalculatePlanResponse struct {
	PlanID            string                `json:"plan_id"`
	InstallmentsSwept int32                 `json:"installments_swept"`
	FeesAccrued       int32                 `json:"fees_accrued"`
	SkippedLines      int32                 `json:"skipped_lines"`
	ResweepRequired   bool                  `json:"resweep_required"`
	Summary           *SummaryMessage       `json:"summary"`
	Installments      []*InstallmentMessage `json:"installments,omitempty"`
}

// GetPaymentSummaryRequest fetches one plan with its schedule.
type GetPaymentSummaryRequest struct {
	TenantID string `json:"tenant_id"`
	PlanID   string `json:"plan_id"`
}

// GetOverduePaymentsRequest asks for the per-customer overdue report.
type GetOverduePaymentsRequest struct {
	TenantID string `json:"tenant_id"`
	AsOf     string `json:"as_of"`
}

// OverdueCustomerMessage is one row of the overdue report.
type OverdueCustomerMessage struct {
	CustomerID          string `json:"customer_id"`
	PlanID              string `json:"plan_id"`
	SaleID              string `json:"sale_id"`
	OverdueAmount       string `json:"overdue_amount"`
	OverdueInstallments int32  `json:"overdue_installments"`
	OldestDueDate       string `json:"oldest_due_date"`
	TotalLateFees       string `json:"total_late_fees"`
}

// GetOverduePaymentsResponse is the overdue report.
type GetOverduePaymentsResponse struct {
	AsOf      string                    `json:"as_of"`
	Customers []*OverdueCustomerMessage `json:"customers,omitempty"`
}

// ---------------------------------------------------------------------------
// RPC methods
// ---------------------------------------------------------------------------

// CreatePaymentPlan handles the gRPC CreatePaymentPlan request.
func (h *LedgerHandler) CreatePaymentPlan(ctx context.Context, req *CreatePaymentPlanRequest) (*PaymentPlanResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	tenantID, err := parseUUID(req.TenantID, "tenant_id")
	if err != nil {
		return nil, err
	}
	saleID, err := parseUUID(req.SaleID, "sale_id")
	if err != nil {
		return nil, err
	}
	customerID, err := parseUUID(req.CustomerID, "customer_id")
	if err != nil {
		return nil, err
	}
	basePrice, err := parseAmount(req.BasePrice, "base_price")
	if err != nil {
		return nil, err
	}
	taxes, err := parseOptionalAmount(req.Taxes, "taxes")
	if err != nil {
		return nil, err
	}
	charges, err := parseOptionalAmount(req.AdditionalCharges, "additional_charges")
	if err != nil {
		return nil, err
	}
	discounts, err := parseOptionalAmount(req.Discounts, "discounts")
	if err != nil {
		return nil, err
	}
	lateFeeRate, err := parseOptionalAmount(req.LateFeeRatePerMonth, "late_fee_rate_per_month")
	if err != nil {
		return nil, err
	}
	interestRate, err := parseOptionalAmount(req.InterestRate, "interest_rate")
	if err != nil {
		return nil, err
	}
	bookingDate, err := parseOptionalDate(req.BookingDate, "booking_date")
	if err != nil {
		return nil, err
	}

	result, err := h.createPlan.Execute(ctx, dto.CreatePaymentPlanRequest{
		TenantID:            tenantID,
		SaleID:              saleID,
		CustomerID:          customerID,
		TemplateName:        req.TemplateName,
		Currency:            req.Currency,
		BasePrice:           basePrice,
		Taxes:               taxes,
		AdditionalCharges:   charges,
		Discounts:           discounts,
		BookingDate:         bookingDate,
		GracePeriodDays:     int(req.GracePeriodDays),
		LateFeeRatePerMonth: lateFeeRate,
		InterestRate:        interestRate,
		CompoundInterest:    req.CompoundInterest,
	})
	if err != nil {
		return nil, mapDomainError(err)
	}
	return toPlanMessage(result), nil
}

// ProcessPayment handles the gRPC ProcessPayment request.
func (h *LedgerHandler) ProcessPayment(ctx context.Context, req *ProcessPaymentRequest) (*TransactionResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	tenantID, err := parseUUID(req.TenantID, "tenant_id")
	if err != nil {
		return nil, err
	}
	planID, err := parseUUID(req.PlanID, "plan_id")
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(req.Amount, "amount")
	if err != nil {
		return nil, err
	}
	paymentDate, err := parseOptionalDate(req.PaymentDate, "payment_date")
	if err != nil {
		return nil, err
	}

	var allocations []dto.AllocationInput
	for _, alloc := range req.Allocations {
		installmentID, err := parseUUID(alloc.InstallmentID, "allocation installment_id")
		if err != nil {
			return nil, err
		}
		allocAmount, err := parseAmount(alloc.Amount, "allocation amount")
		if err != nil {
			return nil, err
		}
		allocations = append(allocations, dto.AllocationInput{
			InstallmentID: installmentID,
			Amount:        allocAmount,
		})
	}

	result, err := h.processPayment.Execute(ctx, dto.ProcessPaymentRequest{
		TenantID:    tenantID,
		PlanID:      planID,
		Amount:      amount,
		PaymentDate: paymentDate,
		Method:      req.Method,
		Reference:   req.Reference,
		Notes:       req.Notes,
		Allocations: allocations,
	})
	if err != nil {
		return nil, mapDomainError(err)
	}
	return toTransactionMessage(result), nil
}

// UpdateTransactionAmount handles the gRPC UpdateTransactionAmount request.
func (h *LedgerHandler) UpdateTransactionAmount(ctx context.Context, req *UpdateTransactionAmountRequest) (*TransactionResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	tenantID, err := parseUUID(req.TenantID, "tenant_id")
	if err != nil {
		return nil, err
	}
	transactionID, err := parseUUID(req.TransactionID, "transaction_id")
	if err != nil {
		return nil, err
	}
	newAmount, err := parseAmount(req.NewAmount, "new_amount")
	if err != nil {
		return nil, err
	}
	userID, err := parseUUID(req.UserID, "user_id")
	if err != nil {
		return nil, err
	}

	result, err := h.updateTxnAmount.Execute(ctx, dto.UpdateTransactionAmountRequest{
		TenantID:      tenantID,
		TransactionID: transactionID,
		NewAmount:     newAmount,
		Reason:        req.Reason,
		UserID:        userID,
	})
	if err != nil {
		return nil, mapDomainError(err)
	}
	return toTransactionMessage(result), nil
}

// VerifyPayment handles the gRPC VerifyPayment request.
func (h *LedgerHandler) VerifyPayment(ctx context.Context, req *VerifyPaymentRequest) (*TransactionResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	tenantID, err := parseUUID(req.TenantID, "tenant_id")
	if err != nil {
		return nil, err
	}
	transactionID, err := parseUUID(req.TransactionID, "transaction_id")
	if err != nil {
		return nil, err
	}
	userID, err := parseUUID(req.UserID, "user_id")
	if err != nil {
		return nil, err
	}

	result, err := h.verifyPayment.Execute(ctx, dto.VerifyPaymentRequest{
		TenantID:             tenantID,
		TransactionID:        transactionID,
		Outcome:              req.Outcome,
		BankStatementMatched: req.BankStatementMatched,
		Notes:                req.Notes,
		UserID:               userID,
	})
	if err != nil {
		return nil, mapDomainError(err)
	}
	return toTransactionMessage(result), nil
}

// ProcessRefund handles the gRPC ProcessRefund request.
func (h *LedgerHandler) ProcessRefund(ctx context.Context, req *ProcessRefundRequest) (*TransactionResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	tenantID, err := parseUUID(req.TenantID, "tenant_id")
	if err != nil {
		return nil, err
	}
	transactionID, err := parseUUID(req.TransactionID, "transaction_id")
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(req.Amount, "amount")
	if err != nil {
		return nil, err
	}
	userID, err := parseUUID(req.UserID, "user_id")
	if err != nil {
		return nil, err
	}

	result, err := h.processRefund.Execute(ctx, dto.ProcessRefundRequest{
		TenantID:      tenantID,
		TransactionID: transactionID,
		Amount:        amount,
		Reason:        req.Reason,
		UserID:        userID,
	})
	if err != nil {
		return nil, mapDomainError(err)
	}
	return toTransactionMessage(result), nil
}

// AdjustInstallmentAmount handles the gRPC AdjustInstallmentAmount request.
func (h *LedgerHandler) AdjustInstallmentAmount(ctx context.Context, req *AdjustInstallmentAmountRequest) (*InstallmentResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	tenantID, err := parseUUID(req.TenantID, "tenant_id")
	if err != nil {
		return nil, err
	}
	planID, err := parseUUID(req.PlanID, "plan_id")
	if err != nil {
		return nil, err
	}
	installmentID, err := parseUUID(req.InstallmentID, "installment_id")
	if err != nil {
		return nil, err
	}
	newAmount, err := parseAmount(req.NewAmount, "new_amount")
	if err != nil {
		return nil, err
	}
	userID, err := parseUUID(req.UserID, "user_id")
	if err != nil {
		return nil, err
	}

	result, err := h.adjustAmount.Execute(ctx, dto.AdjustInstallmentAmountRequest{
		TenantID:      tenantID,
		PlanID:        planID,
		InstallmentID: installmentID,
		NewAmount:     newAmount,
		Reason:        req.Reason,
		UserID:        userID,
	})
	if err != nil {
		return nil, mapDomainError(err)
	}
	return &InstallmentResponse{Installment: toInstallmentMessage(result)}, nil
}

// AdjustInstallmentDueDate handles the gRPC AdjustInstallmentDueDate request.
func (h *LedgerHandler) AdjustInstallmentDueDate(ctx context.Context, req *AdjustInstallmentDueDateRequest) (*InstallmentResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	tenantID, err := parseUUID(req.TenantID, "tenant_id")
	if err != nil {
		return nil, err
	}
	planID, err := parseUUID(req.PlanID, "plan_id")
	if err != nil {
		return nil, err
	}
	installmentID, err := parseUUID(req.InstallmentID, "installment_id")
	if err != nil {
		return nil, err
	}
	newDueDate, err := parseDate(req.NewDueDate, "new_due_date")
	if err != nil {
		return nil, err
	}
	userID, err := parseUUID(req.UserID, "user_id")
	if err != nil {
		return nil, err
	}

	result, err := h.adjustDueDate.Execute(ctx, dto.AdjustInstallmentDueDateRequest{
		TenantID:      tenantID,
		PlanID:        planID,
		InstallmentID: installmentID,
		NewDueDate:    newDueDate,
		Reason:        req.Reason,
		UserID:        userID,
	})
	if err != nil {
		return nil, mapDomainError(err)
	}
	return &InstallmentResponse{Installment: toInstallmentMessage(result)}, nil
}

// WaiveInstallment handles the gRPC WaiveInstallment request.
func (h *LedgerHandler) WaiveInstallment(ctx context.Context, req *WaiveInstallmentRequest) (*InstallmentResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	tenantID, err := parseUUID(req.TenantID, "tenant_id")
	if err != nil {
		return nil, err
	}
	planID, err := parseUUID(req.PlanID, "plan_id")
	if err != nil {
		return nil, err
	}
	installmentID, err := parseUUID(req.InstallmentID, "installment_id")
	if err != nil {
		return nil, err
	}
	userID, err := parseUUID(req.UserID, "user_id")
	if err != nil {
		return nil, err
	}

	result, err := h.waiveInstallment.Execute(ctx, dto.WaiveInstallmentRequest{
		TenantID:      tenantID,
		PlanID:        planID,
		InstallmentID: installmentID,
		Reason:        req.Reason,
		UserID:        userID,
	})
	if err != nil {
		return nil, mapDomainError(err)
	}
	return &InstallmentResponse{Installment: toInstallmentMessage(result)}, nil
}

// RecalculatePlan handles the gRPC RecalculatePlan request.
func (h *LedgerHandler) RecalculatePlan(ctx context.Context, req *RecalculatePlanRequest) (*RecalculatePlanResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	tenantID, err := parseUUID(req.TenantID, "tenant_id")
	if err != nil {
		return nil, err
	}
	planID, err := parseUUID(req.PlanID, "plan_id")
	if err != nil {
		return nil, err
	}

	result, err := h.recalculatePlan.Execute(ctx, dto.RecalculatePlanRequest{
		TenantID: tenantID,
		PlanID:   planID,
	})
	if err != nil {
		return nil, mapDomainError(err)
	}
	resp := &RecalculatePlanResponse{
		PlanID:            result.PlanID.String(),
		InstallmentsSwept: int32(result.InstallmentsSwept),
		FeesAccrued:       int32(result.FeesAccrued),
		SkippedLines:      int32(result.SkippedLines),
		ResweepRequired:   result.ResweepRequired,
		Summary:           toSummaryMessage(result.Summary),
	}
	for _, inst := range result.Installments {
		resp.Installments = append(resp.Installments, toInstallmentMessage(inst))
	}
	return resp, nil
}

// GetPaymentSummary handles the gRPC GetPaymentSummary request.
func (h *LedgerHandler) GetPaymentSummary(ctx context.Context, req *GetPaymentSummaryRequest) (*PaymentPlanResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	tenantID, err := parseUUID(req.TenantID, "tenant_id")
	if err != nil {
		return nil, err
	}
	planID, err := parseUUID(req.PlanID, "plan_id")
	if err != nil {
		return nil, err
	}

	result, err := h.getPaymentSummary.Execute(ctx, dto.GetPaymentSummaryRequest{
		TenantID: tenantID,
		PlanID:   planID,
	})
	if err != nil {
		return nil, mapDomainError(err)
	}
	return toPlanMessage(result), nil
}

// GetOverduePayments handles the gRPC GetOverduePayments request.
func (h *LedgerHandler) GetOverduePayments(ctx context.Context, req *GetOverduePaymentsRequest) (*GetOverduePaymentsResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	tenantID, err := parseUUID(req.TenantID, "tenant_id")
	if err != nil {
		return nil, err
	}
	asOf, err := parseOptionalDate(req.AsOf, "as_of")
	if err != nil {
		return nil, err
	}

	result, err := h.overdueReport.Execute(ctx, dto.OverdueReportRequest{
		TenantID: tenantID,
		AsOf:     asOf,
	})
	if err != nil {
		return nil, mapDomainError(err)
	}

	resp := &GetOverduePaymentsResponse{AsOf: result.AsOf.Format(time.RFC3339)}
	for _, row := range result.Customers {
		resp.Customers = append(resp.Customers, &OverdueCustomerMessage{
			CustomerID:          row.CustomerID.String(),
			PlanID:              row.PlanID.String(),
			SaleID:              row.SaleID.String(),
			OverdueAmount:       row.OverdueAmount.String(),
			OverdueInstallments: int32(row.OverdueInstallments),
			OldestDueDate:       row.OldestDueDate.Format(time.RFC3339),
			TotalLateFees:       row.TotalLateFees.String(),
		})
	}
	return resp, nil
}

// ---------------------------------------------------------------------------
// Mapping helpers
// ---------------------------------------------------------------------------

func parseUUID(s, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, status.Error(codes.InvalidArgument, fmt.Sprintf("invalid %s: %v", field, err))
	}
	return id, nil
}

func parseAmount(s, field string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, status.Error(codes.InvalidArgument, fmt.Sprintf("invalid %s: %v", field, err))
	}
	return d, nil
}

func parseOptionalAmount(s, field string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return parseAmount(s, field)
}

func parseDate(s, field string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, status.Error(codes.InvalidArgument, fmt.Sprintf("invalid %s: %v", field, err))
	}
	return t, nil
}

func parseOptionalDate(s, field string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return parseDate(s, field)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func toInstallmentMessage(in dto.InstallmentResponse) *InstallmentMessage {
	return &InstallmentMessage{
		InstallmentID:  in.ID.String(),
		Number:         int32(in.Number),
		Description:    in.Description,
		Milestone:      in.Milestone,
		OriginalAmount: in.OriginalAmount.String(),
		CurrentAmount:  in.CurrentAmount.String(),
		PaidAmount:     in.PaidAmount.String(),
		PendingAmount:  in.PendingAmount.String(),
		LateFeeAccrued: in.LateFeeAccrued.String(),
		DueDate:        in.DueDate.Format(time.RFC3339),
		GraceEndDate:   in.GraceEndDate.Format(time.RFC3339),
		Status:         in.Status,
		Waivable:       in.Waivable,
	}
}

func toSummaryMessage(in dto.FinancialSummaryResponse) *SummaryMessage {
	return &SummaryMessage{
		TotalPaid:         in.TotalPaid.String(),
		TotalOutstanding:  in.TotalOutstanding.String(),
		TotalOverdue:      in.TotalOverdue.String(),
		TotalLateFees:     in.TotalLateFees.String(),
		NextDueAmount:     in.NextDueAmount.String(),
		NextDueDate:       formatTimePtr(in.NextDueDate),
		LastPaymentDate:   formatTimePtr(in.LastPaymentDate),
		LastPaymentAmount: in.LastPaymentAmount.String(),
		CompletionPercent: in.CompletionPercent.String(),
	}
}

func toPlanMessage(in dto.PaymentPlanResponse) *PaymentPlanResponse {
	resp := &PaymentPlanResponse{
		PlanID:      in.ID.String(),
		TenantID:    in.TenantID.String(),
		SaleID:      in.SaleID.String(),
		CustomerID:  in.CustomerID.String(),
		Currency:    in.Currency,
		TotalAmount: in.TotalAmount.String(),
		Status:      in.Status,
		Summary:     toSummaryMessage(in.Summary),
	}
	for _, inst := range in.Installments {
		resp.Installments = append(resp.Installments, toInstallmentMessage(inst))
	}
	return resp
}

func toTransactionMessage(in dto.TransactionResponse) *TransactionResponse {
	resp := &TransactionResponse{
		TransactionID: in.ID.String(),
		PlanID:        in.PlanID.String(),
		Amount:        in.Amount.String(),
		PaymentDate:   in.PaymentDate.Format(time.RFC3339),
		Method:        in.Method,
		Status:        in.Status,
		Reference:     in.Reference,
		ReceiptNumber: in.ReceiptNumber,
		Unallocated:   in.Unallocated.String(),
	}
	for _, alloc := range in.Allocations {
		resp.Allocations = append(resp.Allocations, &AllocationMessage{
			InstallmentID: alloc.InstallmentID.String(),
			Amount:        alloc.Amount.String(),
			Type:          alloc.Type,
		})
	}
	return resp
}

// mapDomainError translates domain and port errors to gRPC status codes.
func mapDomainError(err error) error {
	switch {
	case errors.Is(err, port.ErrPlanNotFound),
		errors.Is(err, port.ErrInstallmentNotFound),
		errors.Is(err, port.ErrTransactionNotFound),
		errors.Is(err, port.ErrTemplateNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, model.ErrPlanAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, model.ErrPlanTerminal),
		errors.Is(err, model.ErrTransactionTerminal),
		errors.Is(err, model.ErrNotWaivable):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, model.ErrOverAllocation),
		errors.Is(err, model.ErrRefundExceedsAmount),
		errors.Is(err, model.ErrInvalidAdjustment),
		errors.Is(err, model.ErrTemplatePercentage):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, port.ErrVersionConflict):
		return status.Error(codes.Aborted, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
