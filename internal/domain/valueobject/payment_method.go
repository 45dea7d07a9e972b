package valueobject

import "fmt"

// PaymentMethod identifies how money was received.
type PaymentMethod struct {
	value string
}

var (
	MethodCash         = PaymentMethod{"CASH"}
	MethodCheque       = PaymentMethod{"CHEQUE"}
	MethodBankTransfer = PaymentMethod{"BANK_TRANSFER"}
	MethodUPI          = PaymentMethod{"UPI"}
	MethodCard         = PaymentMethod{"CARD"}
	MethodDemandDraft  = PaymentMethod{"DEMAND_DRAFT"}
)

var validPaymentMethods = map[string]PaymentMethod{
	"CASH":          MethodCash,
	"CHEQUE":        MethodCheque,
	"BANK_TRANSFER": MethodBankTransfer,
	"UPI":           MethodUPI,
	"CARD":          MethodCard,
	"DEMAND_DRAFT":  MethodDemandDraft,
}

// NewPaymentMethod validates and creates a PaymentMethod from a string.
func NewPaymentMethod(s string) (PaymentMethod, error) {
	if m, ok := validPaymentMethods[s]; ok {
		return m, nil
	}
	return PaymentMethod{}, fmt.Errorf("invalid payment method: %q", s)
}

// String returns the string representation of the payment method.
func (m PaymentMethod) String() string {
	return m.value
}

// IsZero returns true if the payment method is uninitialized.
func (m PaymentMethod) IsZero() bool {
	return m.value == ""
}

// VerificationStatus is the bank-verification outcome recorded on a transaction.
type VerificationStatus struct {
	value string
}

var (
	VerificationPending  = VerificationStatus{"PENDING"}
	VerificationVerified = VerificationStatus{"VERIFIED"}
	VerificationRejected = VerificationStatus{"REJECTED"}
)

var validVerificationStatuses = map[string]VerificationStatus{
	"PENDING":  VerificationPending,
	"VERIFIED": VerificationVerified,
	"REJECTED": VerificationRejected,
}

// NewVerificationStatus validates and creates a VerificationStatus from a string.
func NewVerificationStatus(s string) (VerificationStatus, error) {
	if v, ok := validVerificationStatuses[s]; ok {
		return v, nil
	}
	return VerificationStatus{}, fmt.Errorf("invalid verification status: %q", s)
}

// String returns the string representation of the verification status.
func (v VerificationStatus) String() string {
	return v.value
}

// IsZero returns true if the verification status is uninitialized.
func (v VerificationStatus) IsZero() bool {
	return v.value == ""
}
