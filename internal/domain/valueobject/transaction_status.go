package valueobject

import "fmt"

// TransactionStatus represents the lifecycle state of a recorded payment.
type TransactionStatus struct {
	value string
}

var (
	TransactionStatusPending    = TransactionStatus{"PENDING"}
	TransactionStatusProcessing = TransactionStatus{"PROCESSING"}
	TransactionStatusCompleted  = TransactionStatus{"COMPLETED"}
	TransactionStatusCleared    = TransactionStatus{"CLEARED"}
	TransactionStatusBounced    = TransactionStatus{"BOUNCED"}
	TransactionStatusCancelled  = TransactionStatus{"CANCELLED"}
	TransactionStatusRefunded   = TransactionStatus{"REFUNDED"}
)

var validTransactionStatuses = map[string]TransactionStatus{
	"PENDING":    TransactionStatusPending,
	"PROCESSING": TransactionStatusProcessing,
	"COMPLETED":  TransactionStatusCompleted,
	"CLEARED":    TransactionStatusCleared,
	"BOUNCED":    TransactionStatusBounced,
	"CANCELLED":  TransactionStatusCancelled,
	"REFUNDED":   TransactionStatusRefunded,
}

// NewTransactionStatus validates and creates a TransactionStatus from a string.
func NewTransactionStatus(s string) (TransactionStatus, error) {
	if status, ok := validTransactionStatuses[s]; ok {
		return status, nil
	}
	return TransactionStatus{}, fmt.Errorf("invalid transaction status: %q", s)
}

// String returns the string representation of the transaction status.
func (s TransactionStatus) String() string {
	return s.value
}

// IsTerminal returns true if no further mutation of the transaction is
// permitted (BOUNCED, CANCELLED, or REFUNDED).
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusBounced || s == TransactionStatusCancelled || s == TransactionStatusRefunded
}

// CountsTowardPaid returns true if the transaction's allocations contribute to
// installment paid amounts (COMPLETED or CLEARED).
func (s TransactionStatus) CountsTowardPaid() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusCleared
}

// IsZero returns true if the status is uninitialized.
func (s TransactionStatus) IsZero() bool {
	return s.value == ""
}
