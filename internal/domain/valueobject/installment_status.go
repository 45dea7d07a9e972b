package valueobject

import "fmt"

// InstallmentStatus represents the lifecycle state of a scheduled installment.
type InstallmentStatus struct {
	value string
}

var (
	InstallmentStatusPending       = InstallmentStatus{"PENDING"}
	InstallmentStatusDue           = InstallmentStatus{"DUE"}
	InstallmentStatusOverdue       = InstallmentStatus{"OVERDUE"}
	InstallmentStatusPartiallyPaid = InstallmentStatus{"PARTIALLY_PAID"}
	InstallmentStatusPaid          = InstallmentStatus{"PAID"}
	InstallmentStatusWaived        = InstallmentStatus{"WAIVED"}
	InstallmentStatusCancelled     = InstallmentStatus{"CANCELLED"}
)

var validInstallmentStatuses = map[string]InstallmentStatus{
	"PENDING":        InstallmentStatusPending,
	"DUE":            InstallmentStatusDue,
	"OVERDUE":        InstallmentStatusOverdue,
	"PARTIALLY_PAID": InstallmentStatusPartiallyPaid,
	"PAID":           InstallmentStatusPaid,
	"WAIVED":         InstallmentStatusWaived,
	"CANCELLED":      InstallmentStatusCancelled,
}

// NewInstallmentStatus validates and creates an InstallmentStatus from a string.
func NewInstallmentStatus(s string) (InstallmentStatus, error) {
	if status, ok := validInstallmentStatuses[s]; ok {
		return status, nil
	}
	return InstallmentStatus{}, fmt.Errorf("invalid installment status: %q", s)
}

// String returns the string representation of the installment status.
func (s InstallmentStatus) String() string {
	return s.value
}

// IsTerminal returns true for the explicitly terminated states WAIVED and
// CANCELLED, which are never re-derived from amounts or dates.
func (s InstallmentStatus) IsTerminal() bool {
	return s == InstallmentStatusWaived || s == InstallmentStatusCancelled
}

// IsAllocatable returns true if payments may still be allocated against an
// installment in this state.
func (s InstallmentStatus) IsAllocatable() bool {
	switch s {
	case InstallmentStatusPending, InstallmentStatusDue, InstallmentStatusOverdue, InstallmentStatusPartiallyPaid:
		return true
	}
	return false
}

// IsZero returns true if the status is uninitialized.
func (s InstallmentStatus) IsZero() bool {
	return s.value == ""
}
