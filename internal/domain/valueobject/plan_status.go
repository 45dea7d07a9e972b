package valueobject

import "fmt"

// PlanStatus represents the lifecycle state of a payment plan.
type PlanStatus struct {
	value string
}

var (
	PlanStatusActive    = PlanStatus{"ACTIVE"}
	PlanStatusCompleted = PlanStatus{"COMPLETED"}
	PlanStatusDefaulted = PlanStatus{"DEFAULTED"}
	PlanStatusCancelled = PlanStatus{"CANCELLED"}
)

var validPlanStatuses = map[string]PlanStatus{
	"ACTIVE":    PlanStatusActive,
	"COMPLETED": PlanStatusCompleted,
	"DEFAULTED": PlanStatusDefaulted,
	"CANCELLED": PlanStatusCancelled,
}

// NewPlanStatus validates and creates a PlanStatus from a string.
func NewPlanStatus(s string) (PlanStatus, error) {
	if status, ok := validPlanStatuses[s]; ok {
		return status, nil
	}
	return PlanStatus{}, fmt.Errorf("invalid plan status: %q", s)
}

// String returns the string representation of the plan status.
func (s PlanStatus) String() string {
	return s.value
}

// IsTerminal returns true if the plan accepts no further mutations
// (COMPLETED or CANCELLED).
func (s PlanStatus) IsTerminal() bool {
	return s == PlanStatusCompleted || s == PlanStatusCancelled
}

// IsZero returns true if the status is uninitialized.
func (s PlanStatus) IsZero() bool {
	return s.value == ""
}
