package valueobject

import "fmt"

// MilestoneType classifies how an installment's due date relates to the sale.
type MilestoneType struct {
	value string
}

var (
	MilestoneBooking      = MilestoneType{"BOOKING"}
	MilestoneTimeBased    = MilestoneType{"TIME_BASED"}
	MilestoneConstruction = MilestoneType{"CONSTRUCTION"}
	MilestonePossession   = MilestoneType{"POSSESSION"}
	MilestoneCustom       = MilestoneType{"CUSTOM"}
)

var validMilestoneTypes = map[string]MilestoneType{
	"BOOKING":      MilestoneBooking,
	"TIME_BASED":   MilestoneTimeBased,
	"CONSTRUCTION": MilestoneConstruction,
	"POSSESSION":   MilestonePossession,
	"CUSTOM":       MilestoneCustom,
}

// NewMilestoneType validates and creates a MilestoneType from a string.
func NewMilestoneType(s string) (MilestoneType, error) {
	if mt, ok := validMilestoneTypes[s]; ok {
		return mt, nil
	}
	return MilestoneType{}, fmt.Errorf("invalid milestone type: %q", s)
}

// String returns the string representation of the milestone type.
func (m MilestoneType) String() string {
	return m.value
}

// IsCumulative returns true for TIME_BASED milestones, whose due-date offsets
// accumulate on a running clock from the booking date. All other milestone
// types offset from the booking date directly.
func (m MilestoneType) IsCumulative() bool {
	return m == MilestoneTimeBased
}

// IsZero returns true if the milestone type is uninitialized.
func (m MilestoneType) IsZero() bool {
	return m.value == ""
}
