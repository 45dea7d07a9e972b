package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/propvantage/receivables-service/internal/domain/valueobject"
)

// percentageTolerance is the permitted deviation of a template's percentage
// sum from 100.
var percentageTolerance = decimal.NewFromFloat(0.01)

var oneHundred = decimal.NewFromInt(100)

// TemplateLine is one installment definition within a plan template.
type TemplateLine struct {
	Number       int
	Description  string
	Percentage   decimal.Decimal
	DueAfterDays int
	Milestone    valueobject.MilestoneType
	Optional     bool
}

// PlanTemplate is the static configuration a payment plan is generated from.
// It is shared across sales and never mutated per sale.
type PlanTemplate struct {
	id        uuid.UUID
	tenantID  uuid.UUID
	name      string
	lines     []TemplateLine
	active    bool
	createdAt time.Time
}

// NewPlanTemplate creates a template after validating its lines.
func NewPlanTemplate(tenantID uuid.UUID, name string, lines []TemplateLine, now time.Time) (PlanTemplate, error) {
	if tenantID == uuid.Nil {
		return PlanTemplate{}, errors.New("tenant ID is required")
	}
	if name == "" {
		return PlanTemplate{}, errors.New("template name is required")
	}

	tmpl := PlanTemplate{
		id:        uuid.New(),
		tenantID:  tenantID,
		name:      name,
		lines:     append([]TemplateLine(nil), lines...),
		active:    true,
		createdAt: now,
	}
	if err := tmpl.Validate(); err != nil {
		return PlanTemplate{}, err
	}
	return tmpl, nil
}

// ReconstructPlanTemplate rebuilds a template from persistence.
func ReconstructPlanTemplate(
	id, tenantID uuid.UUID,
	name string,
	lines []TemplateLine,
	active bool,
	createdAt time.Time,
) PlanTemplate {
	return PlanTemplate{
		id:        id,
		tenantID:  tenantID,
		name:      name,
		lines:     lines,
		active:    active,
		createdAt: createdAt,
	}
}

// Validate checks the template invariants: at least one line, each percentage
// in (0, 100], valid milestone types, and percentages summing to 100 within
// tolerance.
func (t PlanTemplate) Validate() error {
	if len(t.lines) == 0 {
		return errors.New("template has no installment lines")
	}

	sum := decimal.Zero
	for _, line := range t.lines {
		if line.Percentage.LessThanOrEqual(decimal.Zero) || line.Percentage.GreaterThan(oneHundred) {
			return fmt.Errorf("line %d: percentage %s out of range", line.Number, line.Percentage)
		}
		if line.Milestone.IsZero() {
			return fmt.Errorf("line %d: milestone type is required", line.Number)
		}
		if line.DueAfterDays < 0 {
			return fmt.Errorf("line %d: due-after days must not be negative", line.Number)
		}
		sum = sum.Add(line.Percentage)
	}

	if sum.Sub(oneHundred).Abs().GreaterThan(percentageTolerance) {
		return fmt.Errorf("%w: got %s", ErrTemplatePercentage, sum)
	}
	return nil
}

// ID returns the template identifier.
func (t PlanTemplate) ID() uuid.UUID { return t.id }

// TenantID returns the owning tenant.
func (t PlanTemplate) TenantID() uuid.UUID { return t.tenantID }

// Name returns the template name plans are resolved by.
func (t PlanTemplate) Name() string { return t.name }

// Active reports whether the template may be used for new plans.
func (t PlanTemplate) Active() bool { return t.active }

// CreatedAt returns the creation timestamp.
func (t PlanTemplate) CreatedAt() time.Time { return t.createdAt }

// Lines returns a defensive copy of the installment definitions.
func (t PlanTemplate) Lines() []TemplateLine {
	out := make([]TemplateLine, len(t.lines))
	copy(out, t.lines)
	return out
}
