// Package postgres implements the domain repository ports over PostgreSQL.
//
// All repositories accept a postgres.Querier so the same code runs against a
// connection pool or inside a transaction. Writes use upserts guarded by an
// optimistic version check; a guard miss surfaces as port.ErrVersionConflict.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/propvantage/receivables-service/internal/domain/model"
	"github.com/propvantage/receivables-service/internal/domain/port"
	"github.com/propvantage/receivables-service/internal/domain/valueobject"
	"github.com/propvantage/receivables-service/pkg/postgres"
)

// TemplateRepo implements port.PlanTemplateRepository.
type TemplateRepo struct {
	db postgres.Querier
}

// NewTemplateRepo creates a PostgreSQL-backed template repository.
func NewTemplateRepo(db postgres.Querier) *TemplateRepo {
	return &TemplateRepo{db: db}
}

// templateLineRow is the JSONB shape of one template line.
type templateLineRow struct {
	Number       int             `json:"number"`
	Description  string          `json:"description"`
	Percentage   decimal.Decimal `json:"percentage"`
	DueAfterDays int             `json:"due_after_days"`
	Milestone    string          `json:"milestone"`
	Optional     bool            `json:"optional"`
}

func marshalTemplateLines(lines []model.TemplateLine) ([]byte, error) {
	rows := make([]templateLineRow, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, templateLineRow{
			Number:       l.Number,
			Description:  l.Description,
			Percentage:   l.Percentage,
			DueAfterDays: l.DueAfterDays,
			Milestone:    l.Milestone.String(),
			Optional:     l.Optional,
		})
	}
	return json.Marshal(rows)
}

func unmarshalTemplateLines(raw []byte) ([]model.TemplateLine, error) {
	var rows []templateLineRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode template lines: %w", err)
	}
	lines := make([]model.TemplateLine, 0, len(rows))
	for _, r := range rows {
		milestone, err := valueobject.NewMilestoneType(r.Milestone)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.Number, err)
		}
		lines = append(lines, model.TemplateLine{
			Number:       r.Number,
			Description:  r.Description,
			Percentage:   r.Percentage,
			DueAfterDays: r.DueAfterDays,
			Milestone:    milestone,
			Optional:     r.Optional,
		})
	}
	return lines, nil
}

// Save persists a template.
func (r *TemplateRepo) Save(ctx context.Context, tmpl model.PlanTemplate) error {
	lines, err := marshalTemplateLines(tmpl.Lines())
	if err != nil {
		return fmt.Errorf("encode template lines: %w", err)
	}

	query := `
		INSERT INTO plan_templates (id, tenant_id, name, lines, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name   = EXCLUDED.name,
			lines  = EXCLUDED.lines,
			active = EXCLUDED.active
	`
	_, err = r.db.Exec(ctx, query,
		tmpl.ID(), tmpl.TenantID(), tmpl.Name(), lines, tmpl.Active(), tmpl.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("save template: %w", err)
	}
	return nil
}

// FindByID retrieves a template by ID.
func (r *TemplateRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (model.PlanTemplate, error) {
	query := `
		SELECT id, tenant_id, name, lines, active, created_at
		FROM plan_templates
		WHERE tenant_id = $1 AND id = $2
	`
	return r.scanOne(r.db.QueryRow(ctx, query, tenantID, id))
}

// FindByName retrieves a template by its tenant-unique name.
func (r *TemplateRepo) FindByName(ctx context.Context, tenantID uuid.UUID, name string) (model.PlanTemplate, error) {
	query := `
		SELECT id, tenant_id, name, lines, active, created_at
		FROM plan_templates
		WHERE tenant_id = $1 AND name = $2
	`
	return r.scanOne(r.db.QueryRow(ctx, query, tenantID, name))
}

// ListActive retrieves all active templates for a tenant.
func (r *TemplateRepo) ListActive(ctx context.Context, tenantID uuid.UUID) ([]model.PlanTemplate, error) {
	query := `
		SELECT id, tenant_id, name, lines, active, created_at
		FROM plan_templates
		WHERE tenant_id = $1 AND active
		ORDER BY name
	`
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	defer rows.Close()

	var templates []model.PlanTemplate
	for rows.Next() {
		tmpl, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, tmpl)
	}
	return templates, rows.Err()
}

func (r *TemplateRepo) scanOne(row pgx.Row) (model.PlanTemplate, error) {
	var (
		id, tenantID uuid.UUID
		name         string
		rawLines     []byte
		active       bool
		createdAt    pgTime
	)
	err := row.Scan(&id, &tenantID, &name, &rawLines, &active, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.PlanTemplate{}, port.ErrTemplateNotFound
	}
	if err != nil {
		return model.PlanTemplate{}, fmt.Errorf("scan template: %w", err)
	}

	lines, err := unmarshalTemplateLines(rawLines)
	if err != nil {
		return model.PlanTemplate{}, err
	}
	return model.ReconstructPlanTemplate(id, tenantID, name, lines, active, createdAt.Time()), nil
}
