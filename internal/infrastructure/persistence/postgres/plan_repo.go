package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/propvantage/receivables-service/internal/domain/model"
	"github.com/propvantage/receivables-service/internal/domain/port"
	"github.com/propvantage/receivables-service/internal/domain/valueobject"
	"github.com/propvantage/receivables-service/pkg/postgres"
)

// PlanRepo implements port.PaymentPlanRepository.
type PlanRepo struct {
	db postgres.Querier
}

// NewPlanRepo creates a PostgreSQL-backed payment plan repository.
func NewPlanRepo(db postgres.Querier) *PlanRepo {
	return &PlanRepo{db: db}
}

const planColumns = `
	id, tenant_id, sale_id, customer_id, currency,
	total_amount, base_amount, breakdown, terms,
	status, summary, history, resweep_required,
	version, created_at, updated_at
`

// Save persists a plan. Updates are guarded by an optimistic version check:
// the caller bumps the version before saving and the update only lands if the
// stored row still carries the previous one.
func (r *PlanRepo) Save(ctx context.Context, plan model.PaymentPlan) error {
	breakdown, err := json.Marshal(plan.Breakdown())
	if err != nil {
		return fmt.Errorf("encode breakdown: %w", err)
	}
	terms, err := json.Marshal(plan.Terms())
	if err != nil {
		return fmt.Errorf("encode terms: %w", err)
	}
	summary, err := json.Marshal(plan.Summary())
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	history, err := json.Marshal(plan.History())
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	query := `
		INSERT INTO payment_plans (` + planColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		ON CONFLICT (id) DO UPDATE SET
			status           = EXCLUDED.status,
			summary          = EXCLUDED.summary,
			history          = EXCLUDED.history,
			resweep_required = EXCLUDED.resweep_required,
			version          = EXCLUDED.version,
			updated_at       = EXCLUDED.updated_at
		WHERE payment_plans.version = EXCLUDED.version - 1
	`
	tag, err := r.db.Exec(ctx, query,
		plan.ID(), plan.TenantID(), plan.SaleID(), plan.CustomerID(), plan.Currency(),
		plan.TotalAmount(), plan.BaseAmount(), breakdown, terms,
		plan.Status().String(), summary, history, plan.ResweepRequired(),
		plan.Version(), plan.CreatedAt(), plan.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("save plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return port.ErrVersionConflict
	}
	return nil
}

// FindByID retrieves a plan by ID.
func (r *PlanRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (model.PaymentPlan, error) {
	query := `SELECT ` + planColumns + ` FROM payment_plans WHERE tenant_id = $1 AND id = $2`
	return scanPlan(r.db.QueryRow(ctx, query, tenantID, id))
}

// FindBySaleID retrieves the plan attached to a sale.
func (r *PlanRepo) FindBySaleID(ctx context.Context, tenantID, saleID uuid.UUID) (model.PaymentPlan, error) {
	query := `SELECT ` + planColumns + ` FROM payment_plans WHERE tenant_id = $1 AND sale_id = $2`
	return scanPlan(r.db.QueryRow(ctx, query, tenantID, saleID))
}

// ListFlaggedForResweep retrieves plans whose last sweep finished partially,
// oldest first.
func (r *PlanRepo) ListFlaggedForResweep(ctx context.Context, limit int) ([]model.PaymentPlan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM payment_plans
		WHERE resweep_required
		ORDER BY updated_at
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query flagged plans: %w", err)
	}
	defer rows.Close()

	var plans []model.PaymentPlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

// OverdueReport aggregates overdue balances per customer directly in SQL so
// the report never loads full aggregates.
func (r *PlanRepo) OverdueReport(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]port.OverdueCustomerSummary, error) {
	query := `
		SELECT p.customer_id, p.id, p.sale_id,
		       SUM(i.current_amount - i.paid_amount),
		       COUNT(*),
		       MIN(i.current_due_date),
		       SUM(i.late_fee_accrued)
		FROM installments i
		JOIN payment_plans p ON p.id = i.plan_id
		WHERE p.tenant_id = $1
		  AND p.status = 'ACTIVE'
		  AND i.status NOT IN ('PAID', 'WAIVED', 'CANCELLED')
		  AND i.grace_period_end_date < $2
		  AND i.current_amount > i.paid_amount
		GROUP BY p.customer_id, p.id, p.sale_id
		ORDER BY MIN(i.current_due_date)
	`
	rows, err := r.db.Query(ctx, query, tenantID, asOf)
	if err != nil {
		return nil, fmt.Errorf("query overdue report: %w", err)
	}
	defer rows.Close()

	var report []port.OverdueCustomerSummary
	for rows.Next() {
		var (
			row       port.OverdueCustomerSummary
			oldestDue pgTime
		)
		if err := rows.Scan(
			&row.CustomerID, &row.PlanID, &row.SaleID,
			&row.OverdueAmount, &row.OverdueInstallments,
			&oldestDue, &row.TotalLateFees,
		); err != nil {
			return nil, fmt.Errorf("scan overdue row: %w", err)
		}
		row.OldestDueDate = oldestDue.Time()
		report = append(report, row)
	}
	return report, rows.Err()
}

func scanPlan(row pgx.Row) (model.PaymentPlan, error) {
	var (
		id, tenantID, saleID, customerID uuid.UUID
		currency, status                 string
		totalAmount, baseAmount          decimal.Decimal
		rawBreakdown, rawTerms           []byte
		rawSummary, rawHistory           []byte
		resweepRequired                  bool
		version                          int
		createdAt, updatedAt             pgTime
	)
	err := row.Scan(
		&id, &tenantID, &saleID, &customerID, &currency,
		&totalAmount, &baseAmount, &rawBreakdown, &rawTerms,
		&status, &rawSummary, &rawHistory, &resweepRequired,
		&version, &createdAt, &updatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.PaymentPlan{}, port.ErrPlanNotFound
	}
	if err != nil {
		return model.PaymentPlan{}, fmt.Errorf("scan plan: %w", err)
	}

	var breakdown model.AmountBreakdown
	if err := json.Unmarshal(rawBreakdown, &breakdown); err != nil {
		return model.PaymentPlan{}, fmt.Errorf("decode breakdown: %w", err)
	}
	var terms model.PlanTerms
	if err := json.Unmarshal(rawTerms, &terms); err != nil {
		return model.PaymentPlan{}, fmt.Errorf("decode terms: %w", err)
	}
	var summary model.FinancialSummary
	if err := json.Unmarshal(rawSummary, &summary); err != nil {
		return model.PaymentPlan{}, fmt.Errorf("decode summary: %w", err)
	}
	var history []model.ModificationEntry
	if err := json.Unmarshal(rawHistory, &history); err != nil {
		return model.PaymentPlan{}, fmt.Errorf("decode history: %w", err)
	}

	planStatus, err := valueobject.NewPlanStatus(status)
	if err != nil {
		return model.PaymentPlan{}, err
	}

	return model.ReconstructPaymentPlan(
		id, tenantID, saleID, customerID,
		currency, totalAmount, baseAmount,
		breakdown, terms, planStatus, summary, history,
		resweepRequired, version,
		createdAt.Time(), updatedAt.Time(),
	), nil
}
