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

// InstallmentRepo implements port.InstallmentRepository.
type InstallmentRepo struct {
	db postgres.Querier
}

// NewInstallmentRepo creates a PostgreSQL-backed installment repository.
func NewInstallmentRepo(db postgres.Querier) *InstallmentRepo {
	return &InstallmentRepo{db: db}
}

const installmentColumns = `
	id, plan_id, tenant_id, number, description, milestone,
	original_amount, current_amount, paid_amount, late_fee_accrued,
	late_fee_updated_at, original_due_date, current_due_date,
	grace_period_end_date, status, late_fee_applicable, waivable,
	adjustments, charges, transaction_ids,
	first_payment_at, last_payment_at,
	version, created_at, updated_at
`

// SaveAll persists a freshly generated schedule.
func (r *InstallmentRepo) SaveAll(ctx context.Context, installments []model.Installment) error {
	for _, inst := range installments {
		if err := r.Save(ctx, inst); err != nil {
			return fmt.Errorf("installment %d: %w", inst.Number(), err)
		}
	}
	return nil
}

// Save persists one installment with an optimistic version guard on updates.
func (r *InstallmentRepo) Save(ctx context.Context, inst model.Installment) error {
	adjustments, err := json.Marshal(inst.Adjustments())
	if err != nil {
		return fmt.Errorf("encode adjustments: %w", err)
	}
	charges, err := json.Marshal(inst.Charges())
	if err != nil {
		return fmt.Errorf("encode charges: %w", err)
	}
	transactionIDs, err := json.Marshal(inst.TransactionIDs())
	if err != nil {
		return fmt.Errorf("encode transaction ids: %w", err)
	}

	query := `
		INSERT INTO installments (` + installmentColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)
		ON CONFLICT (id) DO UPDATE SET
			current_amount        = EXCLUDED.current_amount,
			paid_amount           = EXCLUDED.paid_amount,
			late_fee_accrued      = EXCLUDED.late_fee_accrued,
			late_fee_updated_at   = EXCLUDED.late_fee_updated_at,
			current_due_date      = EXCLUDED.current_due_date,
			grace_period_end_date = EXCLUDED.grace_period_end_date,
			status                = EXCLUDED.status,
			adjustments           = EXCLUDED.adjustments,
			charges               = EXCLUDED.charges,
			transaction_ids       = EXCLUDED.transaction_ids,
			first_payment_at      = EXCLUDED.first_payment_at,
			last_payment_at       = EXCLUDED.last_payment_at,
			version               = EXCLUDED.version,
			updated_at            = EXCLUDED.updated_at
		WHERE installments.version = EXCLUDED.version - 1
	`
	tag, err := r.db.Exec(ctx, query,
		inst.ID(), inst.PlanID(), inst.TenantID(), inst.Number(), inst.Description(), inst.Milestone().String(),
		inst.OriginalAmount(), inst.CurrentAmount(), inst.PaidAmount(), inst.LateFeeAccrued(),
		inst.LateFeeUpdatedAt(), inst.OriginalDueDate(), inst.CurrentDueDate(),
		inst.GracePeriodEndDate(), inst.Status().String(), inst.LateFeeApplicable(), inst.Waivable(),
		adjustments, charges, transactionIDs,
		inst.FirstPaymentAt(), inst.LastPaymentAt(),
		inst.Version(), inst.CreatedAt(), inst.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("save installment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return port.ErrVersionConflict
	}
	return nil
}

// FindByID retrieves an installment by ID.
func (r *InstallmentRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (model.Installment, error) {
	query := `SELECT ` + installmentColumns + ` FROM installments WHERE tenant_id = $1 AND id = $2`
	return scanInstallment(r.db.QueryRow(ctx, query, tenantID, id))
}

// FindByPlanID retrieves a plan's full schedule ordered by line number.
func (r *InstallmentRepo) FindByPlanID(ctx context.Context, tenantID, planID uuid.UUID) ([]model.Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE tenant_id = $1 AND plan_id = $2
		ORDER BY number
	`
	rows, err := r.db.Query(ctx, query, tenantID, planID)
	if err != nil {
		return nil, fmt.Errorf("query installments: %w", err)
	}
	defer rows.Close()

	var installments []model.Installment
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, err
		}
		installments = append(installments, inst)
	}
	return installments, rows.Err()
}

func scanInstallment(row pgx.Row) (model.Installment, error) {
	var (
		id, planID, tenantID                          uuid.UUID
		number, version                               int
		description, milestone, status                string
		originalAmount, currentAmount                 decimal.Decimal
		paidAmount, lateFeeAccrued                    decimal.Decimal
		lateFeeUpdatedAt, firstPaymentAt              *time.Time
		lastPaymentAt                                 *time.Time
		originalDueDate, currentDueDate, graceEnd     pgTime
		lateFeeApplicable, waivable                   bool
		rawAdjustments, rawCharges, rawTransactionIDs []byte
		createdAt, updatedAt                          pgTime
	)
	err := row.Scan(
		&id, &planID, &tenantID, &number, &description, &milestone,
		&originalAmount, &currentAmount, &paidAmount, &lateFeeAccrued,
		&lateFeeUpdatedAt, &originalDueDate, &currentDueDate,
		&graceEnd, &status, &lateFeeApplicable, &waivable,
		&rawAdjustments, &rawCharges, &rawTransactionIDs,
		&firstPaymentAt, &lastPaymentAt,
		&version, &createdAt, &updatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Installment{}, port.ErrInstallmentNotFound
	}
	if err != nil {
		return model.Installment{}, fmt.Errorf("scan installment: %w", err)
	}

	var adjustments []model.Adjustment
	if err := json.Unmarshal(rawAdjustments, &adjustments); err != nil {
		return model.Installment{}, fmt.Errorf("decode adjustments: %w", err)
	}
	var charges []model.Charge
	if err := json.Unmarshal(rawCharges, &charges); err != nil {
		return model.Installment{}, fmt.Errorf("decode charges: %w", err)
	}
	var transactionIDs []uuid.UUID
	if err := json.Unmarshal(rawTransactionIDs, &transactionIDs); err != nil {
		return model.Installment{}, fmt.Errorf("decode transaction ids: %w", err)
	}

	milestoneType, err := valueobject.NewMilestoneType(milestone)
	if err != nil {
		return model.Installment{}, err
	}
	installmentStatus, err := valueobject.NewInstallmentStatus(status)
	if err != nil {
		return model.Installment{}, err
	}

	return model.ReconstructInstallment(
		id, planID, tenantID,
		number, description, milestoneType,
		originalAmount, currentAmount, paidAmount, lateFeeAccrued,
		lateFeeUpdatedAt,
		originalDueDate.Time(), currentDueDate.Time(), graceEnd.Time(),
		installmentStatus,
		lateFeeApplicable, waivable,
		adjustments, charges, transactionIDs,
		firstPaymentAt, lastPaymentAt,
		version, createdAt.Time(), updatedAt.Time(),
	), nil
}
