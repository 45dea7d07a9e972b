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

// TransactionRepo implements port.PaymentTransactionRepository.
type TransactionRepo struct {
	db postgres.Querier
}

// NewTransactionRepo creates a PostgreSQL-backed payment transaction
// repository.
func NewTransactionRepo(db postgres.Querier) *TransactionRepo {
	return &TransactionRepo{db: db}
}

const transactionColumns = `
	id, tenant_id, plan_id, amount, original_amount,
	payment_date, method, status, reference, notes,
	allocations, verification_status, verified_by, verified_at,
	bank_statement_matched, verification_notes,
	modifications, refund, receipt_number, receipt_issued_at,
	version, created_at, updated_at
`

// Save persists a transaction with an optimistic version guard on updates.
func (r *TransactionRepo) Save(ctx context.Context, txn model.PaymentTransaction) error {
	allocations, err := json.Marshal(txn.Allocations())
	if err != nil {
		return fmt.Errorf("encode allocations: %w", err)
	}
	modifications, err := json.Marshal(txn.Modifications())
	if err != nil {
		return fmt.Errorf("encode modifications: %w", err)
	}
	var refund []byte
	if txn.RefundDetails() != nil {
		refund, err = json.Marshal(txn.RefundDetails())
		if err != nil {
			return fmt.Errorf("encode refund: %w", err)
		}
	}

	v := txn.Verification()
	query := `
		INSERT INTO payment_transactions (` + transactionColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
		ON CONFLICT (id) DO UPDATE SET
			amount                 = EXCLUDED.amount,
			status                 = EXCLUDED.status,
			allocations            = EXCLUDED.allocations,
			verification_status    = EXCLUDED.verification_status,
			verified_by            = EXCLUDED.verified_by,
			verified_at            = EXCLUDED.verified_at,
			bank_statement_matched = EXCLUDED.bank_statement_matched,
			verification_notes     = EXCLUDED.verification_notes,
			modifications          = EXCLUDED.modifications,
			refund                 = EXCLUDED.refund,
			receipt_number         = EXCLUDED.receipt_number,
			receipt_issued_at      = EXCLUDED.receipt_issued_at,
			version                = EXCLUDED.version,
			updated_at             = EXCLUDED.updated_at
		WHERE payment_transactions.version = EXCLUDED.version - 1
	`
	tag, err := r.db.Exec(ctx, query,
		txn.ID(), txn.TenantID(), txn.PlanID(), txn.Amount(), txn.OriginalAmount(),
		txn.PaymentDate(), txn.Method().String(), txn.Status().String(), txn.Reference(), txn.Notes(),
		allocations, v.Status.String(), v.VerifiedBy, v.VerifiedAt,
		v.BankStatementMatched, v.Notes,
		modifications, refund, txn.ReceiptNumber(), txn.ReceiptIssuedAt(),
		txn.Version(), txn.CreatedAt(), txn.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("save transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return port.ErrVersionConflict
	}
	return nil
}

// FindByID retrieves a transaction by ID.
func (r *TransactionRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (model.PaymentTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM payment_transactions WHERE tenant_id = $1 AND id = $2`
	return scanTransaction(r.db.QueryRow(ctx, query, tenantID, id))
}

// FindByPlanID retrieves all transactions recorded against a plan, oldest
// payment first.
func (r *TransactionRepo) FindByPlanID(ctx context.Context, tenantID, planID uuid.UUID) ([]model.PaymentTransaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM payment_transactions
		WHERE tenant_id = $1 AND plan_id = $2
		ORDER BY payment_date, created_at
	`
	rows, err := r.db.Query(ctx, query, tenantID, planID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []model.PaymentTransaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, txn)
	}
	return transactions, rows.Err()
}

func scanTransaction(row pgx.Row) (model.PaymentTransaction, error) {
	var (
		id, tenantID, planID           uuid.UUID
		amount, originalAmount         decimal.Decimal
		paymentDate                    pgTime
		method, status                 string
		reference, notes               string
		rawAllocations                 []byte
		verificationStatus             string
		verifiedBy                     uuid.UUID
		verifiedAt, receiptIssuedAt    *time.Time
		bankStatementMatched           bool
		verificationNotes              string
		rawModifications, rawRefund    []byte
		receiptNumber                  string
		version                        int
		createdAt, updatedAt           pgTime
	)
	err := row.Scan(
		&id, &tenantID, &planID, &amount, &originalAmount,
		&paymentDate, &method, &status, &reference, &notes,
		&rawAllocations, &verificationStatus, &verifiedBy, &verifiedAt,
		&bankStatementMatched, &verificationNotes,
		&rawModifications, &rawRefund, &receiptNumber, &receiptIssuedAt,
		&version, &createdAt, &updatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.PaymentTransaction{}, port.ErrTransactionNotFound
	}
	if err != nil {
		return model.PaymentTransaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	var allocations []model.Allocation
	if err := json.Unmarshal(rawAllocations, &allocations); err != nil {
		return model.PaymentTransaction{}, fmt.Errorf("decode allocations: %w", err)
	}
	var modifications []model.Modification
	if err := json.Unmarshal(rawModifications, &modifications); err != nil {
		return model.PaymentTransaction{}, fmt.Errorf("decode modifications: %w", err)
	}
	var refund *model.RefundDetails
	if len(rawRefund) > 0 {
		refund = &model.RefundDetails{}
		if err := json.Unmarshal(rawRefund, refund); err != nil {
			return model.PaymentTransaction{}, fmt.Errorf("decode refund: %w", err)
		}
	}

	paymentMethod, err := valueobject.NewPaymentMethod(method)
	if err != nil {
		return model.PaymentTransaction{}, err
	}
	transactionStatus, err := valueobject.NewTransactionStatus(status)
	if err != nil {
		return model.PaymentTransaction{}, err
	}
	vStatus, err := valueobject.NewVerificationStatus(verificationStatus)
	if err != nil {
		return model.PaymentTransaction{}, err
	}

	return model.ReconstructPaymentTransaction(
		id, tenantID, planID,
		amount, originalAmount,
		paymentDate.Time(), paymentMethod, transactionStatus,
		reference, notes,
		allocations,
		model.Verification{
			Status:               vStatus,
			VerifiedBy:           verifiedBy,
			VerifiedAt:           verifiedAt,
			BankStatementMatched: bankStatementMatched,
			Notes:                verificationNotes,
		},
		modifications, refund,
		receiptNumber, receiptIssuedAt,
		version, createdAt.Time(), updatedAt.Time(),
	), nil
}
