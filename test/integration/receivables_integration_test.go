//go:build integration

package integration

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propvantage/receivables-service/internal/application/dto"
	"github.com/propvantage/receivables-service/internal/application/usecase"
	"github.com/propvantage/receivables-service/internal/domain/model"
	"github.com/propvantage/receivables-service/internal/domain/port"
	"github.com/propvantage/receivables-service/internal/domain/service"
	"github.com/propvantage/receivables-service/internal/domain/valueobject"
	pg "github.com/propvantage/receivables-service/internal/infrastructure/persistence/postgres"
	"github.com/propvantage/receivables-service/pkg/events"
	"github.com/propvantage/receivables-service/pkg/testutil"
)

func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container := testutil.NewPostgresContainer(ctx, t)
	t.Cleanup(func() { container.Cleanup(t) })

	container.ApplyMigrations(ctx, t, migrationsDir())
	return container.Pool
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// nopPublisher stands in for Kafka. Events still reach the outbox table, which
// is what the assertions check.
type nopPublisher struct{}

func (nopPublisher) Publish(_ context.Context, _ string, _ ...events.DomainEvent) error {
	return nil
}

var _ port.EventPublisher = nopPublisher{}

func saveTemplate(t *testing.T, pool *pgxpool.Pool, tenantID uuid.UUID) model.PlanTemplate {
	t.Helper()
	tmpl, err := model.NewPlanTemplate(tenantID, "construction-linked", []model.TemplateLine{
		{Number: 1, Description: "Booking amount", Percentage: decimal.NewFromInt(10), DueAfterDays: 0, Milestone: valueobject.MilestoneBooking},
		{Number: 2, Description: "Construction linked", Percentage: decimal.NewFromInt(40), DueAfterDays: 30, Milestone: valueobject.MilestoneTimeBased},
		{Number: 3, Description: "On possession", Percentage: decimal.NewFromInt(50), DueAfterDays: 180, Milestone: valueobject.MilestonePossession, Optional: true},
	}, time.Now().UTC())
	require.NoError(t, err)

	require.NoError(t, pg.NewTemplateRepo(pool).Save(context.Background(), tmpl))
	return tmpl
}

func TestTemplateRepository_SaveAndFind(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	tenantID := uuid.New()

	tmpl := saveTemplate(t, pool, tenantID)
	repo := pg.NewTemplateRepo(pool)

	retrieved, err := repo.FindByName(ctx, tenantID, "construction-linked")
	require.NoError(t, err)

	assert.Equal(t, tmpl.ID(), retrieved.ID())
	assert.Equal(t, tmpl.TenantID(), retrieved.TenantID())
	assert.Equal(t, "construction-linked", retrieved.Name())
	assert.True(t, retrieved.Active())
	require.Len(t, retrieved.Lines(), 3)
	assert.Equal(t, valueobject.MilestonePossession, retrieved.Lines()[2].Milestone)
	assert.True(t, retrieved.Lines()[2].Optional)

	_, err = repo.FindByName(ctx, tenantID, "missing")
	require.ErrorIs(t, err, port.ErrTemplateNotFound)
}

func TestSeededTemplates(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	defaultTenant := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	tmpl, err := pg.NewTemplateRepo(pool).FindByName(ctx, defaultTenant, "standard-10-40-50")
	require.NoError(t, err)
	require.Len(t, tmpl.Lines(), 3)
	require.NoError(t, tmpl.Validate())
}

func TestPaymentLifecycle(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	logger := testLogger()

	tenantID := uuid.New()
	saleID := uuid.New()
	customerID := uuid.New()
	userID := uuid.New()
	saveTemplate(t, pool, tenantID)

	uow := pg.NewUnitOfWork(pool, logger)
	publisher := nopPublisher{}
	allocator := service.NewAllocationEngine()

	createUC := usecase.NewCreatePaymentPlanUseCase(uow, publisher, logger)
	payUC := usecase.NewProcessPaymentUseCase(uow, allocator, publisher, logger)
	waiveUC := usecase.NewWaiveInstallmentUseCase(uow, publisher, logger)
	recalcUC := usecase.NewRecalculatePlanUseCase(uow, logger)
	summaryUC := usecase.NewGetPaymentSummaryUseCase(pg.NewPlanRepo(pool), pg.NewInstallmentRepo(pool))
	reportUC := usecase.NewOverdueReportUseCase(pg.NewPlanRepo(pool))

	bookingDate := time.Now().UTC().AddDate(0, 0, -60)

	// Create the plan: 9.5M base + 500K taxes split 10/40/50.
	plan, err := createUC.Execute(ctx, dto.CreatePaymentPlanRequest{
		TenantID:            tenantID,
		SaleID:              saleID,
		CustomerID:          customerID,
		TemplateName:        "construction-linked",
		Currency:            "INR",
		BasePrice:           decimal.NewFromInt(9_500_000),
		Taxes:               decimal.NewFromInt(500_000),
		BookingDate:         bookingDate,
		GracePeriodDays:     5,
		LateFeeRatePerMonth: decimal.NewFromInt(2),
	})
	require.NoError(t, err)
	assert.Equal(t, "ACTIVE", plan.Status)
	assert.True(t, decimal.NewFromInt(10_000_000).Equal(plan.TotalAmount))
	require.Len(t, plan.Installments, 3)
	assert.True(t, decimal.NewFromInt(1_000_000).Equal(plan.Installments[0].CurrentAmount))
	assert.True(t, decimal.NewFromInt(5_000_000).Equal(plan.Installments[2].CurrentAmount))

	// A second plan for the same sale is rejected.
	_, err = createUC.Execute(ctx, dto.CreatePaymentPlanRequest{
		TenantID:     tenantID,
		SaleID:       saleID,
		CustomerID:   customerID,
		TemplateName: "construction-linked",
		Currency:     "INR",
		BasePrice:    decimal.NewFromInt(1_000_000),
	})
	require.ErrorIs(t, err, model.ErrPlanAlreadyExists)

	// Pay the booking installment in full, auto-allocated.
	txn, err := payUC.Execute(ctx, dto.ProcessPaymentRequest{
		TenantID:  tenantID,
		PlanID:    plan.ID,
		Amount:    decimal.NewFromInt(1_000_000),
		Method:    "BANK_TRANSFER",
		Reference: "UTR-778899",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, txn.ReceiptNumber)
	require.Len(t, txn.Allocations, 1)
	assert.Equal(t, plan.Installments[0].ID, txn.Allocations[0].InstallmentID)
	assert.True(t, txn.Unallocated.IsZero())

	// Waive the optional possession installment.
	waived, err := waiveUC.Execute(ctx, dto.WaiveInstallmentRequest{
		TenantID:      tenantID,
		PlanID:        plan.ID,
		InstallmentID: plan.Installments[2].ID,
		Reason:        "goodwill settlement",
		UserID:        userID,
	})
	require.NoError(t, err)
	assert.Equal(t, "WAIVED", waived.Status)
	assert.True(t, waived.PendingAmount.IsZero())

	// The construction installment is 30 days past due; the sweep accrues
	// its late fee and refreshes the plan summary.
	recalc, err := recalcUC.Execute(ctx, dto.RecalculatePlanRequest{
		TenantID: tenantID,
		PlanID:   plan.ID,
	})
	require.NoError(t, err)
	assert.False(t, recalc.ResweepRequired)
	assert.GreaterOrEqual(t, recalc.FeesAccrued, 1)
	assert.True(t, recalc.Summary.TotalLateFees.GreaterThan(decimal.Zero))

	// Summary reflects a single open installment of 4M plus its late fee.
	summary, err := summaryUC.Execute(ctx, dto.GetPaymentSummaryRequest{
		TenantID: tenantID,
		PlanID:   plan.ID,
	})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1_000_000).Equal(summary.Summary.TotalPaid))
	assert.True(t, decimal.NewFromInt(4_000_000).Equal(summary.Summary.TotalOutstanding))
	assert.True(t, summary.Summary.TotalOverdue.GreaterThan(decimal.Zero))
	require.Len(t, summary.Installments, 3)
	assert.Equal(t, "PAID", summary.Installments[0].Status)
	assert.Equal(t, "OVERDUE", summary.Installments[1].Status)
	assert.Equal(t, "WAIVED", summary.Installments[2].Status)

	// The overdue report carries one row for this customer.
	report, err := reportUC.Execute(ctx, dto.OverdueReportRequest{TenantID: tenantID})
	require.NoError(t, err)
	require.Len(t, report.Customers, 1)
	row := report.Customers[0]
	assert.Equal(t, customerID, row.CustomerID)
	assert.Equal(t, saleID, row.SaleID)
	assert.Equal(t, 1, row.OverdueInstallments)
	assert.True(t, decimal.NewFromInt(4_000_000).Equal(row.OverdueAmount))
	assert.True(t, row.TotalLateFees.GreaterThan(decimal.Zero))

	// Every state change left an outbox entry for the relay to drain.
	entries, err := pg.NewOutboxRepo(pool).FetchUnpublished(ctx, 100)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestPlanRepository_VersionConflict(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	logger := testLogger()

	tenantID := uuid.New()
	saveTemplate(t, pool, tenantID)

	uow := pg.NewUnitOfWork(pool, logger)
	createUC := usecase.NewCreatePaymentPlanUseCase(uow, nopPublisher{}, logger)

	created, err := createUC.Execute(ctx, dto.CreatePaymentPlanRequest{
		TenantID:     tenantID,
		SaleID:       uuid.New(),
		CustomerID:   uuid.New(),
		TemplateName: "construction-linked",
		Currency:     "INR",
		BasePrice:    decimal.NewFromInt(1_000_000),
	})
	require.NoError(t, err)

	repo := pg.NewPlanRepo(pool)
	stale, err := repo.FindByID(ctx, tenantID, created.ID)
	require.NoError(t, err)

	// First writer wins.
	first := stale.BumpVersion()
	require.NoError(t, repo.Save(ctx, first))

	// The second writer still holds the old version and is rejected.
	second := stale.BumpVersion()
	require.ErrorIs(t, repo.Save(ctx, second), port.ErrVersionConflict)
}

func TestOutboxRepository_Roundtrip(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := pg.NewOutboxRepo(pool)

	entry := events.NewOutboxEntry(events.NewBaseEvent(
		"test.event",
		uuid.New(),
		"PaymentPlan",
		[]byte(`{"k":"v"}`),
	))
	require.NoError(t, repo.Store(ctx, []events.OutboxEntry{entry}))

	fetched, err := repo.FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, fetched, 1)
	assert.Equal(t, entry.ID, fetched[0].ID)
	assert.Equal(t, "test.event", fetched[0].EventType)

	require.NoError(t, repo.MarkPublished(ctx, []uuid.UUID{entry.ID}))

	fetched, err = repo.FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, fetched)
}
