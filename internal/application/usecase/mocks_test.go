package usecase_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/propvantage/receivables-service/internal/domain/model"
	"github.com/propvantage/receivables-service/internal/domain/port"
	"github.com/propvantage/receivables-service/internal/domain/valueobject"
	"github.com/propvantage/receivables-service/pkg/events"
)

// --- Mock implementations ---

type mockTemplateRepository struct {
	findByNameFunc func(ctx context.Context, tenantID uuid.UUID, name string) (model.PlanTemplate, error)
	saved          []model.PlanTemplate
}

func (m *mockTemplateRepository) Save(_ context.Context, tmpl model.PlanTemplate) error {
	m.saved = append(m.saved, tmpl)
	return nil
}

func (m *mockTemplateRepository) FindByID(_ context.Context, _, _ uuid.UUID) (model.PlanTemplate, error) {
	return model.PlanTemplate{}, port.ErrTemplateNotFound
}

func (m *mockTemplateRepository) FindByName(ctx context.Context, tenantID uuid.UUID, name string) (model.PlanTemplate, error) {
	if m.findByNameFunc != nil {
		return m.findByNameFunc(ctx, tenantID, name)
	}
	return model.PlanTemplate{}, port.ErrTemplateNotFound
}

func (m *mockTemplateRepository) ListActive(_ context.Context, _ uuid.UUID) ([]model.PlanTemplate, error) {
	return nil, nil
}

type mockPlanRepository struct {
	findByIDFunc     func(ctx context.Context, tenantID, id uuid.UUID) (model.PaymentPlan, error)
	findBySaleIDFunc func(ctx context.Context, tenantID, saleID uuid.UUID) (model.PaymentPlan, error)
	listFlaggedFunc  func(ctx context.Context, limit int) ([]model.PaymentPlan, error)
	overdueFunc      func(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]port.OverdueCustomerSummary, error)
	savedPlans       []model.PaymentPlan
}

func (m *mockPlanRepository) Save(_ context.Context, plan model.PaymentPlan) error {
	m.savedPlans = append(m.savedPlans, plan)
	return nil
}

func (m *mockPlanRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (model.PaymentPlan, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, tenantID, id)
	}
	return model.PaymentPlan{}, port.ErrPlanNotFound
}

func (m *mockPlanRepository) FindBySaleID(ctx context.Context, tenantID, saleID uuid.UUID) (model.PaymentPlan, error) {
	if m.findBySaleIDFunc != nil {
		return m.findBySaleIDFunc(ctx, tenantID, saleID)
	}
	return model.PaymentPlan{}, port.ErrPlanNotFound
}

func (m *mockPlanRepository) ListFlaggedForResweep(ctx context.Context, limit int) ([]model.PaymentPlan, error) {
	if m.listFlaggedFunc != nil {
		return m.listFlaggedFunc(ctx, limit)
	}
	return nil, nil
}

func (m *mockPlanRepository) OverdueReport(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]port.OverdueCustomerSummary, error) {
	if m.overdueFunc != nil {
		return m.overdueFunc(ctx, tenantID, asOf)
	}
	return nil, nil
}

type mockInstallmentRepository struct {
	findByIDFunc      func(ctx context.Context, tenantID, id uuid.UUID) (model.Installment, error)
	findByPlanIDFunc  func(ctx context.Context, tenantID, planID uuid.UUID) ([]model.Installment, error)
	saveFunc          func(ctx context.Context, inst model.Installment) error
	savedInstallments []model.Installment
}

func (m *mockInstallmentRepository) SaveAll(_ context.Context, installments []model.Installment) error {
	m.savedInstallments = append(m.savedInstallments, installments...)
	return nil
}

func (m *mockInstallmentRepository) Save(ctx context.Context, inst model.Installment) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, inst)
	}
	m.savedInstallments = append(m.savedInstallments, inst)
	return nil
}

func (m *mockInstallmentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (model.Installment, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, tenantID, id)
	}
	return model.Installment{}, port.ErrInstallmentNotFound
}

func (m *mockInstallmentRepository) FindByPlanID(ctx context.Context, tenantID, planID uuid.UUID) ([]model.Installment, error) {
	if m.findByPlanIDFunc != nil {
		return m.findByPlanIDFunc(ctx, tenantID, planID)
	}
	return nil, nil
}

type mockTransactionRepository struct {
	findByIDFunc     func(ctx context.Context, tenantID, id uuid.UUID) (model.PaymentTransaction, error)
	findByPlanIDFunc func(ctx context.Context, tenantID, planID uuid.UUID) ([]model.PaymentTransaction, error)
	savedTxns        []model.PaymentTransaction
}

func (m *mockTransactionRepository) Save(_ context.Context, txn model.PaymentTransaction) error {
	m.savedTxns = append(m.savedTxns, txn)
	return nil
}

func (m *mockTransactionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (model.PaymentTransaction, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, tenantID, id)
	}
	return model.PaymentTransaction{}, port.ErrTransactionNotFound
}

func (m *mockTransactionRepository) FindByPlanID(ctx context.Context, tenantID, planID uuid.UUID) ([]model.PaymentTransaction, error) {
	if m.findByPlanIDFunc != nil {
		return m.findByPlanIDFunc(ctx, tenantID, planID)
	}
	return nil, nil
}

type mockOutboxRepository struct {
	entries []events.OutboxEntry
}

func (m *mockOutboxRepository) Store(_ context.Context, entries []events.OutboxEntry) error {
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *mockOutboxRepository) FetchUnpublished(_ context.Context, _ int) ([]events.OutboxEntry, error) {
	return nil, nil
}

func (m *mockOutboxRepository) MarkPublished(_ context.Context, _ []uuid.UUID) error {
	return nil
}

type mockEventPublisher struct {
	published []events.DomainEvent
	topics    []string
}

func (m *mockEventPublisher) Publish(_ context.Context, topic string, evts ...events.DomainEvent) error {
	m.topics = append(m.topics, topic)
	m.published = append(m.published, evts...)
	return nil
}

// mockUnitOfWork runs the function directly against the mock repositories,
// with no transaction or retry semantics.
type mockUnitOfWork struct {
	repos port.Repositories
}

func newMockUnitOfWork() (*mockUnitOfWork, *mockTemplateRepository, *mockPlanRepository, *mockInstallmentRepository, *mockTransactionRepository, *mockOutboxRepository) {
	templates := &mockTemplateRepository{}
	plans := &mockPlanRepository{}
	installments := &mockInstallmentRepository{}
	transactions := &mockTransactionRepository{}
	outbox := &mockOutboxRepository{}
	uow := &mockUnitOfWork{repos: port.Repositories{
		Templates:    templates,
		Plans:        plans,
		Installments: installments,
		Transactions: transactions,
		Outbox:       outbox,
	}}
	return uow, templates, plans, installments, transactions, outbox
}

func (m *mockUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context, repos port.Repositories) error) error {
	return fn(ctx, m.repos)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// --- Fixtures ---

func fixtureTemplate(t *testing.T, tenantID uuid.UUID) model.PlanTemplate {
	t.Helper()
	tmpl, err := model.NewPlanTemplate(tenantID, "standard-10-40-50", []model.TemplateLine{
		{Number: 1, Description: "Booking amount", Percentage: decimal.NewFromInt(10), DueAfterDays: 0, Milestone: valueobject.MilestoneBooking},
		{Number: 2, Description: "Construction linked", Percentage: decimal.NewFromInt(40), DueAfterDays: 30, Milestone: valueobject.MilestoneTimeBased},
		{Number: 3, Description: "On possession", Percentage: decimal.NewFromInt(50), DueAfterDays: 180, Milestone: valueobject.MilestonePossession, Optional: true},
	}, time.Now().UTC())
	require.NoError(t, err)
	return tmpl
}

func fixturePlan(t *testing.T, tenantID uuid.UUID) model.PaymentPlan {
	t.Helper()
	plan, err := model.NewPaymentPlan(
		tenantID, uuid.New(), uuid.New(),
		"INR",
		model.AmountBreakdown{
			BasePrice: decimal.NewFromInt(9_500_000),
			Taxes:     decimal.NewFromInt(500_000),
		},
		model.PlanTerms{
			GracePeriodDays:     5,
			LateFeeRatePerMonth: decimal.NewFromInt(2),
		},
		time.Now().UTC(),
	)
	require.NoError(t, err)
	return plan.ClearEvents()
}

// fixtureRecordedPayment builds a plan whose first installment is fully paid
// by a single allocated transaction.
// fixtureSplitPayment records one transaction whose amount reached the booking
// installment through two separate allocations.
func fixtureSplitPayment(t *testing.T) (model.PaymentPlan, []model.Installment, model.PaymentTransaction) {
	t.Helper()
	now := time.Now().UTC()
	plan := fixturePlan(t, uuid.New())
	lines := fixtureInstallments(t, plan, now.AddDate(0, 0, -60))

	txn, err := model.NewPaymentTransaction(
		plan.TenantID(), plan.ID(),
		decimal.NewFromInt(1_000_000), now,
		valueobject.MethodBankTransfer, "UTR-990011", "",
		now,
	)
	require.NoError(t, err)
	txn, err = txn.WithAllocations([]model.Allocation{
		{InstallmentID: lines[0].ID(), Amount: decimal.NewFromInt(600_000), Type: model.AllocationManual},
		{InstallmentID: lines[0].ID(), Amount: decimal.NewFromInt(400_000), Type: model.AllocationManual},
	}, now)
	require.NoError(t, err)

	for _, amount := range []int64{600_000, 400_000} {
		paid, err := lines[0].RecordPayment(decimal.NewFromInt(amount), txn.ID(), now)
		require.NoError(t, err)
		lines[0] = paid
	}
	return plan, lines, txn.ClearEvents()
}

func fixtureRecordedPayment(t *testing.T) (model.PaymentPlan, []model.Installment, model.PaymentTransaction) {
	t.Helper()
	now := time.Now().UTC()
	plan := fixturePlan(t, uuid.New())
	lines := fixtureInstallments(t, plan, now.AddDate(0, 0, -60))

	txn, err := model.NewPaymentTransaction(
		plan.TenantID(), plan.ID(),
		decimal.NewFromInt(1_000_000), now,
		valueobject.MethodBankTransfer, "UTR-445566", "",
		now,
	)
	require.NoError(t, err)
	txn, err = txn.WithAllocations([]model.Allocation{
		{InstallmentID: lines[0].ID(), Amount: decimal.NewFromInt(1_000_000), Type: model.AllocationAuto},
	}, now)
	require.NoError(t, err)

	paid, err := lines[0].RecordPayment(decimal.NewFromInt(1_000_000), txn.ID(), now)
	require.NoError(t, err)
	lines[0] = paid
	return plan, lines, txn.ClearEvents()
}

func wireTransactionMocks(plan model.PaymentPlan, lines []model.Installment, txn model.PaymentTransaction) (*mockUnitOfWork, *mockInstallmentRepository, *mockTransactionRepository, *mockOutboxRepository) {
	uow, _, plans, installments, transactions, outbox := newMockUnitOfWork()
	plans.findByIDFunc = func(_ context.Context, _, _ uuid.UUID) (model.PaymentPlan, error) {
		return plan, nil
	}
	installments.findByPlanIDFunc = func(_ context.Context, _, _ uuid.UUID) ([]model.Installment, error) {
		return lines, nil
	}
	transactions.findByIDFunc = func(_ context.Context, _, _ uuid.UUID) (model.PaymentTransaction, error) {
		return txn, nil
	}
	transactions.findByPlanIDFunc = func(_ context.Context, _, _ uuid.UUID) ([]model.PaymentTransaction, error) {
		return []model.PaymentTransaction{txn}, nil
	}
	return uow, installments, transactions, outbox
}

func fixtureInstallments(t *testing.T, plan model.PaymentPlan, bookingDate time.Time) []model.Installment {
	t.Helper()
	tmpl := fixtureTemplate(t, plan.TenantID())
	installments, err := model.GenerateSchedule(
		plan.ID(), plan.TenantID(),
		plan.TotalAmount(), tmpl,
		bookingDate, plan.Terms().GracePeriodDays,
		bookingDate,
	)
	require.NoError(t, err)
	return installments
}
