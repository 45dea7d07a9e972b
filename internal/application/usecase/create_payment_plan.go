package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/propvantage/receivables-service/internal/application/dto"
	"github.com/propvantage/receivables-service/internal/domain/model"
	"github.com/propvantage/receivables-service/internal/domain/port"
	"github.com/propvantage/receivables-service/internal/domain/service"
	"github.com/propvantage/receivables-service/pkg/events"
)

// CreatePaymentPlanUseCase opens a payment plan for a sale and generates its
// installment schedule from a template.
type CreatePaymentPlanUseCase struct {
	uow       port.UnitOfWork
	publisher port.EventPublisher
	logger    *slog.Logger
}

// NewCreatePaymentPlanUseCase wires dependencies.
func NewCreatePaymentPlanUseCase(
	uow port.UnitOfWork,
	publisher port.EventPublisher,
	logger *slog.Logger,
) *CreatePaymentPlanUseCase {
	return &CreatePaymentPlanUseCase{
		uow:       uow,
		publisher: publisher,
		logger:    logger,
	}
}

// Execute creates the plan and its schedule atomically. A sale may only carry
// one plan.
func (uc *CreatePaymentPlanUseCase) Execute(
	ctx context.Context,
	req dto.CreatePaymentPlanRequest,
) (dto.PaymentPlanResponse, error) {
	now := time.Now().UTC()
	bookingDate := req.BookingDate
	if bookingDate.IsZero() {
		bookingDate = now
	}

	var (
		plan         model.PaymentPlan
		installments []model.Installment
		staged       []events.DomainEvent
	)

	err := uc.uow.Execute(ctx, func(ctx context.Context, repos port.Repositories) error {
		_, err := repos.Plans.FindBySaleID(ctx, req.TenantID, req.SaleID)
		if err == nil {
			return model.ErrPlanAlreadyExists
		}
		if !errors.Is(err, port.ErrPlanNotFound) {
			return fmt.Errorf("check existing plan: %w", err)
		}

		tmpl, err := repos.Templates.FindByName(ctx, req.TenantID, req.TemplateName)
		if err != nil {
			return fmt.Errorf("resolve template %q: %w", req.TemplateName, err)
		}

		plan, err = model.NewPaymentPlan(
			req.TenantID, req.SaleID, req.CustomerID,
			req.Currency,
			model.AmountBreakdown{
				BasePrice:         req.BasePrice,
				Taxes:             req.Taxes,
				AdditionalCharges: req.AdditionalCharges,
				Discounts:         req.Discounts,
			},
			model.PlanTerms{
				GracePeriodDays:     req.GracePeriodDays,
				LateFeeRatePerMonth: req.LateFeeRatePerMonth,
				InterestRate:        req.InterestRate,
				CompoundInterest:    req.CompoundInterest,
			},
			now,
		)
		if err != nil {
			return fmt.Errorf("create plan: %w", err)
		}

		installments, err = model.GenerateSchedule(
			plan.ID(), req.TenantID,
			plan.TotalAmount(), tmpl,
			bookingDate, req.GracePeriodDays,
			now,
		)
		if err != nil {
			return fmt.Errorf("generate schedule: %w", err)
		}

		plan = plan.WithSummary(service.DeriveSummary(installments, nil, now), now)

		if err := repos.Plans.Save(ctx, plan); err != nil {
			return fmt.Errorf("save plan: %w", err)
		}
		if err := repos.Installments.SaveAll(ctx, installments); err != nil {
			return fmt.Errorf("save installments: %w", err)
		}

		staged = plan.DomainEvents()
		return stageEvents(ctx, repos, staged)
	})
	if err != nil {
		return dto.PaymentPlanResponse{}, err
	}

	if err := uc.publisher.Publish(ctx, LedgerTopic, staged...); err != nil {
		// The outbox relay will retry; the plan itself is committed.
		uc.logger.Warn("publish plan events", "plan_id", plan.ID(), "error", err)
	}

	uc.logger.Info("payment plan created",
		"plan_id", plan.ID(),
		"sale_id", req.SaleID,
		"installments", len(installments),
		"total", plan.TotalAmount(),
	)
	return toPlanResponse(plan, installments), nil
}
