package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/propvantage/receivables-service/internal/application/usecase"
	"github.com/propvantage/receivables-service/internal/domain/service"
	"github.com/propvantage/receivables-service/internal/infrastructure/config"
	"github.com/propvantage/receivables-service/internal/infrastructure/messaging"
	pg "github.com/propvantage/receivables-service/internal/infrastructure/persistence/postgres"
	grpcPresentation "github.com/propvantage/receivables-service/internal/presentation/grpc"
	"github.com/propvantage/receivables-service/internal/presentation/rest"
	"github.com/propvantage/receivables-service/pkg/auth"
	pkgkafka "github.com/propvantage/receivables-service/pkg/kafka"
	"github.com/propvantage/receivables-service/pkg/observability"
	pgpkg "github.com/propvantage/receivables-service/pkg/postgres"
)

func main() {
	// Load configuration and initialize the structured logger.
	cfg := config.Load()
	cfg.Validate()

	logger := observability.InitLogger(cfg.Log)
	logger.Info("starting receivables service")

	// Initialize database connection pool.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgpkg.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database", "database", cfg.Database.Database)

	// Run database migrations.
	if migErr := pgpkg.RunMigrations(cfg.Database.DSN(), "file://"+cfg.MigrationsDir); migErr != nil {
		logger.Error("failed to run migrations", "error", migErr)
		os.Exit(1)
	}

	// Initialize infrastructure adapters.
	kafkaProducer := pkgkafka.NewProducer(cfg.Kafka)
	defer kafkaProducer.Close()
	publisher := messaging.NewKafkaPublisher(kafkaProducer)

	uow := pg.NewUnitOfWork(pool, logger)
	planRepo := pg.NewPlanRepo(pool)
	installmentRepo := pg.NewInstallmentRepo(pool)
	outboxRepo := pg.NewOutboxRepo(pool)
	allocator := service.NewAllocationEngine()

	// Initialize use cases.
	createPlanUC := usecase.NewCreatePaymentPlanUseCase(uow, publisher, logger)
	processPaymentUC := usecase.NewProcessPaymentUseCase(uow, allocator, publisher, logger)
	updateTxnAmountUC := usecase.NewUpdateTransactionAmountUseCase(uow, allocator, publisher, logger)
	verifyPaymentUC := usecase.NewVerifyPaymentUseCase(uow, allocator, publisher, logger)
	processRefundUC := usecase.NewProcessRefundUseCase(uow, allocator, publisher, logger)
	adjustAmountUC := usecase.NewAdjustInstallmentAmountUseCase(uow, logger)
	adjustDueDateUC := usecase.NewAdjustInstallmentDueDateUseCase(uow, logger)
	waiveInstallmentUC := usecase.NewWaiveInstallmentUseCase(uow, publisher, logger)
	recalculatePlanUC := usecase.NewRecalculatePlanUseCase(uow, logger)
	getPaymentSummaryUC := usecase.NewGetPaymentSummaryUseCase(planRepo, installmentRepo)
	overdueReportUC := usecase.NewOverdueReportUseCase(planRepo)
	resweepUC := usecase.NewResweepFlaggedPlansUseCase(planRepo, recalculatePlanUC, logger)

	// JWT service (validation-only).
	jwtSvc, err := auth.NewJWTService(cfg.JWT)
	if err != nil {
		logger.Error("failed to initialize JWT service", "error", err)
		os.Exit(1)
	}

	// Initialize gRPC handler and server.
	handler := grpcPresentation.NewLedgerHandler(
		createPlanUC,
		processPaymentUC,
		updateTxnAmountUC,
		verifyPaymentUC,
		processRefundUC,
		adjustAmountUC,
		adjustDueDateUC,
		waiveInstallmentUC,
		recalculatePlanUC,
		getPaymentSummaryUC,
		overdueReportUC,
	)
	grpcServer := grpcPresentation.NewServer(handler, cfg.GRPCPort, logger, jwtSvc)

	// Initialize HTTP health and metrics server.
	_, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		logger.Error("failed to initialize metrics", "error", err)
		os.Exit(1)
	}

	healthHandler := rest.NewHealthHandler(cfg.ServiceName, pool, metricsHandler, logger)
	httpMux := http.NewServeMux()
	healthHandler.RegisterRoutes(httpMux)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           httpMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Background workers run until the root context is cancelled.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	// Outbox relay is the delivery guarantee for ledger events.
	relay := messaging.NewOutboxRelay(outboxRepo, kafkaProducer, usecase.LedgerTopic, 0, logger)
	go relay.Run(workerCtx)

	// Periodic drain of the re-sweep backlog.
	go func() {
		ticker := time.NewTicker(cfg.ResweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				swept, err := resweepUC.Execute(workerCtx, 0)
				if err != nil {
					logger.Warn("resweep run failed", "error", err)
					continue
				}
				if swept > 0 {
					logger.Info("resweep run finished", "plans_swept", swept)
				}
			}
		}
	}()

	// Start servers in goroutines.
	errCh := make(chan error, 2)

	go func() {
		if err := grpcServer.Start(); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "port", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for shutdown signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	// Graceful shutdown.
	logger.Info("shutting down servers")
	workerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	grpcServer.Stop()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("receivables service stopped")
}
