package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/donorflow/donation-api/internal/config"
	"github.com/donorflow/donation-api/internal/database"
	"github.com/donorflow/donation-api/internal/domain"
	"github.com/donorflow/donation-api/internal/events"
	"github.com/donorflow/donation-api/internal/jobs"
	"github.com/donorflow/donation-api/internal/logger"
	"github.com/donorflow/donation-api/internal/metrics"
	"github.com/donorflow/donation-api/internal/ops"
	"github.com/donorflow/donation-api/internal/repository"
	"github.com/donorflow/donation-api/internal/service"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
	)

	// Load full configuration with secrets
	// In development: uses environment variables
	// In staging/production: fetches from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	// Connect to database
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	m := metrics.New()

	// Initialize repositories
	donationRepo := repository.NewDonationRepository(db)
	serialRepo := repository.NewSerialNumberRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	// Initialize services
	serialLog := logger.WithComponent(log, "serial")
	dispatcher := events.NewDispatcher(logger.WithComponent(log, "events"))

	formatter := service.NewSerialCodeFormatter(nil)
	allocator := service.NewSerialAllocator(db, serialRepo, settingRepo, serialLog)
	serialService := service.NewDonationSerialService(
		allocator,
		formatter,
		serialRepo,
		settingRepo,
		donationRepo,
		domain.SequentialSettings{
			Enabled:     cfg.Sequential.Enabled,
			Padding:     cfg.Sequential.Padding,
			Prefix:      cfg.Sequential.Prefix,
			Suffix:      cfg.Sequential.Suffix,
			TitlePrefix: cfg.Sequential.TitlePrefix,
		},
		m,
		serialLog,
	)
	// Serial numbering reacts to donation lifecycle events. Whatever ingests
	// donations in this process (importers, queue consumers) goes through
	// DonationService, which dispatches them.
	dispatcher.OnDonationCreated(serialService.HandleDonationCreated)
	dispatcher.OnDonationDeleted(serialService.HandleDonationDeleted)

	// Initialize and start scheduler for background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.SerialAuditEnabled {
		jobsLog := logger.WithComponent(log, "jobs")
		scheduler = jobs.NewScheduler(jobsLog)

		auditJob := jobs.NewSerialAuditJob(serialRepo, settingRepo, jobsLog)
		if err := jobs.RegisterSerialAuditJob(scheduler, auditJob, cfg.Jobs.SerialAuditCron); err != nil {
			log.Error("Failed to register serial audit job", zap.Error(err))
		} else {
			scheduler.Start()
			log.Info("Scheduler started with serial audit job",
				zap.String("cron_expr", cfg.Jobs.SerialAuditCron),
			)
		}
	} else {
		log.Info("Serial audit job disabled")
	}

	// Create ops HTTP server (health, metrics)
	rt := ops.NewRouter(logger.WithComponent(log, "ops"), db, m)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Ops.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Ops server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Stop scheduler if running
		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
