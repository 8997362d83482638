package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"qabul_backend/internal/adapters/storage"
	"qabul_backend/internal/applicants"
	"qabul_backend/internal/auth"
	"qabul_backend/internal/catalog"
	"qabul_backend/internal/crmsync"
	"qabul_backend/internal/documents"
	"qabul_backend/internal/events"
	apphttp "qabul_backend/internal/http"
	"qabul_backend/internal/http/router"
	"qabul_backend/internal/sms"
	"qabul_backend/internal/syncqueue"
	"qabul_backend/platform/config"
	"qabul_backend/platform/db"
	"qabul_backend/platform/logger"
	"qabul_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	var smsSender sms.Sender
	if client := sms.NewClient(cfg, log); client != nil {
		smsSender = client
		log.Info("sms gateway initialized")
	} else {
		log.Warn("SMS gateway not configured; verification codes will not be delivered")
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	catalogModule := catalog.NewModule(pool, val)
	authModule := auth.NewModule(pool, cfg, smsSender, eventBus, val, log)
	applicantsModule := applicants.NewModule(pool, catalogModule.Service(), eventBus, val, log)

	// CRM sync subscribes to admissions milestones (not HTTP-facing)
	crmsyncModule, err := crmsync.NewModule(cfg, pool, log)
	if err != nil {
		log.Error("failed to initialize crm sync module", "error", err)
		panic("failed to initialize crm sync module: " + err.Error())
	}
	crmsyncModule.RegisterHandlers(eventBus)
	crmsyncModule.SetRetryQueue(syncqueue.NewClient(syncqueue.New(pool), log))

	httpModules := []apphttp.Module{
		authModule,
		applicantsModule,
		catalogModule,
	}

	// Storage service for document uploads (MinIO)
	if cfg.IsMinIOEnabled() {
		storageSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		if err := withRetry(ctx, log, "ensure documents bucket", 5, 2*time.Second, func() error {
			return storageSvc.EnsureBucketExists(ctx, cfg.GetMinioBucketDocuments())
		}); err != nil {
			log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.GetMinioBucketDocuments())
			panic("failed to ensure storage bucket exists: " + err.Error())
		}
		httpModules = append(httpModules, documents.NewModule(pool, storageSvc, cfg, log))
		log.Info("storage service initialized", "documentsBucket", cfg.GetMinioBucketDocuments())
	} else {
		log.Warn("MinIO not configured; document uploads disabled")
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules:  httpModules,
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
