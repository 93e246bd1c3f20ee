// Package main is the entry point for the scholarship application service.
//
// The architecture follows Clean Architecture and DDD:
// - Domain: pure business logic without external dependencies
// - Application: use case orchestration (Commands/Queries/Event Handlers)
// - Infrastructure: repositories, caching, messaging
// - Interface: HTTP endpoints
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	// Application layer
	"github.com/scholar-hub/scholarship-hub/internal/application/command"
	"github.com/scholar-hub/scholarship-hub/internal/application/eligibility"
	"github.com/scholar-hub/scholarship-hub/internal/application/eventhandler"
	"github.com/scholar-hub/scholarship-hub/internal/application/query"

	// Domain layer
	"github.com/scholar-hub/scholarship-hub/internal/domain/scholarship"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"

	// Infrastructure layer
	"github.com/scholar-hub/scholarship-hub/internal/infrastructure/messaging"
	"github.com/scholar-hub/scholarship-hub/internal/infrastructure/persistence/postgres"
	"github.com/scholar-hub/scholarship-hub/internal/infrastructure/persistence/redis"
	"github.com/scholar-hub/scholarship-hub/internal/infrastructure/service"

	// Interface layer
	httpserver "github.com/scholar-hub/scholarship-hub/internal/interface/http"

	"github.com/scholar-hub/scholarship-hub/config"
)

func main() {
	ctx := context.Background()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. Configuration
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. Logging
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting scholarship hub",
		"env", string(cfg.App.Environment),
		"version", cfg.App.Version,
		"debug", cfg.App.Debug,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. PostgreSQL
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := connectDatabase(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. Migrations
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Database.RunMigrations {
		log.Info("running database migrations...")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("migrations completed")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. Repositories
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	studentRepo := postgres.NewStudentRepository(dbConn)
	scholarshipRepo := postgres.NewScholarshipRepository(dbConn)
	applicationRepo := postgres.NewApplicationRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. Redis (optional rule cache)
	// ─────────────────────────────────────────────────────────────────────────
	var ruleProvider eligibility.RuleProvider = directRuleProvider{repo: scholarshipRepo}
	var redisCache *redis.Cache

	healthCheckers := map[string]httpserver.HealthChecker{
		"postgres": dbConn,
	}

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCache, err = redis.NewCache(redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			log.Warn("failed to connect to Redis, rule caching disabled", "error", err)
		} else {
			defer func() {
				log.Info("closing Redis connection...")
				_ = redisCache.Close()
			}()
			ruleProvider = redis.NewRuleCache(redisCache, scholarshipRepo, cfg.Redis.RuleTTL, log)
			healthCheckers["redis"] = redisCache
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. Event bus
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	eventBus := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{
		WorkerPoolSize: cfg.EventBus.WorkerPoolSize,
		Logger:         log,
	})
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. Application layer
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")
	clock := shared.SystemClock{}
	ids := service.NewUUIDGenerator()

	gate := eligibility.NewGate(applicationRepo, ruleProvider, clock, eligibility.Config{
		AlwaysOpenWindow: cfg.Eligibility.AlwaysOpenWindow,
		BypassWhitelist:  cfg.Eligibility.BypassWhitelist,
	}, log)

	createHandler := command.NewCreateApplicationHandler(
		studentRepo, scholarshipRepo, applicationRepo, gate, ids, clock, eventBus)
	updateHandler := command.NewUpdateApplicationHandler(applicationRepo, eventBus)
	submitHandler := command.NewSubmitApplicationHandler(applicationRepo, scholarshipRepo, clock, eventBus)
	cancelHandler := command.NewCancelApplicationHandler(applicationRepo, clock, eventBus)
	statusHandler := command.NewUpdateStatusHandler(applicationRepo, clock, eventBus)
	professorHandler := command.NewSubmitProfessorReviewHandler(applicationRepo, ids, clock, eventBus)

	getHandler := query.NewGetApplicationHandler(applicationRepo)
	listMineHandler := query.NewListMyApplicationsHandler(applicationRepo)
	queueHandler := query.NewListReviewQueueHandler(applicationRepo)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. Event handlers (notifications)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("subscribing event handlers...")
	dispatcher := service.NewRetryingDispatcher(service.NewLogDispatcher(log), log)

	onSubmitted := eventhandler.NewOnApplicationSubmittedHandler(studentRepo, dispatcher, log)
	onStatusChanged := eventhandler.NewOnStatusChangedHandler(studentRepo, dispatcher, log)
	onProfessorReviewed := eventhandler.NewOnProfessorReviewedHandler(
		dispatcher, cfg.Notifications.CollegeReviewerIDs, log)

	if err := eventBus.Subscribe(shared.EventApplicationSubmitted, onSubmitted.Handle); err != nil {
		return fmt.Errorf("failed to subscribe handler: %w", err)
	}
	if err := eventBus.Subscribe(shared.EventStatusChanged, onStatusChanged.Handle); err != nil {
		return fmt.Errorf("failed to subscribe handler: %w", err)
	}
	if err := eventBus.Subscribe(shared.EventProfessorReviewed, onProfessorReviewed.Handle); err != nil {
		return fmt.Errorf("failed to subscribe handler: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. HTTP server
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing HTTP server...")
	serverConfig := httpserver.DefaultConfig()
	serverConfig.Host = cfg.HTTP.Host
	serverConfig.Port = cfg.HTTP.Port
	serverConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	serverConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	serverConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	serverConfig.EnableDevTokens = cfg.IsDevelopment()
	serverConfig.Auth = httpserver.AuthConfig{
		Secret:   cfg.Auth.JWTSecret,
		Issuer:   cfg.Auth.Issuer,
		TokenTTL: cfg.Auth.TokenTTL,
	}

	httpServer := httpserver.NewServer(serverConfig, httpserver.Dependencies{
		CreateApplication:     createHandler,
		UpdateApplication:     updateHandler,
		SubmitApplication:     submitHandler,
		CancelApplication:     cancelHandler,
		UpdateStatus:          statusHandler,
		SubmitProfessorReview: professorHandler,
		GetApplication:        getHandler,
		ListMyApplications:    listMineHandler,
		ListReviewQueue:       queueHandler,
		Scholarships:          scholarshipRepo,
		Logger:                log,
		HealthCheckers:        healthCheckers,
	})

	errCh := httpServer.StartAsync()
	log.Info("scholarship hub is running", "http_address", httpServer.Address())

	// ─────────────────────────────────────────────────────────────────────────
	// 11. Wait for shutdown signal
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			log.Error("service error", "error", err)
			return err
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 12. Graceful shutdown
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", "error", err)
		return err
	}

	// Event bus, Redis, and the database close through defers.
	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// connectDatabase opens the connection pool from either DATABASE_URL or the
// individual DB_* settings.
func connectDatabase(ctx context.Context, cfg *config.Config) (*postgres.Connection, error) {
	if cfg.Database.URL != "" {
		return postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	}

	pgCfg := postgres.DefaultConfig()
	pgCfg.Host = cfg.Database.Host
	pgCfg.Port = cfg.Database.Port
	pgCfg.Database = cfg.Database.Name
	pgCfg.User = cfg.Database.User
	pgCfg.Password = cfg.Database.Password
	pgCfg.SSLMode = cfg.Database.SSLMode
	pgCfg.MaxConns = int32(cfg.Database.MaxConns)
	pgCfg.MinConns = int32(cfg.Database.MinConns)
	pgCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	pgCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime
	pgCfg.ConnectTimeout = cfg.Database.ConnectTimeout

	return postgres.NewConnection(ctx, pgCfg)
}

// directRuleProvider serves rules straight from PostgreSQL when Redis is
// disabled.
type directRuleProvider struct {
	repo *postgres.ScholarshipRepository
}

func (p directRuleProvider) RulesFor(ctx context.Context, scholarshipID string) ([]scholarship.Rule, error) {
	return p.repo.GetRules(ctx, scholarshipID)
}

// setupLogger configures structured logging for the process.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.IsProduction() {
		// JSON for production log aggregation.
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}
