// Package main is the entry point for the progression API server.
//
// The service is the system of record for student curriculum progression:
// the week ledger with its special-week encoding, the completion cascade,
// role-gated daily notes, reassignment, and the alumni transition. The
// architecture follows Clean Architecture and DDD:
//   - Domain: progression rules with no external dependencies
//   - Application: commands, queries, sagas, event handlers
//   - Infrastructure: PostgreSQL, Redis, badge service client
//   - Interface: REST API
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/linguahub/progression-hub/config"
	"github.com/linguahub/progression-hub/internal/application/command"
	"github.com/linguahub/progression-hub/internal/application/eventhandler"
	"github.com/linguahub/progression-hub/internal/application/query"
	"github.com/linguahub/progression-hub/internal/application/saga"
	"github.com/linguahub/progression-hub/internal/infrastructure/messaging"
	"github.com/linguahub/progression-hub/internal/infrastructure/persistence/postgres"
	infraredis "github.com/linguahub/progression-hub/internal/infrastructure/persistence/redis"
	"github.com/linguahub/progression-hub/internal/infrastructure/service"
	httpserver "github.com/linguahub/progression-hub/internal/interface/http"
	"github.com/linguahub/progression-hub/pkg/logger"
)

func main() {
	// .env is optional; real deployments configure through the environment.
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.New(logger.Options{
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.Observability.LogCaller,
	})
	log.Info("starting progression API",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.Bool("debug", cfg.App.Debug),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. MIGRATIONS
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Database.AutoMigrate {
		log.Info("running database migrations")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		status, err := migrator.Status(ctx)
		if err != nil {
			log.Warn("failed to get migration status", logger.Err(err))
		} else {
			applied := 0
			for _, m := range status {
				if m.IsApplied {
					applied++
				}
			}
			log.Info("migrations completed",
				logger.Int("applied", applied),
				logger.Int("total", len(status)),
			)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		redisCache   *infraredis.Cache
		currentCache query.CurrentWeekCache
	)

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis")
		redisCache, err = infraredis.NewCache(infraredis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   3,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", logger.Err(err))
			redisCache = nil
		} else {
			defer redisCache.Close()
			if cfg.Features.IsEnabled(config.FeatureCurrentWeekCache, nil) {
				currentCache = infraredis.NewProgressionCache(redisCache)
			}
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. REPOSITORIES
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories")
	profileRepo := postgres.NewProfileRepository(dbConn)
	weekRepo := postgres.NewWeekRepository(dbConn)
	noteRepo := postgres.NewNoteRepository(dbConn)
	topicCatalog := postgres.NewTopicCatalog(dbConn)
	progressRepo := postgres.NewTopicProgressRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus")
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log
	eventBus := messaging.NewInMemoryEventBus(busConfig)
	defer func() {
		log.Info("closing event bus")
		_ = eventBus.Close()
	}()

	if redisCache != nil && cfg.Features.IsEnabled(config.FeatureRedisEventBridge, nil) {
		bridge := messaging.NewRedisEventBridge(redisCache, log)
		if err := eventBus.SubscribeAll(bridge.Handler()); err != nil {
			return fmt.Errorf("failed to register redis event bridge: %w", err)
		}
		log.Info("redis event bridge registered")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer")

	markSpecial := command.NewMarkSpecialHandler(weekRepo, eventBus)
	markSpecial.SetAllowRepeats(cfg.Features.IsEnabled(config.FeatureSpecialWeekRepeats, nil))

	deps := httpserver.Dependencies{
		UpsertWeek:        command.NewUpsertWeekHandler(weekRepo),
		CompleteWeek:      command.NewCompleteWeekHandler(weekRepo, eventBus),
		ReopenWeek:        command.NewReopenWeekHandler(weekRepo, eventBus),
		RenameWeek:        command.NewRenameWeekHandler(weekRepo),
		MarkSpecial:       markSpecial,
		DeleteSpecialWeek: command.NewDeleteSpecialWeekHandler(weekRepo, noteRepo, eventBus),
		UpsertNote:        command.NewUpsertNoteHandler(weekRepo, noteRepo, eventBus),
		MarkAlumni:        command.NewMarkAlumniHandler(profileRepo, eventBus),

		GetCurrentWeek:     query.NewGetCurrentWeekHandler(weekRepo, currentCache),
		ListWeeks:          query.NewListWeeksHandler(weekRepo),
		ListNotes:          query.NewListNotesForWeekHandler(weekRepo, noteRepo),
		GetNote:            query.NewGetNoteHandler(weekRepo, noteRepo),
		GetProfile:         query.NewGetProfileHandler(profileRepo),
		UncalibratedTopics: query.NewUncalibratedTopicsHandler(topicCatalog, progressRepo),

		Reassignment: saga.NewReassignmentSaga(
			profileRepo, weekRepo, noteRepo, progressRepo, currentCache, eventBus, log,
		),

		Logger:        log,
		HealthChecker: newHealthChecker(dbConn, redisCache),
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("registering event handlers")

	if currentCache != nil {
		ledgerHandler := eventhandler.NewOnLedgerChangedHandler(currentCache, log)
		for _, eventType := range ledgerHandler.EventTypes() {
			if err := eventBus.Subscribe(eventType, ledgerHandler.Handle); err != nil {
				return fmt.Errorf("failed to subscribe ledger handler: %w", err)
			}
		}
	}

	if cfg.Badge.BaseURL != "" && cfg.Features.IsEnabled(config.FeatureBadgeEvaluation, nil) {
		badgeCfg := service.DefaultBadgeClientConfig(cfg.Badge.BaseURL)
		badgeCfg.Timeout = cfg.Badge.RequestTimeout
		badgeCfg.MaxAttempts = cfg.Badge.MaxRetries
		badgeCfg.Logger = log
		badgeClient := service.NewBadgeClient(badgeCfg)

		badgeHandler := eventhandler.NewOnWeekCompletedHandler(
			badgeClient, log, eventhandler.DefaultWeekCompletedConfig(),
		)
		if err := eventBus.Subscribe(badgeHandler.EventType(), badgeHandler.Handle); err != nil {
			return fmt.Errorf("failed to subscribe badge handler: %w", err)
		}
		log.Info("badge evaluation enabled", logger.String("url", cfg.Badge.BaseURL))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	serverCfg := httpserver.DefaultConfig()
	serverCfg.Host = cfg.HTTP.Host
	serverCfg.Port = cfg.HTTP.Port
	serverCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	serverCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	serverCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	serverCfg.EnableCORS = cfg.HTTP.EnableCORS
	serverCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	serverCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute

	server := httpserver.NewServer(serverCfg, deps)
	serverErr := server.StartAsync()

	log.Info("progression API started", logger.String("address", server.Address()))

	// ─────────────────────────────────────────────────────────────────────────
	// 11. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", logger.Err(err))
	}

	log.Info("progression API stopped")
	return nil
}

// healthChecker reports database and cache health to the HTTP layer.
type healthChecker struct {
	db    *postgres.Connection
	cache *infraredis.Cache
}

func newHealthChecker(db *postgres.Connection, cache *infraredis.Cache) httpserver.HealthChecker {
	return &healthChecker{db: db, cache: cache}
}

// Check pings the backing services. Redis is optional, so a cache failure
// degrades the report without marking the service unhealthy.
func (h *healthChecker) Check(ctx context.Context) httpserver.HealthStatus {
	status := httpserver.HealthStatus{
		Healthy: true,
		Ready:   true,
		Checks:  make(map[string]string),
	}

	if err := h.db.Ping(ctx); err != nil {
		status.Healthy = false
		status.Ready = false
		status.Message = "database unreachable"
		status.Checks["postgres"] = err.Error()
	} else {
		status.Checks["postgres"] = "ok"
	}

	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			status.Checks["redis"] = err.Error()
		} else {
			status.Checks["redis"] = "ok"
		}
	}

	return status
}
