package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"landing-analytics/internal/config"
	"landing-analytics/internal/logger"
	"landing-analytics/internal/scheduler"
	"landing-analytics/internal/telemetry"

	eventsHttp "landing-analytics/internal/events/adapters/http/fiber"
	"landing-analytics/internal/events/adapters/kv/cached"
	"landing-analytics/internal/events/adapters/kv/memory"
	kvRedis "landing-analytics/internal/events/adapters/kv/redis"
	kvSqlite "landing-analytics/internal/events/adapters/kv/sqlite"
	eventsDomain "landing-analytics/internal/events/core/domain"
	eventsPorts "landing-analytics/internal/events/core/ports"
	"landing-analytics/internal/events/core/store"
	eventsUsecase "landing-analytics/internal/events/core/usecase"

	metricsHttp "landing-analytics/internal/metrics/adapters/http/fiber"
	metricsUsecase "landing-analytics/internal/metrics/core/usecase"

	syncHttp "landing-analytics/internal/sync/adapters/http/fiber"
	syncRepoPg "landing-analytics/internal/sync/adapters/postgres"
	"landing-analytics/internal/sync/adapters/recordhttp"
	syncPorts "landing-analytics/internal/sync/core/ports"
	syncUsecase "landing-analytics/internal/sync/core/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/lib/pq"
	fiberSwagger "github.com/swaggo/fiber-swagger"

	_ "landing-analytics/docs"
)

const (
	jobRetention = "retention"
	jobSync      = "sync"
)

func main() {
	// Config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Initialize(cfg.Logging.Level, cfg.Logging.Format)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid analytics timezone")
	}

	ctx := context.Background()

	// Local key-value store
	kv, closeKV, err := openKV(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("failed to open local store")
	}
	defer closeKV()

	localStore := store.New(kv, log)
	collector := telemetry.NewCollector()

	// Usecases
	analyticsUC := metricsUsecase.NewGetAnalyticsUseCase(localStore, metricsUsecase.Options{
		Days:     cfg.Analytics.DailyDays,
		Location: loc,
	})
	exportUC := metricsUsecase.NewExportUseCase(localStore, analyticsUC)

	tracker := eventsUsecase.NewTracker(
		eventsDomain.Config{
			TrackClicks:   cfg.Analytics.TrackClicks,
			TrackSessions: cfg.Analytics.TrackSessions,
			TrackLocation: cfg.Analytics.TrackLocation,
			RetentionDays: cfg.Analytics.RetentionDays,
		},
		localStore,
		analyticsUC,
		log,
		eventsUsecase.WithRecorder(collector),
	)
	defer func() {
		if err := tracker.Close(); err != nil {
			log.Warn().Err(err).Msg("finalize session failed")
		}
	}()

	cleanupUC := eventsUsecase.NewCleanupUseCase(localStore, analyticsUC, collector, log)
	retentionUC := eventsUsecase.NewRetentionUseCase(cfg.Analytics.RetentionDays, localStore, analyticsUC, log)

	remote, closeRemote, err := openRemote(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Remote.Driver).Msg("failed to open remote record store")
	}
	defer closeRemote()

	var syncUC *syncUsecase.SyncUseCase
	if remote != nil {
		syncUC = syncUsecase.NewSyncUseCase(remote, localStore, analyticsUC, collector, syncUsecase.Config{
			PageSize:  cfg.Remote.PageSize,
			MaxPages:  cfg.Remote.MaxPages,
			BatchSize: cfg.Remote.BatchSize,
		}, log)
	}

	// HTTP (Fiber) app + handlers
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	// events endpoints
	eventsHandler := eventsHttp.NewEventHandler(tracker, cleanupUC)
	app.Post("/sessions", eventsHandler.StartSession)
	app.Delete("/sessions/current", eventsHandler.EndSession)
	app.Post("/clicks", eventsHandler.TrackClick)
	app.Post("/clicks/cleanup", eventsHandler.CleanupClicks)
	app.Delete("/analytics", eventsHandler.ClearAnalytics)

	// metrics endpoints
	metricsHandler := metricsHttp.NewMetricsHandler(analyticsUC, exportUC)
	app.Get("/analytics", metricsHandler.GetAnalytics)
	app.Get("/analytics/daily", metricsHandler.GetDailyStats)
	app.Get("/analytics/export", metricsHandler.ExportAnalytics)

	// sync endpoints
	if syncUC != nil {
		syncHandler := syncHttp.NewSyncHandler(syncUC, analyticsUC)
		app.Post("/analytics/sync", syncHandler.SyncAnalytics)
		app.Put("/analytics/snapshot", syncHandler.SaveSnapshot)
		app.Get("/analytics/snapshot", syncHandler.LoadSnapshot)
	}

	// Prometheus
	app.Get("/metrics", adaptor.HTTPHandler(collector.Handler()))

	// Swagger
	app.Get("/docs/*", fiberSwagger.WrapHandler)

	// Scheduler
	sched := scheduler.New(loc, log)
	if cfg.Scheduler.Enabled {
		if err := sched.Add(jobRetention, cfg.Scheduler.RetentionSpec, func(ctx context.Context) {
			retentionUC.Purge(ctx)
		}); err != nil {
			log.Fatal().Err(err).Msg("failed to schedule retention")
		}
		if syncUC != nil && cfg.Scheduler.SyncSpec != "" {
			if err := sched.Add(jobSync, cfg.Scheduler.SyncSpec, func(ctx context.Context) {
				syncUC.SyncNow(ctx)
			}); err != nil {
				log.Fatal().Err(err).Msg("failed to schedule sync")
			}
		}
		sched.Start()

		if err := sched.RunNow(jobRetention); err != nil {
			log.Warn().Err(err).Msg("initial retention purge failed")
		}
	}

	// Graceful shutdown
	addr := cfg.Server.Host + ":" + cfg.Server.Port
	go func() {
		if err := app.Listen(addr); err != nil {
			log.Error().Err(err).Msg("fiber stopped")
		}
	}()

	log.Info().
		Str("addr", addr).
		Str("storage", cfg.Storage.Driver).
		Str("remote", cfg.Remote.Driver).
		Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	log.Info().Msg("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if cfg.Scheduler.Enabled {
		sched.Stop(shutdownCtx)
	}

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("fiber shutdown error")
	}

	log.Info().Msg("server exiting")
}

// openKV builds the local store selected by storage.driver, optionally behind
// the ristretto read cache.
func openKV(ctx context.Context, cfg *config.Config) (eventsPorts.KVStore, func(), error) {
	var (
		kv      eventsPorts.KVStore
		closeFn = func() {}
	)

	switch cfg.Storage.Driver {
	case "sqlite":
		s, err := kvSqlite.Open(cfg.Storage.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		kv = s
		closeFn = func() { _ = s.Close() }
	case "redis":
		rdb, err := kvRedis.NewClient(ctx, cfg.Storage.Redis)
		if err != nil {
			return nil, nil, err
		}
		kv = kvRedis.New(rdb, cfg.Storage.Redis.KeyPrefix)
		closeFn = func() { _ = rdb.Close() }
	default:
		kv = memory.New()
	}

	if !cfg.Storage.Cache.Enabled {
		return kv, closeFn, nil
	}

	c, err := cached.New(kv, cfg.Storage.Cache)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	inner := closeFn
	return c, func() {
		c.Close()
		inner()
	}, nil
}

// openRemote builds the remote record store selected by remote.driver. It
// returns a nil store for the "none" driver.
func openRemote(cfg *config.Config) (syncPorts.RecordStore, func(), error) {
	switch cfg.Remote.Driver {
	case "postgres":
		db, err := sql.Open("postgres", cfg.Remote.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}

		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)

		pingCtx, cancel := context.WithTimeout(context.Background(), cfg.RemoteTimeout())
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		if err := syncRepoPg.Migrate(db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}

		repo := syncRepoPg.NewRecordRepository(syncRepoPg.NewSQLDB(db))
		return repo, func() { _ = db.Close() }, nil

	case "http":
		client := recordhttp.NewClient(recordhttp.Options{
			BaseURL:           cfg.Remote.BaseURL,
			Token:             cfg.Remote.Token,
			Timeout:           cfg.RemoteTimeout(),
			RequestsPerSecond: cfg.Remote.RequestsPerSecond,
			Burst:             cfg.Remote.Burst,
		})
		return client, func() {}, nil

	default:
		return nil, func() {}, nil
	}
}
