package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quietpractice/practice-platform/internal/analytics"
	"github.com/quietpractice/practice-platform/internal/api"
	"github.com/quietpractice/practice-platform/internal/appointment"
	"github.com/quietpractice/practice-platform/internal/audit"
	"github.com/quietpractice/practice-platform/internal/config"
	"github.com/quietpractice/practice-platform/internal/db"
	"github.com/quietpractice/practice-platform/internal/interactive"
	"github.com/quietpractice/practice-platform/internal/observability/metrics"
	"github.com/quietpractice/practice-platform/internal/redisclient"
	"github.com/quietpractice/practice-platform/internal/schedule"
	"github.com/quietpractice/practice-platform/pkg/logging"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Default().Error("config load error", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)
	logger.Info("api-server starting up", "env", cfg.Env, "http_port", cfg.HTTPPort, "version", version)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Error("postgres connection error", "error", err)
		os.Exit(1)
	}
	defer pgPool.Close()
	logger.Info("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		logger.Error("redis connection error", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("error closing redis", "error", err)
		}
	}()
	logger.Info("connected to Redis")

	platformMetrics := metrics.NewPlatformMetrics(nil)
	trail := audit.NewBestEffort(audit.NewPgRecorder(pgPool), logger)
	tracker := analytics.NewRedisTracker(rdb, "analytics:events", logger)
	locker := redisclient.NewRedisSlotLocker(rdb, cfg.BookingLockTTL)
	configCache := redisclient.NewConfigCache(rdb, cfg.NavigatorCacheTTL)

	scheduleSvc := schedule.NewService(schedule.NewPgRepository(pgPool), trail, platformMetrics, logger, cfg.DefaultTimezone)
	appointmentSvc := appointment.NewService(appointment.NewPgRepository(pgPool), scheduleSvc, locker, trail, tracker, platformMetrics, logger)
	interactiveSvc := interactive.NewService(interactive.NewPgRepository(pgPool), configCache, trail, platformMetrics, logger)

	router := api.NewRouter(api.RouterConfig{
		Schedule:         scheduleSvc,
		Appointments:     appointmentSvc,
		Interactive:      interactiveSvc,
		PgPool:           pgPool,
		Redis:            rdb,
		Logger:           logger,
		AdminJWTSecret:   cfg.AdminJWTSecret,
		NavigatorEnabled: cfg.NavigatorEnabled,
		Env:              cfg.Env,
		Version:          version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-rootCtx.Done()

	logger.Info("shutting down api-server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
