package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/datasweeper/internal/activity"
	"github.com/JonMunkholm/datasweeper/internal/config"
	"github.com/JonMunkholm/datasweeper/internal/core"
	"github.com/JonMunkholm/datasweeper/internal/logging"
	"github.com/JonMunkholm/datasweeper/internal/metrics"
	"github.com/JonMunkholm/datasweeper/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"upload_max_file_size", cfg.Upload.MaxFileSize,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"session_ttl", cfg.Session.TTL,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"activity_db", cfg.Database.Enabled(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New(nil)

	// Activity goes to Postgres when a database is configured, otherwise
	// to the log.
	var recorder activity.Recorder = activity.NewLogRecorder()
	var pool *pgxpool.Pool
	if cfg.Database.Enabled() {
		pool, err = activity.OpenPool(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pg, err := activity.NewPostgresRecorder(ctx, pool)
		if err != nil {
			slog.Error("failed to prepare activity table", "error", err)
			os.Exit(1)
		}
		recorder = pg
		slog.Info("connected to database", "name", activity.DatabaseName(cfg.Database.URL))
	}

	store := core.NewStore(cfg.Session.TTL, m)
	limiter := core.NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)
	service := core.NewService(store, limiter, recorder, m, core.OptionsFromConfig(cfg))

	server := web.NewServer(cfg, service, m)

	// Sweep expired sessions in the background.
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go store.Run(jobCtx, cfg.Session.JanitorInterval)

	go func() {
		<-ctx.Done()
		slog.Info("shutting down...")

		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.UploadLimiterStatus(); status.Active > 0 {
			slog.Info("waiting for uploads to complete", "active", status.Active)
			if err := service.WaitForUploads(shutdownCtx); err != nil {
				slog.Warn("uploads did not complete in time", "error", err)
			} else {
				slog.Info("all uploads completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Error("server stopped", "error", err)
		cancelJobs()
		os.Exit(1)
	}
	slog.Info("server stopped")
}
