/**
 * @description
 * This is the main entry point for the maturity worker. It connects to the
 * database and runs the cron job that settles investments whose end date has
 * passed, crediting the principal back to the owning account.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - github.com/robfig/cron/v3: Job scheduling (via internal/worker).
 * - github.com/joho/godotenv: To load .env files for local development.
 */

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/knightvest/assistant-service/internal/config"
	"github.com/knightvest/assistant-service/internal/store"
	"github.com/knightvest/assistant-service/internal/worker"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found; relying on environment")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		logger.Error("database url must be configured", "env", "DATABASE_URL")
		os.Exit(1)
	}

	dbpool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connected")

	repository := store.NewPostgresRepository(dbpool)
	jobs := worker.NewJobs(repository, logger)
	scheduler := worker.NewScheduler(jobs, logger, cfg.MaturityJobSchedule)

	scheduler.Start()
	logger.Info("maturity worker started", "schedule", cfg.MaturityJobSchedule)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		logger.Warn("cron jobs did not finish before shutdown deadline")
	}
}
