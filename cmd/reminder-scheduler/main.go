package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/magabrotheeeer/subbers/internal/app/scheduler"
	"github.com/magabrotheeeer/subbers/internal/config"
	"github.com/magabrotheeeer/subbers/internal/lib/logger"
	"github.com/magabrotheeeer/subbers/internal/lib/sl"
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()
	log := logger.Setup(cfg.LogLevel)

	log.Info("starting reminder scheduler",
		slog.String("env", cfg.Env),
		slog.String("notifier", cfg.Scheduler.Notifier),
		slog.Duration("interval", cfg.Scheduler.Interval),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := scheduler.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize scheduler", sl.Err(err))
		os.Exit(1)
	}
	if err := app.Run(ctx); err != nil {
		log.Error("scheduler stopped with error", sl.Err(err))
		os.Exit(1)
	}
	log.Info("reminder scheduler stopped")
}
