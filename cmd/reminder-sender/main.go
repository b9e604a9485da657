package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/magabrotheeeer/subbers/internal/app/sender"
	"github.com/magabrotheeeer/subbers/internal/config"
	"github.com/magabrotheeeer/subbers/internal/lib/logger"
	"github.com/magabrotheeeer/subbers/internal/lib/sl"
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()
	log := logger.Setup(cfg.LogLevel)

	log.Info("starting reminder sender", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := sender.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize sender", sl.Err(err))
		os.Exit(1)
	}
	if err := app.Run(ctx); err != nil {
		log.Error("sender stopped with error", sl.Err(err))
		os.Exit(1)
	}
	log.Info("reminder sender stopped")
}
