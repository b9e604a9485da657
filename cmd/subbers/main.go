// Package main Subbers API
//
// @title           Subbers API
// @version         1.0
// @description     События с повторениями, напоминания и подписчики Stripe.

// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and Firebase ID token.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/magabrotheeeer/subbers/internal/app/subbers"
	"github.com/magabrotheeeer/subbers/internal/config"
	"github.com/magabrotheeeer/subbers/internal/lib/logger"
	"github.com/magabrotheeeer/subbers/internal/lib/sl"
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()
	log := logger.Setup(cfg.LogLevel)

	log.Info("starting subbers", slog.String("env", cfg.Env))
	log.Debug("config loaded", slog.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := subbers.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	log.Info("subbers stopped gracefully")
}
