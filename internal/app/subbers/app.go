// Package subbers собирает HTTP API сервиса: хранилище, кеш, проверку
// ID-токенов, биллинг и OAuth-подключения.
package subbers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/subbers/internal/cache"
	"github.com/magabrotheeeer/subbers/internal/config"
	"github.com/magabrotheeeer/subbers/internal/http/handlers/health"
	"github.com/magabrotheeeer/subbers/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subbers/internal/identity"
	"github.com/magabrotheeeer/subbers/internal/lib/secret"
	"github.com/magabrotheeeer/subbers/internal/lib/sl"
	"github.com/magabrotheeeer/subbers/internal/lib/statetoken"
	"github.com/magabrotheeeer/subbers/internal/oauth"
	"github.com/magabrotheeeer/subbers/internal/paymentprovider/stripe"
	"github.com/magabrotheeeer/subbers/internal/services/events"
	"github.com/magabrotheeeer/subbers/internal/services/subscribers"
	"github.com/magabrotheeeer/subbers/internal/services/users"
	"github.com/magabrotheeeer/subbers/internal/storage"
	"github.com/magabrotheeeer/subbers/internal/storage/backend"
)

const shutdownTimeout = 15 * time.Second

// App HTTP-приложение.
type App struct {
	server *http.Server
	logger *slog.Logger
	repo   storage.Repository
	redis  *cache.Cache
}

// Services зависимости маршрутов.
type Services struct {
	Verifier    middlewarectx.Verifier
	Users       *users.Service
	Events      *events.Service
	Subscribers *subscribers.Aggregator
	Stripe      *oauth.Connector
	Zoom        *oauth.Connector
	Limiter     *middlewarectx.RateLimiter
	Checkers    map[string]health.Checker
	Dashboard   string
}

// New инициализирует зависимости и HTTP-сервер.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "subbers.New"

	box, err := secret.New(cfg.Storage.CredentialsKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !box.Enabled() {
		logger.Warn("CREDENTIALS_KEY is not set, billing keys are stored unencrypted")
	}

	verifier, err := identity.NewFirebase(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	repo, err := backend.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	checkers := map[string]health.Checker{}
	if c, ok := repo.(health.Checker); ok {
		checkers["storage"] = c
	}

	var (
		redisCache *cache.Cache
		userCache  users.Cache = cache.Noop{}
	)
	if cfg.Redis.Enabled() {
		redisCache, err = cache.InitServer(ctx, cfg.Redis)
		if err != nil {
			_ = repo.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		userCache = redisCache
		checkers["redis"] = redisCache
		logger.Info("redis cache enabled", slog.String("addr", cfg.Redis.Addr))
	}

	userService := users.New(repo, userCache, box, cfg.Redis.UserTTL, logger)
	states := statetoken.New(cfg.OAuth.StateSecret, cfg.OAuth.StateTTL)
	stripeProvider := oauth.NewStripe(cfg.OAuth.StripeClientID, cfg.Billing.SecretKey, cfg.OAuth.StripeRedirectURI)
	zoomProvider := oauth.NewZoom(cfg.OAuth.ZoomClientID, cfg.OAuth.ZoomClientSecret, cfg.OAuth.ZoomRedirectURI)
	if cfg.OAuth.StateSecret == "" && (stripeProvider.Configured() || zoomProvider.Configured()) {
		logger.Warn("OAUTH_STATE_SECRET is not set, oauth callbacks will be rejected")
	}

	svcs := Services{
		Verifier:    verifier,
		Users:       userService,
		Events:      events.New(repo, logger),
		Subscribers: subscribers.New(logger, stripe.NewFactory(), cfg.Billing.PageSize, cfg.Billing.DateLayout),
		Stripe:      oauth.NewConnector(stripeProvider, states, userService, logger),
		Zoom:        oauth.NewConnector(zoomProvider, states, userService, logger),
		Limiter:     middlewarectx.NewRateLimiter(cfg.HTTPServer.RateLimit, cfg.HTTPServer.RateBurst),
		Checkers:    checkers,
		Dashboard:   cfg.HTTPServer.DashboardURL,
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, svcs)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address(),
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		repo:   repo,
		redis:  redisCache,
	}, nil
}

// Run запускает сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if err := a.repo.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
}
