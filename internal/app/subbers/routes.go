package subbers

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/magabrotheeeer/subbers/internal/docs" // swagger
	"github.com/magabrotheeeer/subbers/internal/http/handlers/events/create"
	"github.com/magabrotheeeer/subbers/internal/http/handlers/events/feed"
	eventlist "github.com/magabrotheeeer/subbers/internal/http/handlers/events/list"
	"github.com/magabrotheeeer/subbers/internal/http/handlers/events/updateproduct"
	"github.com/magabrotheeeer/subbers/internal/http/handlers/health"
	"github.com/magabrotheeeer/subbers/internal/http/handlers/oauth/authurl"
	"github.com/magabrotheeeer/subbers/internal/http/handlers/oauth/callback"
	sublist "github.com/magabrotheeeer/subbers/internal/http/handlers/subscribers/list"
	"github.com/magabrotheeeer/subbers/internal/http/handlers/users/get"
	"github.com/magabrotheeeer/subbers/internal/http/handlers/users/savekey"
	"github.com/magabrotheeeer/subbers/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subbers/internal/metrics"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		metrics.Middleware,
	)

	r.Get("/health", health.New(logger, s.Checkers).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)

	// OAuth callback приходит от провайдера без токена, пользователь берётся из state
	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(s.Limiter, logger))
		r.Get("/stripe/callback", callback.New(logger, s.Stripe, s.Dashboard).ServeHTTP)
		r.Get("/zoom/callback", callback.New(logger, s.Zoom, s.Dashboard).ServeHTTP)
	})

	// Группа с аутентификацией
	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(s.Limiter, logger))
		r.Use(middlewarectx.Auth(s.Verifier, s.Users, logger))

		r.Get("/get-events", eventlist.New(logger, s.Events).ServeHTTP)
		r.Post("/create-event", create.New(logger, s.Events).ServeHTTP)
		r.Post("/update-event-product", updateproduct.New(logger, s.Events).ServeHTTP)
		r.Get("/events.ics", feed.New(logger, s.Events).ServeHTTP)
		r.Get("/get-subscribers", sublist.New(logger, s.Users, s.Subscribers).ServeHTTP)
		r.Get("/get-user", get.New(logger, s.Users).ServeHTTP)
		r.Post("/save-stripe-key", savekey.New(logger, s.Users).ServeHTTP)
		r.Get("/stripe/oauth-url", authurl.New(logger, s.Stripe).ServeHTTP)
		r.Get("/zoom/oauth-url", authurl.New(logger, s.Zoom).ServeHTTP)
	})
}
