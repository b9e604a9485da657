// Package callback реализует обработчик OAuth callback провайдеров.
// Ошибки отображаются простой текстовой страницей, успех перенаправляет на дашборд.
package callback

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/subbers/internal/lib/sl"
	"github.com/magabrotheeeer/subbers/internal/oauth"
)

// Handler обрабатывает GET /stripe/callback и GET /zoom/callback.
type Handler struct {
	log       *slog.Logger
	service   Service
	dashboard string // куда перенаправлять после подключения
}

// Service завершает OAuth-подключение.
type Service interface {
	Complete(ctx context.Context, code, state string) error
}

// New создает новый Handler.
func New(log *slog.Logger, service Service, dashboardURL string) *Handler {
	return &Handler{log: log, service: service, dashboard: dashboardURL}
}

// ServeHTTP godoc
// @Summary OAuth callback
// @Description Проверяет state, обменивает code и сохраняет ключ или токены.
// @Tags OAuth
// @Produce plain
// @Param code query string true "Код авторизации"
// @Param state query string true "Подписанный state"
// @Success 302
// @Failure 400 {string} string
// @Failure 500 {string} string
// @Router /stripe/callback [get]
// @Router /zoom/callback [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.oauth.callback"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		log.Info("provider denied authorization", slog.String("error", e))
		failure(w, http.StatusBadRequest, "Authorization was denied.")
		return
	}

	err := h.service.Complete(r.Context(), q.Get("code"), q.Get("state"))
	switch {
	case errors.Is(err, oauth.ErrInvalidState):
		log.Info("invalid oauth state", sl.Err(err))
		failure(w, http.StatusBadRequest, "The authorization link is invalid or has expired.")
		return
	case errors.Is(err, oauth.ErrMissingCode):
		failure(w, http.StatusBadRequest, "Authorization code is missing.")
		return
	case errors.Is(err, oauth.ErrExchange):
		log.Warn("oauth exchange failed", sl.Err(err))
		failure(w, http.StatusBadRequest, "Could not complete the connection.")
		return
	case err != nil:
		log.Error("failed to complete oauth", sl.Err(err))
		failure(w, http.StatusInternalServerError, "Something went wrong. Please try again later.")
		return
	}

	http.Redirect(w, r, h.dashboard, http.StatusFound)
}

func failure(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write([]byte("Connection failed. " + msg + "\n"))
}
