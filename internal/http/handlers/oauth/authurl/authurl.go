// Package authurl реализует HTTP-обработчик ссылки OAuth-подключения провайдера.
package authurl

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subbers/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subbers/internal/http/response"
	"github.com/magabrotheeeer/subbers/internal/lib/sl"
	"github.com/magabrotheeeer/subbers/internal/oauth"
)

// Handler обрабатывает GET /stripe/oauth-url и GET /zoom/oauth-url.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service выдаёт ссылку авторизации с подписанным state.
type Service interface {
	AuthURL(email string) (string, error)
}

// Response тело успешного ответа.
type Response struct {
	URL string `json:"url" example:"https://connect.stripe.com/oauth/authorize?client_id=ca_123"`
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Ссылка OAuth-подключения
// @Description Ссылка на страницу авторизации Stripe Connect или Zoom.
// @Tags OAuth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 503 {object} response.ErrorResponse
// @Router /stripe/oauth-url [get]
// @Router /zoom/oauth-url [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.oauth.authurl"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	u, ok := middlewarectx.UserFrom(r.Context())
	if !ok {
		response.WriteError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	url, err := h.service.AuthURL(u.Email)
	switch {
	case errors.Is(err, oauth.ErrNotConfigured):
		log.Warn("oauth provider is not configured", sl.Err(err))
		response.WriteError(w, r, http.StatusServiceUnavailable, "oauth provider is not configured")
		return
	case err != nil:
		log.Error("failed to build auth url", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, "internal service error")
		return
	}
	render.JSON(w, r, Response{URL: url})
}
