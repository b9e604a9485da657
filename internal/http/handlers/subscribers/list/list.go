// Package list реализует HTTP-обработчик списка подписчиков из платёжного провайдера.
package list

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subbers/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subbers/internal/http/response"
	"github.com/magabrotheeeer/subbers/internal/lib/sl"
	"github.com/magabrotheeeer/subbers/internal/models"
	"github.com/magabrotheeeer/subbers/internal/services/subscribers"
)

// Handler обрабатывает GET /get-subscribers.
type Handler struct {
	log         *slog.Logger
	credentials CredentialSource
	service     Service
}

// CredentialSource возвращает расшифрованный ключ биллинга пользователя.
type CredentialSource interface {
	StripeKey(u *models.User) (string, error)
}

// Service агрегирует подписчиков по ключу пользователя.
type Service interface {
	Subscribers(ctx context.Context, credential string, opts subscribers.Options) ([]models.Subscriber, error)
}

// Response тело успешного ответа.
type Response struct {
	Subscribers []models.Subscriber `json:"subscribers"`
}

// New создает новый Handler.
func New(log *slog.Logger, credentials CredentialSource, service Service) *Handler {
	return &Handler{
		log:         log,
		credentials: credentials,
		service:     service,
	}
}

// ServeHTTP godoc
// @Summary Список подписчиков
// @Description Все подписки из Stripe-аккаунта пользователя, по умолчанию только активные.
// @Tags Subscribers
// @Produce json
// @Security BearerAuth
// @Param status query string false "all: без фильтра по статусу"
// @Success 200 {object} Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /get-subscribers [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscribers.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	u, ok := middlewarectx.UserFrom(r.Context())
	if !ok {
		response.WriteError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	key, err := h.credentials.StripeKey(u)
	if err != nil {
		log.Error("failed to read billing credential", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, "Unable to fetch subscribers")
		return
	}
	if key == "" {
		response.WriteError(w, r, http.StatusBadRequest, "Stripe key not found")
		return
	}

	opts := subscribers.Options{ActiveOnly: r.URL.Query().Get("status") != "all"}
	subs, err := h.service.Subscribers(r.Context(), key, opts)
	switch {
	case errors.Is(err, subscribers.ErrNoBillingCredential):
		response.WriteError(w, r, http.StatusBadRequest, "Stripe key not found")
		return
	case err != nil:
		log.Error("failed to fetch subscribers", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, "Unable to fetch subscribers")
		return
	}
	if subs == nil {
		subs = []models.Subscriber{}
	}

	log.Debug("subscribers fetched", slog.Int("count", len(subs)))
	render.JSON(w, r, Response{Subscribers: subs})
}
