// Package savekey реализует HTTP-обработчик сохранения ключа Stripe.
package savekey

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subbers/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subbers/internal/http/response"
	"github.com/magabrotheeeer/subbers/internal/lib/sl"
	"github.com/magabrotheeeer/subbers/internal/models"
)

// Handler обрабатывает POST /save-stripe-key.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service сохраняет ключ биллинга пользователя.
type Service interface {
	SaveStripeKey(ctx context.Context, u *models.User, key string) error
}

// Request тело запроса.
type Request struct {
	StripeKey string `json:"stripeKey" validate:"required"`
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Сохранить ключ Stripe
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Секретный ключ Stripe"
// @Success 200 {object} response.MessageResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /save-stripe-key [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.savekey"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	u, ok := middlewarectx.UserFrom(r.Context())
	if !ok {
		response.WriteError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req Request
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Info("failed to decode request body", sl.Err(err))
		response.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	req.StripeKey = strings.TrimSpace(req.StripeKey)
	if err := h.validate.Struct(req); err != nil {
		var validateErr validator.ValidationErrors
		if errors.As(err, &validateErr) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}
		response.WriteError(w, r, http.StatusBadRequest, "stripeKey is required")
		return
	}

	if err := h.service.SaveStripeKey(r.Context(), u, req.StripeKey); err != nil {
		log.Error("failed to save stripe key", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, "Unable to save Stripe key")
		return
	}

	log.Info("stripe key saved", slog.String("user_id", u.ID))
	render.JSON(w, r, response.Message("Stripe key saved"))
}
