// Package updateproduct реализует HTTP-обработчик привязки продукта к событию.
package updateproduct

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subbers/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subbers/internal/http/response"
	"github.com/magabrotheeeer/subbers/internal/lib/sl"
	"github.com/magabrotheeeer/subbers/internal/models"
	"github.com/magabrotheeeer/subbers/internal/services/events"
)

// Handler обрабатывает POST /update-event-product.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики обновления продукта.
type Service interface {
	UpdateProduct(ctx context.Context, userID string, req models.ProductAssignment) error
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
// @Summary Привязать продукт к событию
// @Description Напоминания по событию уходят активным подписчикам продукта.
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.ProductAssignment true "id события и название продукта"
// @Success 200 {object} response.MessageResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /update-event-product [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.events.updateproduct"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	u, ok := middlewarectx.UserFrom(r.Context())
	if !ok {
		response.WriteError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.ProductAssignment
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Info("failed to decode request body", sl.Err(err))
		response.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		var validateErr validator.ValidationErrors
		if errors.As(err, &validateErr) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}
		response.WriteError(w, r, http.StatusBadRequest, "eventId and product are required")
		return
	}

	err := h.service.UpdateProduct(r.Context(), u.ID, req)
	switch {
	case errors.Is(err, events.ErrBadRequest):
		response.WriteError(w, r, http.StatusBadRequest, "eventId and product are required")
		return
	case errors.Is(err, events.ErrNotFound):
		log.Info("event not found", slog.String("event_id", req.EventID))
		response.WriteError(w, r, http.StatusNotFound, "event not found")
		return
	case err != nil:
		log.Error("failed to update event product", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, "Unable to update event")
		return
	}

	log.Info("event product updated", slog.String("event_id", req.EventID))
	render.JSON(w, r, response.Message("Product updated"))
}
