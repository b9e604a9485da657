// Package create реализует HTTP-обработчик создания события.
package create

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

// Handler обрабатывает POST /create-event.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate // валидатор формы события
}

// Service описывает интерфейс бизнес-логики создания события.
type Service interface {
	Create(ctx context.Context, userID string, form models.DummyEvent) (*models.Event, error)
}

// Response тело успешного ответа.
type Response struct {
	Message string        `json:"message" example:"Event created"`
	Event   *models.Event `json:"event"`
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
// @Summary Создать событие
// @Description Создаёт событие с правилом повторения и настройками напоминания.
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.DummyEvent true "Данные события"
// @Success 201 {object} Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /create-event [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.events.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	u, ok := middlewarectx.UserFrom(r.Context())
	if !ok {
		response.WriteError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var form models.DummyEvent
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		log.Info("failed to decode request body", sl.Err(err))
		response.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validate.Struct(form); err != nil {
		var validateErr validator.ValidationErrors
		if errors.As(err, &validateErr) {
			log.Info("invalid event form", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}
		response.WriteError(w, r, http.StatusBadRequest, "invalid event data")
		return
	}

	ev, err := h.service.Create(r.Context(), u.ID, form)
	switch {
	case errors.Is(err, events.ErrInvalidRecurrence):
		log.Info("invalid recurrence", sl.Err(err))
		response.WriteError(w, r, http.StatusBadRequest, "invalid recurrence")
		return
	case errors.Is(err, events.ErrBadRequest):
		log.Info("invalid event data", sl.Err(err))
		response.WriteError(w, r, http.StatusBadRequest, "invalid event data")
		return
	case err != nil:
		log.Error("failed to create event", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, "Unable to create event")
		return
	}

	log.Info("event created", slog.String("event_id", ev.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, Response{Message: "Event created", Event: ev})
}
