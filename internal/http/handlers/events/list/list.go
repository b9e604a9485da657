// Package list реализует HTTP-обработчик списка событий пользователя.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subbers/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subbers/internal/http/response"
	"github.com/magabrotheeeer/subbers/internal/lib/sl"
	"github.com/magabrotheeeer/subbers/internal/models"
)

// Handler обрабатывает GET /get-events.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики списка событий.
type Service interface {
	List(ctx context.Context, userID string) ([]models.Event, error)
}

// Response тело успешного ответа.
type Response struct {
	Events []models.Event `json:"events"`
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список событий
// @Description Возвращает события пользователя с пересчитанным nextOccurrence.
// @Tags Events
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /get-events [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.events.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	u, ok := middlewarectx.UserFrom(r.Context())
	if !ok {
		response.WriteError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	evs, err := h.service.List(r.Context(), u.ID)
	if err != nil {
		log.Error("failed to list events", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, "Unable to fetch events")
		return
	}
	if evs == nil {
		evs = []models.Event{}
	}

	log.Debug("events listed", slog.Int("count", len(evs)))
	render.JSON(w, r, Response{Events: evs})
}
