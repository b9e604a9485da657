// Package feed отдаёт события пользователя в формате iCalendar.
package feed

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/subbers/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subbers/internal/http/response"
	"github.com/magabrotheeeer/subbers/internal/ics"
	"github.com/magabrotheeeer/subbers/internal/lib/sl"
	"github.com/magabrotheeeer/subbers/internal/models"
)

// Handler обрабатывает GET /events.ics.
type Handler struct {
	log     *slog.Logger
	service Service
	now     func() time.Time
}

// Service возвращает события пользователя.
type Service interface {
	List(ctx context.Context, userID string) ([]models.Event, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		now:     time.Now,
	}
}

// ServeHTTP godoc
// @Summary Календарь событий
// @Description iCalendar-фид событий пользователя с правилами RRULE.
// @Tags Events
// @Produce text/calendar
// @Security BearerAuth
// @Success 200 {string} string
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /events.ics [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.events.feed"
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

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="events.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(ics.Feed(u.Email, evs, h.now()))); err != nil {
		log.Warn("failed to write calendar", sl.Err(err))
	}
}
