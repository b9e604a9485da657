// Package health реализует проверку готовности сервиса.
package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subbers/internal/http/response"
	"github.com/magabrotheeeer/subbers/internal/lib/sl"
)

// Checker проверяет доступность зависимости.
type Checker interface {
	Ready(ctx context.Context) error
}

// Handler обрабатывает GET /health.
type Handler struct {
	log      *slog.Logger
	checkers map[string]Checker
}

// Response тело ответа.
type Response struct {
	Status string `json:"status" example:"ok"`
}

// New создает новый Handler. Без проверок всегда отвечает ok.
func New(log *slog.Logger, checkers map[string]Checker) *Handler {
	return &Handler{log: log, checkers: checkers}
}

// ServeHTTP godoc
// @Summary Проверка здоровья
// @Tags Health
// @Produce json
// @Success 200 {object} Response
// @Failure 503 {object} response.ErrorResponse
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"
	for name, c := range h.checkers {
		if err := c.Ready(r.Context()); err != nil {
			h.log.Warn("dependency not ready", slog.String("op", op), slog.String("dependency", name), sl.Err(err))
			response.WriteError(w, r, http.StatusServiceUnavailable, name+" unavailable")
			return
		}
	}
	render.JSON(w, r, Response{Status: "ok"})
}
