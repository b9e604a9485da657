// Package get реализует HTTP-обработчик сведений о текущем пользователе.
package get

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subbers/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subbers/internal/http/response"
	"github.com/magabrotheeeer/subbers/internal/lib/sl"
	"github.com/magabrotheeeer/subbers/internal/models"
)

// Handler обрабатывает GET /get-user.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service формирует публичное представление пользователя.
type Service interface {
	Info(u *models.User) (models.UserInfo, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Текущий пользователь
// @Description Ключ Stripe маскируется до последних четырёх символов.
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserInfo
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /get-user [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.get"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	u, ok := middlewarectx.UserFrom(r.Context())
	if !ok {
		response.WriteError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	info, err := h.service.Info(u)
	if err != nil {
		log.Error("failed to build user info", sl.Err(err))
		response.WriteError(w, r, http.StatusInternalServerError, "internal service error")
		return
	}
	render.JSON(w, r, info)
}
