package get

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subbers/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subbers/internal/models"
)

type MockService struct{ mock.Mock }

func (m *MockService) Info(u *models.User) (models.UserInfo, error) {
	args := m.Called(u)
	return args.Get(0).(models.UserInfo), args.Error(1)
}

func TestGetHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	user := &models.User{ID: "u1"}

	t.Run("успешный ответ", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Info", user).Return(models.UserInfo{StripeKey: "****4242", UserID: "u1", ZoomConnected: true}, nil)

		req := httptest.NewRequest(http.MethodGet, "/get-user", nil)
		req = req.WithContext(middlewarectx.WithUser(req.Context(), user))
		rr := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"stripeKey":"****4242","userID":"u1","zoomConnected":true}`, rr.Body.String())
	})

	t.Run("ошибка сервиса", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Info", user).Return(models.UserInfo{}, errors.New("decrypt"))

		req := httptest.NewRequest(http.MethodGet, "/get-user", nil)
		req = req.WithContext(middlewarectx.WithUser(req.Context(), user))
		rr := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.JSONEq(t, `{"error":"internal service error"}`, rr.Body.String())
	})

	t.Run("нет пользователя", func(t *testing.T) {
		rr := httptest.NewRecorder()
		New(logger, new(MockService)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/get-user", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
