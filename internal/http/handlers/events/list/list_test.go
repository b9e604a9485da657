package list

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subbers/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subbers/internal/models"
)

type MockService struct{ mock.Mock }

func (m *MockService) List(ctx context.Context, userID string) ([]models.Event, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Event), args.Error(1)
}

func TestListHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	next := time.Date(2024, 1, 29, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		user           *models.User
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешное получение событий",
			user: &models.User{ID: "u1"},
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, "u1").Return([]models.Event{
					{ID: "e1", Title: "Class", NextOccurrence: &next},
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"nextOccurrence":"2024-01-29T10:00:00Z"`,
		},
		{
			name: "пустой список",
			user: &models.User{ID: "u1"},
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, "u1").Return(nil, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"events":[]}`,
		},
		{
			name: "ошибка хранилища",
			user: &models.User{ID: "u1"},
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, "u1").Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"Unable to fetch events"}`,
		},
		{
			name:           "нет пользователя в контексте",
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"error":"Unauthorized"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodGet, "/get-events", nil)
			if tt.user != nil {
				req = req.WithContext(middlewarectx.WithUser(req.Context(), tt.user))
			}
			rr := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
