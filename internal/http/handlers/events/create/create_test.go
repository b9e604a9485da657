package create

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subbers/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subbers/internal/models"
	"github.com/magabrotheeeer/subbers/internal/services/events"
)

// MockService реализует интерфейс create.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, userID string, form models.DummyEvent) (*models.Event, error) {
	args := m.Called(ctx, userID, form)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func TestCreateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	valid := models.DummyEvent{
		Title:          "Yoga",
		StartDate:      "2024-01-01T10:00:00Z",
		RecurrenceType: "weekly",
		Interval:       2,
	}

	tests := []struct {
		name           string
		requestBody    any
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "успешное создание события",
			requestBody: valid,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, "u1", valid).
					Return(&models.Event{ID: "e1", Title: "Yoga"}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"message":"Event created"`,
		},
		{
			name:           "пустое название",
			requestBody:    models.DummyEvent{StartDate: "2024-01-01T10:00:00Z"},
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"field Title is a required field"}`,
		},
		{
			name:           "неизвестный тип повторения",
			requestBody:    models.DummyEvent{Title: "Yoga", StartDate: "2024-01-01T10:00:00Z", RecurrenceType: "yearly"},
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `must be one of`,
		},
		{
			name:           "некорректный JSON",
			requestBody:    "not a json",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid request body"}`,
		},
		{
			name:        "невалидное правило повторения",
			requestBody: valid,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, "u1", valid).
					Return(nil, fmt.Errorf("events.Create: %w", events.ErrInvalidRecurrence))
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid recurrence"}`,
		},
		{
			name:        "некорректная дата",
			requestBody: valid,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, "u1", valid).
					Return(nil, fmt.Errorf("events.Create: %w", events.ErrBadRequest))
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid event data"}`,
		},
		{
			name:        "ошибка хранилища",
			requestBody: valid,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, "u1", valid).Return(nil, errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"Unable to create event"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			var body []byte
			if s, ok := tt.requestBody.(string); ok {
				body = []byte(s)
			} else {
				var err error
				body, err = json.Marshal(tt.requestBody)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/create-event", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req = req.WithContext(middlewarectx.WithUser(req.Context(), &models.User{ID: "u1", Email: "a@b.c"}))
			rr := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestCreateHandler_NoUser(t *testing.T) {
	svc := new(MockService)
	req := httptest.NewRequest(http.MethodPost, "/create-event", bytes.NewBufferString(`{}`))
	rr := httptest.NewRecorder()

	New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}
