package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subbers/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) ListEventsByUser(ctx context.Context, userID string) ([]models.Event, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Event), args.Error(1)
}

func (m *RepoMock) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *RepoMock) CreateEvent(ctx context.Context, ev models.Event) (*models.Event, error) {
	args := m.Called(ctx, ev)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *RepoMock) UpdateEventProduct(ctx context.Context, id, product string) error {
	return m.Called(ctx, id, product).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var fixedNow = time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)

func newService(repo Repository) *Service {
	return New(repo, newNoopLogger()).WithClock(func() time.Time { return fixedNow })
}

func TestList(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	stale := time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)

	repo := new(RepoMock)
	repo.On("ListEventsByUser", ctx, "u1").Return([]models.Event{
		{ID: "biweekly", StartDate: start, RecurrenceType: "weekly", Interval: 2},
		{ID: "once", StartDate: start, RecurrenceType: "none", NextOccurrence: &stale},
		{ID: "broken", StartDate: start, RecurrenceType: "daily", Interval: 0, NextOccurrence: &stale},
	}, nil)

	evs, err := newService(repo).List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, evs, 3)

	require.NotNil(t, evs[0].NextOccurrence)
	assert.Equal(t, time.Date(2024, 1, 29, 10, 0, 0, 0, time.UTC), *evs[0].NextOccurrence)
	assert.Equal(t, &stale, evs[1].NextOccurrence)
	assert.Equal(t, &stale, evs[2].NextOccurrence)
}

func TestList_RepositoryError(t *testing.T) {
	repo := new(RepoMock)
	repo.On("ListEventsByUser", mock.Anything, "u1").Return(nil, errors.New("db error"))

	_, err := newService(repo).List(context.Background(), "u1")
	require.Error(t, err)
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	offset := 15

	tests := []struct {
		name      string
		form      models.DummyEvent
		wantErr   error
		checkSave func(t *testing.T, ev models.Event)
	}{
		{
			name: "weekly with defaults",
			form: models.DummyEvent{
				Title:          "Standup",
				StartDate:      "2024-01-01T10:00:00Z",
				RecurrenceType: "weekly",
				Interval:       2,
				EmailSubject:   "Soon",
			},
			checkSave: func(t *testing.T, ev models.Event) {
				assert.Equal(t, "u1", ev.UserID)
				assert.Equal(t, "weekly", ev.RecurrenceType)
				assert.Equal(t, models.DefaultReminderOffset, ev.ReminderOffset)
				require.NotNil(t, ev.NextOccurrence)
				assert.Equal(t, time.Date(2024, 1, 29, 10, 0, 0, 0, time.UTC), *ev.NextOccurrence)
				assert.Equal(t, "Soon", ev.EmailSubject)
			},
		},
		{
			name: "local datetime in time zone",
			form: models.DummyEvent{
				Title:          "Berlin",
				StartDate:      "2024-02-01T09:30",
				TimeZone:       "Europe/Berlin",
				ReminderOffset: &offset,
			},
			checkSave: func(t *testing.T, ev models.Event) {
				assert.Equal(t, time.Date(2024, 2, 1, 8, 30, 0, 0, time.UTC), ev.StartDate)
				assert.Equal(t, "none", ev.RecurrenceType)
				assert.Equal(t, 1, ev.Interval)
				assert.Equal(t, 15, ev.ReminderOffset)
				require.NotNil(t, ev.NextOccurrence)
				assert.Equal(t, ev.StartDate, *ev.NextOccurrence)
			},
		},
		{
			name: "past one-off has no next occurrence",
			form: models.DummyEvent{Title: "Old", StartDate: "2023-05-01T10:00:00Z"},
			checkSave: func(t *testing.T, ev models.Event) {
				assert.Nil(t, ev.NextOccurrence)
			},
		},
		{
			name:    "zero interval for recurring event",
			form:    models.DummyEvent{Title: "Bad", StartDate: "2024-01-01T10:00:00Z", RecurrenceType: "daily"},
			wantErr: ErrInvalidRecurrence,
		},
		{
			name:    "invalid start date",
			form:    models.DummyEvent{Title: "Bad", StartDate: "yesterday"},
			wantErr: ErrBadRequest,
		},
		{
			name: "invalid recurrence end",
			form: models.DummyEvent{
				Title: "Bad", StartDate: "2024-01-01T10:00:00Z", RecurrenceEnd: "soon",
			},
			wantErr: ErrBadRequest,
		},
		{
			name:    "blank title",
			form:    models.DummyEvent{Title: "  ", StartDate: "2024-01-01T10:00:00Z"},
			wantErr: ErrBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			var saved models.Event
			repo.On("CreateEvent", ctx, mock.AnythingOfType("models.Event")).
				Run(func(args mock.Arguments) { saved = args.Get(1).(models.Event) }).
				Return(&models.Event{ID: "ev1"}, nil)

			got, err := newService(repo).Create(ctx, "u1", tt.form)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				repo.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ev1", got.ID)
			tt.checkSave(t, saved)
		})
	}
}

func TestUpdateProduct(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		req     models.ProductAssignment
		setup   func(repo *RepoMock)
		wantErr error
	}{
		{
			name: "owner updates product",
			req:  models.ProductAssignment{EventID: "ev1", Product: "Gold"},
			setup: func(repo *RepoMock) {
				repo.On("GetEvent", ctx, "ev1").Return(&models.Event{ID: "ev1", UserID: "u1"}, nil)
				repo.On("UpdateEventProduct", ctx, "ev1", "Gold").Return(nil)
			},
		},
		{
			name: "foreign event",
			req:  models.ProductAssignment{EventID: "ev1", Product: "Gold"},
			setup: func(repo *RepoMock) {
				repo.On("GetEvent", ctx, "ev1").Return(&models.Event{ID: "ev1", UserID: "other"}, nil)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "missing event",
			req:  models.ProductAssignment{EventID: "ev404", Product: "Gold"},
			setup: func(repo *RepoMock) {
				repo.On("GetEvent", ctx, "ev404").Return(nil, ErrNotFound)
			},
			wantErr: ErrNotFound,
		},
		{
			name:    "missing product",
			req:     models.ProductAssignment{EventID: "ev1"},
			setup:   func(*RepoMock) {},
			wantErr: ErrBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setup(repo)

			err := newService(repo).UpdateProduct(ctx, "u1", tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				repo.AssertNotCalled(t, "UpdateEventProduct", mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			repo.AssertExpectations(t)
		})
	}
}
