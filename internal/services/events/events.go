// Package events содержит бизнес-логику событий: список с пересчётом
// следующего наступления, создание из формы и привязку продукта.
package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	// База часовых поясов для форм с локальным временем.
	_ "time/tzdata"

	"github.com/magabrotheeeer/subbers/internal/lib/sl"
	"github.com/magabrotheeeer/subbers/internal/models"
	"github.com/magabrotheeeer/subbers/internal/recurrence"
	"github.com/magabrotheeeer/subbers/internal/storage"
)

var (
	// ErrBadRequest некорректные входные данные формы.
	ErrBadRequest = errors.New("bad request")
	// ErrInvalidRecurrence некорректное правило повторения.
	ErrInvalidRecurrence = recurrence.ErrInvalidRecurrence
	// ErrNotFound событие не найдено или принадлежит другому пользователю.
	ErrNotFound = storage.ErrNotFound
)

// localLayouts форматы поля datetime-local без смещения.
var localLayouts = []string{"2006-01-02T15:04", "2006-01-02T15:04:05", "2006-01-02"}

// Repository определяет методы хранилища событий.
type Repository interface {
	ListEventsByUser(ctx context.Context, userID string) ([]models.Event, error)
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	CreateEvent(ctx context.Context, ev models.Event) (*models.Event, error)
	UpdateEventProduct(ctx context.Context, id, product string) error
}

// Service реализует работу с событиями.
type Service struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time
}

// New создаёт Service.
func New(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// WithClock подменяет источник текущего времени.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// List возвращает события пользователя с актуальным nextOccurrence.
// Для событий с некорректным правилом остаётся сохранённое значение.
func (s *Service) List(ctx context.Context, userID string) ([]models.Event, error) {
	const op = "events.List"
	evs, err := s.repo.ListEventsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	for i := range evs {
		next, err := recurrence.NextOccurrence(recurrence.ForEvent(evs[i]), evs[i].NextOccurrence, now)
		if err != nil {
			s.log.Warn("cannot compute next occurrence",
				slog.String("event_id", evs[i].ID), sl.Err(err))
			continue
		}
		evs[i].NextOccurrence = next
	}
	return evs, nil
}

// Create создаёт событие пользователя из формы.
func (s *Service) Create(ctx context.Context, userID string, form models.DummyEvent) (*models.Event, error) {
	const op = "events.Create"

	ev, err := s.fromForm(userID, form)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.repo.CreateEvent(ctx, ev)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("created new event", slog.String("id", created.ID), slog.String("user_id", userID))
	return created, nil
}

func (s *Service) fromForm(userID string, form models.DummyEvent) (models.Event, error) {
	title := strings.TrimSpace(form.Title)
	if title == "" {
		return models.Event{}, fmt.Errorf("%w: event title is required", ErrBadRequest)
	}

	loc := location(form.TimeZone)
	start, err := parseTime(form.StartDate, loc)
	if err != nil {
		return models.Event{}, fmt.Errorf("%w: invalid start date: %w", ErrBadRequest, err)
	}
	var end *time.Time
	if strings.TrimSpace(form.RecurrenceEnd) != "" {
		t, err := parseTime(form.RecurrenceEnd, loc)
		if err != nil {
			return models.Event{}, fmt.Errorf("%w: invalid recurrence end: %w", ErrBadRequest, err)
		}
		end = &t
	}

	kind := recurrence.ParseKind(form.RecurrenceType)
	interval := form.Interval
	if !kind.Recurring() && interval < 1 {
		interval = 1
	}

	offset := models.DefaultReminderOffset
	if form.ReminderOffset != nil {
		offset = *form.ReminderOffset
	}

	ev := models.Event{
		UserID:          userID,
		Title:           title,
		StartDate:       start,
		RecurrenceType:  string(kind),
		Interval:        interval,
		RecurrenceEnd:   end,
		TimeZone:        form.TimeZone,
		Product:         strings.TrimSpace(form.Product),
		ReminderEnabled: form.ReminderEnabled,
		ReminderOffset:  offset,
		EmailSubject:    form.EmailSubject,
		EmailMessage:    form.EmailMessage,
	}

	rule := recurrence.ForEvent(ev)
	if err := rule.Validate(); err != nil {
		return models.Event{}, err
	}
	now := s.now()
	var stored *time.Time
	if start.After(now) {
		stored = &start
	}
	next, err := recurrence.NextOccurrence(rule, stored, now)
	if err != nil {
		return models.Event{}, err
	}
	ev.NextOccurrence = next
	return ev, nil
}

// UpdateProduct привязывает продукт к событию пользователя.
// Чужое событие неотличимо от отсутствующего.
func (s *Service) UpdateProduct(ctx context.Context, userID string, req models.ProductAssignment) error {
	const op = "events.UpdateProduct"
	if strings.TrimSpace(req.EventID) == "" || strings.TrimSpace(req.Product) == "" {
		return fmt.Errorf("%s: %w: eventId and product are required", op, ErrBadRequest)
	}

	ev, err := s.repo.GetEvent(ctx, req.EventID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if ev.UserID != userID {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	if err := s.repo.UpdateEventProduct(ctx, req.EventID, strings.TrimSpace(req.Product)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("event product updated", slog.String("id", req.EventID))
	return nil
}

func location(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// parseTime принимает RFC 3339 или локальное время формы в часовом поясе loc.
func parseTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	var lastErr error
	for _, layout := range localLayouts {
		t, err := time.ParseInLocation(layout, v, loc)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
