// Package airtable реализует storage.Repository поверх REST API Airtable.
// Пользователи и события хранятся в двух таблицах одной базы; фильтры
// передаются формулами с экранированием значений.
package airtable

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/magabrotheeeer/subbers/internal/models"
	"github.com/magabrotheeeer/subbers/internal/storage"
)

// Config параметры подключения к базе.
type Config struct {
	BaseURL     string
	BaseID      string
	APIKey      string
	UsersTable  string
	EventsTable string
}

// Storage хранилище пользователей и событий в Airtable.
type Storage struct {
	c           *client
	usersTable  string
	eventsTable string
}

var _ storage.Repository = (*Storage)(nil)

// New создаёт Storage.
func New(cfg Config) (*Storage, error) {
	const op = "airtable.New"
	if cfg.APIKey == "" || cfg.BaseID == "" {
		return nil, fmt.Errorf("%s: api key and base id are required", op)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.airtable.com/v0"
	}
	if cfg.UsersTable == "" {
		cfg.UsersTable = "Users"
	}
	if cfg.EventsTable == "" {
		cfg.EventsTable = "Events"
	}
	return &Storage{
		c:           newClient(strings.TrimRight(cfg.BaseURL, "/"), cfg.BaseID, cfg.APIKey),
		usersTable:  cfg.UsersTable,
		eventsTable: cfg.EventsTable,
	}, nil
}

// Close ничего не освобождает: соединения принадлежат http.Client.
func (s *Storage) Close() error { return nil }

// GetOrCreateUser ищет пользователя по email и создаёт его при отсутствии.
// Две одновременные первые авторизации могут создать дубликаты; читается первая запись.
func (s *Storage) GetOrCreateUser(ctx context.Context, email string) (*models.User, error) {
	const op = "airtable.GetOrCreateUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	recs, err := list[userFields](ctx, s.c, s.usersTable, EqFold(fEmail, email), 1)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(recs) > 0 {
		return userFromRecord(recs[0]), nil
	}

	rec, err := create(ctx, s.c, s.usersTable, userFields{Email: email})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return userFromRecord(*rec), nil
}

// GetUser возвращает пользователя по id записи.
func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	const op = "airtable.GetUser"
	rec, err := get[userFields](ctx, s.c, s.usersTable, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return userFromRecord(*rec), nil
}

// UpdateStripeKey сохраняет ключ биллинга пользователя.
func (s *Storage) UpdateStripeKey(ctx context.Context, userID, key string) error {
	const op = "airtable.UpdateStripeKey"
	if err := s.c.patch(ctx, s.usersTable, userID, map[string]any{fStripeKey: key}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateZoomTokens сохраняет токены Zoom пользователя.
func (s *Storage) UpdateZoomTokens(ctx context.Context, userID string, t models.ZoomTokens) error {
	const op = "airtable.UpdateZoomTokens"
	fields := map[string]any{
		fZoomAccessToken:  t.AccessToken,
		fZoomRefreshToken: t.RefreshToken,
		fZoomTokenExpiry:  timeValue(t.Expiry),
	}
	if err := s.c.patch(ctx, s.usersTable, userID, fields); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListEventsByUser возвращает события пользователя.
func (s *Storage) ListEventsByUser(ctx context.Context, userID string) ([]models.Event, error) {
	const op = "airtable.ListEventsByUser"
	return s.listEvents(ctx, op, Eq(fUserID, userID))
}

// ListReminderEvents возвращает события с включёнными напоминаниями.
func (s *Storage) ListReminderEvents(ctx context.Context) ([]models.Event, error) {
	const op = "airtable.ListReminderEvents"
	return s.listEvents(ctx, op, IsTrue(fReminderEnabled))
}

func (s *Storage) listEvents(ctx context.Context, op, formula string) ([]models.Event, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	recs, err := list[eventFields](ctx, s.c, s.eventsTable, formula, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	events := make([]models.Event, 0, len(recs))
	for _, r := range recs {
		events = append(events, eventFromRecord(r))
	}
	return events, nil
}

// GetEvent возвращает событие по id записи.
func (s *Storage) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	const op = "airtable.GetEvent"
	rec, err := get[eventFields](ctx, s.c, s.eventsTable, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ev := eventFromRecord(*rec)
	return &ev, nil
}

// CreateEvent создаёт событие и возвращает его с присвоенным id.
func (s *Storage) CreateEvent(ctx context.Context, ev models.Event) (*models.Event, error) {
	const op = "airtable.CreateEvent"
	rec, err := create(ctx, s.c, s.eventsTable, eventToFields(ev))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	created := eventFromRecord(*rec)
	return &created, nil
}

// UpdateEventProduct привязывает продукт к событию.
func (s *Storage) UpdateEventProduct(ctx context.Context, id, product string) error {
	const op = "airtable.UpdateEventProduct"
	if err := s.c.patch(ctx, s.eventsTable, id, map[string]any{fProduct: product}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// MarkReminderSent записывает время отправки напоминания.
func (s *Storage) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	const op = "airtable.MarkReminderSent"
	if err := s.c.patch(ctx, s.eventsTable, id, map[string]any{fLastReminderSent: timeValue(&at)}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
