// Package postgres реализует storage.Repository на основе PostgreSQL.
// Схема создаётся миграциями из каталога migrations.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/subbers/internal/models"
	"github.com/magabrotheeeer/subbers/internal/storage"
)

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

var _ storage.Repository = (*Storage)(nil)

// New открывает подключение к PostgreSQL и проверяет его.
func New(ctx context.Context, connectionString string) (*Storage, error) {
	const op = "postgres.New"

	db, err := sql.Open("pgx", connectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Storage{DB: db}, nil
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// Ready проверяет, что схема применена.
func (s *Storage) Ready(ctx context.Context) error {
	const op = "postgres.Ready"
	var exists bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (
		SELECT FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name = 'events'
	)`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return fmt.Errorf("%s: required table events missing", op)
	}
	return nil
}

const userColumns = `id, email, stripe_key, zoom_access_token, zoom_refresh_token, zoom_token_expiry`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var expiry sql.NullTime
	if err := row.Scan(&u.ID, &u.Email, &u.StripeKey,
		&u.Zoom.AccessToken, &u.Zoom.RefreshToken, &expiry); err != nil {
		return nil, err
	}
	if expiry.Valid {
		t := expiry.Time.UTC()
		u.Zoom.Expiry = &t
	}
	return u, nil
}

// GetOrCreateUser возвращает пользователя по email, создавая его при отсутствии.
// Уникальный индекс по email исключает дубликаты при одновременном создании.
func (s *Storage) GetOrCreateUser(ctx context.Context, email string) (*models.User, error) {
	const op = "postgres.GetOrCreateUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (id, email)
			  VALUES ($1, $2)
			  ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, uuid.NewString(), email))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUser возвращает пользователя по id.
func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	const op = "postgres.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return u, nil
}

// UpdateStripeKey сохраняет ключ биллинга пользователя.
func (s *Storage) UpdateStripeKey(ctx context.Context, userID, key string) error {
	const op = "postgres.UpdateStripeKey"
	if err := s.exec(ctx, `UPDATE users SET stripe_key = $1 WHERE id = $2`, key, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateZoomTokens сохраняет токены Zoom пользователя.
func (s *Storage) UpdateZoomTokens(ctx context.Context, userID string, t models.ZoomTokens) error {
	const op = "postgres.UpdateZoomTokens"
	query := `UPDATE users
			  SET zoom_access_token = $1, zoom_refresh_token = $2, zoom_token_expiry = $3
			  WHERE id = $4`
	if err := s.exec(ctx, query, t.AccessToken, t.RefreshToken, nullTime(t.Expiry), userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

const eventColumns = `id, user_id, title, start_date, recurrence_type, recurrence_interval,
	recurrence_end, time_zone, next_occurrence, product, reminder_enabled, reminder_offset,
	last_reminder_sent, email_subject, email_message`

func scanEvent(row rowScanner) (*models.Event, error) {
	ev := &models.Event{}
	var end, next, lastSent sql.NullTime
	if err := row.Scan(&ev.ID, &ev.UserID, &ev.Title, &ev.StartDate, &ev.RecurrenceType,
		&ev.Interval, &end, &ev.TimeZone, &next, &ev.Product, &ev.ReminderEnabled,
		&ev.ReminderOffset, &lastSent, &ev.EmailSubject, &ev.EmailMessage); err != nil {
		return nil, err
	}
	ev.StartDate = ev.StartDate.UTC()
	ev.RecurrenceEnd = timePtr(end)
	ev.NextOccurrence = timePtr(next)
	ev.LastReminderSent = timePtr(lastSent)
	return ev, nil
}

// ListEventsByUser возвращает события пользователя в порядке создания.
func (s *Storage) ListEventsByUser(ctx context.Context, userID string) ([]models.Event, error) {
	const op = "postgres.ListEventsByUser"
	if _, err := uuid.Parse(userID); err != nil {
		return []models.Event{}, nil
	}
	query := `SELECT ` + eventColumns + ` FROM events WHERE user_id = $1 ORDER BY created_at, id`
	return s.queryEvents(ctx, op, query, userID)
}

// ListReminderEvents возвращает события с включёнными напоминаниями.
func (s *Storage) ListReminderEvents(ctx context.Context) ([]models.Event, error) {
	const op = "postgres.ListReminderEvents"
	query := `SELECT ` + eventColumns + ` FROM events WHERE reminder_enabled ORDER BY created_at, id`
	return s.queryEvents(ctx, op, query)
}

func (s *Storage) queryEvents(ctx context.Context, op, query string, args ...any) ([]models.Event, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	events := []models.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		events = append(events, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return events, nil
}

// GetEvent возвращает событие по id.
func (s *Storage) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	const op = "postgres.GetEvent"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	ev, err := scanEvent(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return ev, nil
}

// CreateEvent сохраняет событие с новым id.
func (s *Storage) CreateEvent(ctx context.Context, ev models.Event) (*models.Event, error) {
	const op = "postgres.CreateEvent"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO events (id, user_id, title, start_date, recurrence_type,
				  recurrence_interval, recurrence_end, time_zone, next_occurrence, product,
				  reminder_enabled, reminder_offset, last_reminder_sent, email_subject, email_message)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			  RETURNING ` + eventColumns
	created, err := scanEvent(s.DB.QueryRowContext(ctx, query,
		uuid.NewString(), ev.UserID, ev.Title, ev.StartDate, ev.RecurrenceType,
		ev.Interval, nullTime(ev.RecurrenceEnd), ev.TimeZone, nullTime(ev.NextOccurrence),
		ev.Product, ev.ReminderEnabled, ev.ReminderOffset, nullTime(ev.LastReminderSent),
		ev.EmailSubject, ev.EmailMessage))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// UpdateEventProduct привязывает продукт к событию.
func (s *Storage) UpdateEventProduct(ctx context.Context, id, product string) error {
	const op = "postgres.UpdateEventProduct"
	if err := s.exec(ctx, `UPDATE events SET product = $1 WHERE id = $2`, product, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// MarkReminderSent записывает время отправки напоминания.
func (s *Storage) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	const op = "postgres.MarkReminderSent"
	if err := s.exec(ctx, `UPDATE events SET last_reminder_sent = $1 WHERE id = $2`, at.UTC(), id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// exec выполняет обновление одной записи по id (последний аргумент).
// Отсутствие затронутых строк означает storage.ErrNotFound.
func (s *Storage) exec(ctx context.Context, query string, args ...any) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if id, ok := args[len(args)-1].(string); ok {
		if _, err := uuid.Parse(id); err != nil {
			return storage.ErrNotFound
		}
	}

	res, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	return err
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}
