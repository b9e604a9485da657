// Package storage описывает хранилище пользователей и событий. Реализации:
// airtable (по умолчанию) и postgres.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/magabrotheeeer/subbers/internal/models"
)

// ErrNotFound запись не найдена.
var ErrNotFound = errors.New("record not found")

// UserRepository хранилище пользователей, ключ email.
type UserRepository interface {
	// GetOrCreateUser возвращает пользователя по email, создавая его при первом обращении.
	GetOrCreateUser(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateStripeKey(ctx context.Context, userID, key string) error
	UpdateZoomTokens(ctx context.Context, userID string, tokens models.ZoomTokens) error
}

// EventRepository хранилище событий. Обновления работают по принципу
// «последняя запись выигрывает», блокировок нет.
type EventRepository interface {
	ListEventsByUser(ctx context.Context, userID string) ([]models.Event, error)
	// ListReminderEvents возвращает все события с включёнными напоминаниями.
	ListReminderEvents(ctx context.Context) ([]models.Event, error)
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	CreateEvent(ctx context.Context, ev models.Event) (*models.Event, error)
	UpdateEventProduct(ctx context.Context, id, product string) error
	MarkReminderSent(ctx context.Context, id string, at time.Time) error
}

// Repository полное хранилище сервиса.
type Repository interface {
	UserRepository
	EventRepository
	Close() error
}
