// Package users содержит бизнес-логику пользователей: get-or-create по email
// с кешированием, хранение зашифрованного ключа биллинга и токенов Zoom.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/subbers/internal/lib/sl"
	"github.com/magabrotheeeer/subbers/internal/models"
	"github.com/magabrotheeeer/subbers/internal/storage"
)

// ErrBadRequest некорректные входные данные.
var ErrBadRequest = errors.New("bad request")

// ErrNotFound пользователь не найден.
var ErrNotFound = storage.ErrNotFound

// Repository определяет методы хранилища пользователей.
type Repository interface {
	GetOrCreateUser(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateStripeKey(ctx context.Context, userID, key string) error
	UpdateZoomTokens(ctx context.Context, userID string, tokens models.ZoomTokens) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(ctx context.Context, key string) error
}

// Sealer шифрует и расшифровывает секреты пользователя.
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(value string) (string, error)
}

// Service реализует работу с пользователями.
type Service struct {
	repo  Repository
	cache Cache
	box   Sealer
	ttl   time.Duration
	log   *slog.Logger
}

// New создаёт Service. ttl время жизни записи пользователя в кеше.
func New(repo Repository, cache Cache, box Sealer, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		box:   box,
		ttl:   ttl,
		log:   log,
	}
}

func cacheKey(email string) string {
	return "user:email:" + email
}

// GetOrCreate возвращает пользователя по email, создавая его при первом обращении.
func (s *Service) GetOrCreate(ctx context.Context, email string) (*models.User, error) {
	const op = "users.GetOrCreate"
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("%s: empty email: %w", op, ErrBadRequest)
	}

	key := cacheKey(email)
	var cached models.User
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("failed to read user from cache", slog.String("key", key), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	u, err := s.repo.GetOrCreateUser(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, key, u, s.ttl); err != nil {
		s.log.Warn("failed to cache user", slog.String("key", key), sl.Err(err))
	}
	return u, nil
}

// ByID возвращает пользователя по id.
func (s *Service) ByID(ctx context.Context, id string) (*models.User, error) {
	const op = "users.ByID"
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// SaveStripeKey шифрует и сохраняет ключ биллинга пользователя.
func (s *Service) SaveStripeKey(ctx context.Context, u *models.User, key string) error {
	const op = "users.SaveStripeKey"
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%s: empty key: %w", op, ErrBadRequest)
	}

	sealed, err := s.box.Seal(key)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.UpdateStripeKey(ctx, u.ID, sealed); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, u.Email)
	s.log.Info("stripe key saved", slog.String("user_id", u.ID))
	return nil
}

// SaveZoomTokens шифрует и сохраняет токены Zoom пользователя.
func (s *Service) SaveZoomTokens(ctx context.Context, u *models.User, tokens models.ZoomTokens) error {
	const op = "users.SaveZoomTokens"
	var (
		sealed models.ZoomTokens
		err    error
	)
	if sealed.AccessToken, err = s.box.Seal(tokens.AccessToken); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tokens.RefreshToken != "" {
		if sealed.RefreshToken, err = s.box.Seal(tokens.RefreshToken); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	sealed.Expiry = tokens.Expiry

	if err := s.repo.UpdateZoomTokens(ctx, u.ID, sealed); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, u.Email)
	s.log.Info("zoom tokens saved", slog.String("user_id", u.ID))
	return nil
}

// StripeKey возвращает расшифрованный ключ биллинга или пустую строку.
func (s *Service) StripeKey(u *models.User) (string, error) {
	const op = "users.StripeKey"
	if u.StripeKey == "" {
		return "", nil
	}
	key, err := s.box.Open(u.StripeKey)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return key, nil
}

// Info возвращает сведения о пользователе с маскированным ключом.
func (s *Service) Info(u *models.User) (models.UserInfo, error) {
	const op = "users.Info"
	key, err := s.StripeKey(u)
	if err != nil {
		return models.UserInfo{}, fmt.Errorf("%s: %w", op, err)
	}
	return models.UserInfo{
		StripeKey:     MaskKey(key),
		UserID:        u.ID,
		ZoomConnected: u.ZoomConnected(),
	}, nil
}

// MaskKey оставляет видимыми только последние четыре символа ключа.
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

func (s *Service) invalidate(ctx context.Context, email string) {
	key := cacheKey(email)
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("key", key), sl.Err(err))
	}
}
