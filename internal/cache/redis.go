// Package cache хранит короткоживущие записи в redis и предоставляет
// распределённую блокировку для планировщика напоминаний.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/subbers/internal/config"
)

// ErrLocked возвращается, если блокировка уже захвачена другим владельцем.
var ErrLocked = errors.New("lock is held by another owner")

// unlockScript удаляет ключ, только если он принадлежит владельцу токена.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Cache обёртка над клиентом redis.
type Cache struct {
	Db *redis.Client
}

// InitServer подключается к redis и проверяет соединение.
func InitServer(ctx context.Context, cfg config.Redis) (*Cache, error) {
	const op = "cache.InitServer"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Cache{Db: db}, nil
}

// Get читает JSON-значение ключа в result. Возвращает false, если ключа нет.
func (c *Cache) Get(ctx context.Context, key string, result any) (bool, error) {
	const op = "cache.Get"
	val, err := c.Db.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err = json.Unmarshal(val, result); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// Set сохраняет value в JSON на время expiration.
func (c *Cache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	const op = "cache.Set"
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := c.Db.Set(ctx, key, data, expiration).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Invalidate удаляет ключ.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	const op = "cache.Invalidate"
	if err := c.Db.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// TryLock захватывает блокировку key на ttl (SET NX PX). Возвращает функцию
// освобождения или ErrLocked, если блокировка занята.
func (c *Cache) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	const op = "cache.TryLock"
	token := uuid.NewString()
	ok, err := c.Db.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return func(ctx context.Context) error {
		if err := unlockScript.Run(ctx, c.Db, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("cache.Unlock: %w", err)
		}
		return nil
	}, nil
}

// Ready проверяет соединение с redis.
func (c *Cache) Ready(ctx context.Context) error {
	if err := c.Db.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache.Ready: %w", err)
	}
	return nil
}

// Close закрывает соединение.
func (c *Cache) Close() error {
	return c.Db.Close()
}
