// Package backend выбирает реализацию хранилища по конфигурации.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/subbers/internal/config"
	"github.com/magabrotheeeer/subbers/internal/migrations"
	"github.com/magabrotheeeer/subbers/internal/storage"
	"github.com/magabrotheeeer/subbers/internal/storage/airtable"
	"github.com/magabrotheeeer/subbers/internal/storage/postgres"
)

// Open создаёт хранилище. Для postgres перед возвратом применяются миграции.
func Open(ctx context.Context, cfg config.Storage, log *slog.Logger) (storage.Repository, error) {
	const op = "backend.Open"

	switch cfg.Driver {
	case config.StorageAirtable:
		s, err := airtable.New(airtable.Config{
			BaseURL:     cfg.AirtableURL,
			BaseID:      cfg.AirtableBaseID,
			APIKey:      cfg.AirtableAPIKey,
			UsersTable:  cfg.UsersTable,
			EventsTable: cfg.EventsTable,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		log.Info("storage initialized", slog.String("driver", cfg.Driver))
		return s, nil

	case config.StoragePostgres:
		s, err := postgres.New(ctx, cfg.ConnectionString)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := migrations.Run(s.DB, cfg.MigrationsPath); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := s.Ready(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		log.Info("storage initialized", slog.String("driver", cfg.Driver))
		return s, nil

	default:
		return nil, fmt.Errorf("%s: unknown storage driver %q", op, cfg.Driver)
	}
}
