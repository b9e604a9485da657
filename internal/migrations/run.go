// Package migrations применяет SQL-миграции схемы PostgreSQL из каталога migrations.
package migrations

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	pgxv5 "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func newMigrate(db *sql.DB, path string) (*migrate.Migrate, error) {
	driver, err := pgxv5.WithInstance(db, &pgxv5.Config{})
	if err != nil {
		return nil, err
	}
	return migrate.NewWithDatabaseInstance("file://"+path, "pgx_v5", driver)
}

// Run применяет все непримененные миграции. Отсутствие изменений не ошибка.
func Run(db *sql.DB, path string) error {
	const op = "migrations.Run"
	m, err := newMigrate(db, path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Down откатывает steps последних миграций.
func Down(db *sql.DB, path string, steps int) error {
	const op = "migrations.Down"
	m, err := newMigrate(db, path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Version возвращает текущую версию схемы и признак незавершённой миграции.
func Version(db *sql.DB, path string) (uint, bool, error) {
	const op = "migrations.Version"
	m, err := newMigrate(db, path)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", op, err)
	}
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", op, err)
	}
	return v, dirty, nil
}
