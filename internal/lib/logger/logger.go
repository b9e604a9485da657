// Package logger настраивает логгер slog для бинарников сервиса.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel переводит строку уровня (debug, info, warn, error) в slog.Level.
// Неизвестные значения дают info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup создаёт текстовый логгер в stdout, делает его логгером по умолчанию и возвращает.
func Setup(level string) *slog.Logger {
	return SetupWriter(os.Stdout, level)
}

// SetupWriter как Setup, но пишет в w.
func SetupWriter(w io.Writer, level string) *slog.Logger {
	log := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
	slog.SetDefault(log)
	return log
}

// Noop возвращает логгер, отбрасывающий все записи. Используется в тестах.
func Noop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
