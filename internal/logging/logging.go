// Package logging собирает *slog.Logger по уровню из конфигурации.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// ParseLevel понимает debug, info, warn и error в любом регистре; остальное — info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// New возвращает JSON-логгер, пишущий в w.
func New(level string, w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}
