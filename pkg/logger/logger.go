// Package logger предоставляет минимальный интерфейс логирования поверх log/slog.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger — интерфейс, который получают все компоненты приложения.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(err error, format string, args ...any)
}

type slogLogger struct {
	log *slog.Logger
}

// NewSlogLogger создаёт JSON-логгер в stdout. Уровень берётся из LOG_LEVEL (debug, info, warn, error).
func NewSlogLogger() Logger {
	return New(os.Stdout, parseLevel(os.Getenv("LOG_LEVEL")))
}

// New создаёт логгер, пишущий JSON в w.
func New(w io.Writer, level slog.Level) Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return &slogLogger{log: slog.New(handler)}
}

// NewNopLogger возвращает логгер, отбрасывающий все записи.
func NewNopLogger() Logger {
	return New(io.Discard, slog.LevelError+1)
}

func (l *slogLogger) Debugf(format string, args ...any) {
	l.log.Debug(fmt.Sprintf(format, args...))
}

func (l *slogLogger) Infof(format string, args ...any) {
	l.log.Info(fmt.Sprintf(format, args...))
}

func (l *slogLogger) Warnf(format string, args ...any) {
	l.log.Warn(fmt.Sprintf(format, args...))
}

func (l *slogLogger) Errorf(err error, format string, args ...any) {
	l.log.Error(fmt.Sprintf(format, args...), slog.Any("error", err))
}

func parseLevel(s string) slog.Level {
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
