package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
)

// LogLevel определяет уровень логирования из переменной окружения.
// Возможные значения: DEBUG, INFO, WARN, ERROR
// По умолчанию: INFO
func LogLevel() slog.Level {
	level := os.Getenv("LOG_LEVEL")
	switch level {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogFormat возвращает формат логов для w.
//
// Явное значение LOG_FORMAT ("json" или "text") имеет приоритет.
// Иначе для терминала выбирается "text", для всего остального "json".
func LogFormat(w io.Writer) string {
	switch format := os.Getenv("LOG_FORMAT"); format {
	case "json", "text":
		return format
	}

	if f, ok := w.(*os.File); ok && isTerminal(f.Fd()) {
		return "text"
	}
	return "json"
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// SetupLogger инициализирует глобальный логгер, пишущий в w.
func SetupLogger(w io.Writer) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level:     LogLevel(),
		AddSource: LogLevel() == slog.LevelDebug,
	}

	if LogFormat(w) == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// Ключи контекста для передачи данных в логгер.
type ctxKey string

const (
	// CtxLogger — ключ для логгера в контексте.
	CtxLogger ctxKey = "logger"
)

// WithLogger добавляет логгер в контекст.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, CtxLogger, logger)
}

// FromContext извлекает логгер из контекста.
// Если логгер не найден, возвращает глобальный.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(CtxLogger).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithReleaseID возвращает логгер с добавленным release_id.
func WithReleaseID(logger *slog.Logger, releaseID string) *slog.Logger {
	return logger.With("release_id", releaseID)
}

// WithEnvironment возвращает логгер с добавленным environment.
func WithEnvironment(logger *slog.Logger, env string) *slog.Logger {
	return logger.With("environment", env)
}

// WithStep возвращает логгер с добавленным step.
func WithStep(logger *slog.Logger, step string) *slog.Logger {
	return logger.With("step", step)
}

// WithHost возвращает логгер с добавленным host.
func WithHost(logger *slog.Logger, host string) *slog.Logger {
	return logger.With("host", host)
}
