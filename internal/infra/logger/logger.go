package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log/global"
)

const instrumentationName = "news-rag-chat"

// New creates a JSON logger writing to stdout only.
func New() *slog.Logger {
	return NewWithOTel(false)
}

// NewWithOTel creates a logger with optional OTel log export.
func NewWithOTel(enableOTel bool) *slog.Logger {
	return newLogger(os.Stdout, parseLevel(os.Getenv("LOG_LEVEL")), enableOTel)
}

func newLogger(w io.Writer, level slog.Level, enableOTel bool) *slog.Logger {
	var handler slog.Handler = NewTraceContextHandler(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	if enableOTel {
		handler = newTeeHandler(handler, otelslog.NewHandler(
			instrumentationName,
			otelslog.WithLoggerProvider(global.GetLoggerProvider()),
		))
	}

	log := slog.New(handler)
	log.Info("logger_initialized", "otel_enabled", enableOTel, "level", level.String())
	return log
}

// teeHandler writes every record to the console handler and to the OTel
// bridge, which reads trace context from the Go context itself.
type teeHandler struct {
	console slog.Handler
	export  slog.Handler
}

func newTeeHandler(console, export slog.Handler) *teeHandler {
	return &teeHandler{console: console, export: export}
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.console.Enabled(ctx, level) || h.export.Enabled(ctx, level)
}

func (h *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, target := range [2]slog.Handler{h.console, h.export} {
		if target.Enabled(ctx, r.Level) {
			errs = append(errs, target.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return newTeeHandler(h.console.WithAttrs(attrs), h.export.WithAttrs(attrs))
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return newTeeHandler(h.console.WithGroup(name), h.export.WithGroup(name))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
