package logger

import (
	"context"
	"log/slog"
)

type ContextKey string

// Business context keys, following the OpenTelemetry attribute naming style.
const (
	SessionIDKey ContextKey = "chat.session.id"
	ChatStageKey ContextKey = "chat.stage"
)

// WithSessionID adds the session id to context for observability
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

// WithChatStage adds the current chat pipeline stage to context
func WithChatStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, ChatStageKey, stage)
}

// FromContext returns log with the business context values of ctx attached.
func FromContext(ctx context.Context, log *slog.Logger) *slog.Logger {
	var fields []any

	if sessionID := ctx.Value(SessionIDKey); sessionID != nil {
		fields = append(fields, string(SessionIDKey), sessionID)
	}
	if stage := ctx.Value(ChatStageKey); stage != nil {
		fields = append(fields, string(ChatStageKey), stage)
	}

	if len(fields) == 0 {
		return log
	}
	return log.With(fields...)
}
