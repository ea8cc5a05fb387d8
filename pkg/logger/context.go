package logger

import (
	"context"
	"log/slog"
)

type loggerKey struct{}

// With stores a child logger carrying fields on ctx. Request scoped values
// such as request_id, user_id and group_id are attached this way.
func With(ctx context.Context, fields ...any) context.Context {
	return context.WithValue(ctx, loggerKey{}, From(ctx).With(fields...))
}

// From returns the logger stored on ctx, falling back to the process logger.
func From(ctx context.Context) *slog.Logger {
	if l, ok := fromContext(ctx); ok {
		return l
	}
	return LoggerWrapper()
}

// FromOr is From with an explicit fallback for callers that own a logger.
func FromOr(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if l, ok := fromContext(ctx); ok {
		return l
	}
	return fallback
}

func fromContext(ctx context.Context) (*slog.Logger, bool) {
	if ctx == nil {
		return nil, false
	}
	l, ok := ctx.Value(loggerKey{}).(*slog.Logger)
	return l, ok
}
