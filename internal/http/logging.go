package http

import (
	"context"
	"log/slog"

	"github.com/example/personal-calendar/internal/logging"
)

// handlerLogger prefers the request logger installed by RequestLogger so
// handler lines carry the request id.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	return logging.Scoped(ctx, fallback, "handler", handlerName, operation, attrs...)
}
