package nodelink

import (
	"context"

	"github.com/charmbracelet/log"
)

// ctxKey is the type for context keys used in this package.
type ctxKey int

const loggerKey ctxKey = 0

// WithLogger returns a new context with the given logger attached. An
// [Exporter] logs to it in preference to its own logger.
func WithLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// LoggerFromContext retrieves the logger from ctx.
// If no logger is attached, it returns log.Default().
func LoggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := loggerFrom(ctx); ok {
		return l
	}
	return log.Default()
}

func loggerFrom(ctx context.Context) (*log.Logger, bool) {
	l, ok := ctx.Value(loggerKey).(*log.Logger)
	return l, ok && l != nil
}
