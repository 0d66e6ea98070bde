package middleware

import (
	"context"
	"log/slog"

	"github.com/dai/shuttle/job"
)

// Timeout returns middleware that enforces the execution's deadline.
// A zero Timeout leaves the context untouched. Work that ignores its context
// keeps running; the lock is held until it returns.
func Timeout(logger *slog.Logger) Middleware {
	return func(ctx context.Context, e *job.Execution, next Handler) error {
		if e.Timeout > 0 {
			logger.Debug("job timeout set",
				slog.String("execution_id", e.ID.String()),
				slog.Duration("timeout", e.Timeout),
			)
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, e.Timeout)
			defer cancel()
		}
		return next(ctx)
	}
}
