package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/dai/shuttle"
	"github.com/dai/shuttle/job"
)

// Recover returns middleware that recovers from panics in the handler chain.
// Panics become errors wrapping shuttle.ErrPanic and are logged with a stack
// trace.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, e *job.Execution, next Handler) (retErr error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("job handler panicked",
					slog.String("job_name", e.Name),
					slog.String("execution_id", e.ID.String()),
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
				)
				retErr = fmt.Errorf("%w: %s: %v", shuttle.ErrPanic, e.Name, r)
			}
		}()
		return next(ctx)
	}
}
