package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/dai/shuttle/job"
)

// Logging returns middleware that logs the start and end of admitted work.
// Ignorable failures (see WithIgnorable) are logged at info level as
// deferred.
func Logging(logger *slog.Logger, opts ...Option) Middleware {
	o := buildOptions(opts)
	return func(ctx context.Context, e *job.Execution, next Handler) error {
		logger.Info("job started",
			slog.String("job_name", e.Name),
			slog.String("job_key", e.Key.String()),
			slog.String("execution_id", e.ID.String()),
			slog.String("owner", ownerString(e)),
		)

		start := time.Now()
		err := next(ctx)
		attrs := []any{
			slog.String("job_name", e.Name),
			slog.String("execution_id", e.ID.String()),
			slog.Duration("elapsed", time.Since(start)),
		}

		switch o.result(err) {
		case "ignored":
			logger.Info("job deferred", append(attrs, slog.String("reason", err.Error()))...)
		case "error":
			logger.Warn("job returned error", append(attrs, slog.String("error", err.Error()))...)
		default:
			logger.Info("job completed", attrs...)
		}

		return err
	}
}
