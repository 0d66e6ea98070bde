// Package middleware provides composable middleware for admitted job work.
// Middleware wraps the work synchronously, after the lock is held and before
// it is released.
package middleware

import (
	"context"

	"github.com/dai/shuttle/job"
)

// Handler runs the job's work with the (possibly decorated) context.
type Handler func(ctx context.Context) error

// Middleware decorates admitted work. Returning without calling next skips
// the work; the lock is still released by the runner.
type Middleware func(ctx context.Context, e *job.Execution, next Handler) error

// Chain folds mws into one Middleware, outermost first:
// Chain(a, b)(ctx, e, work) runs a, then b, then work.
func Chain(mws ...Middleware) Middleware {
	if len(mws) == 0 {
		return func(ctx context.Context, _ *job.Execution, next Handler) error {
			return next(ctx)
		}
	}
	return func(ctx context.Context, e *job.Execution, next Handler) error {
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			h = bind(mws[i], e, h)
		}
		return h(ctx)
	}
}

func bind(mw Middleware, e *job.Execution, next Handler) Handler {
	return func(ctx context.Context) error { return mw(ctx, e, next) }
}

// ownerString renders an optional owner for logs and attributes.
func ownerString(e *job.Execution) string {
	if e.Owner == nil {
		return ""
	}
	return e.Owner.String()
}
