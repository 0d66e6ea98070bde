// Package ext defines the extension system for shuttle.
// Extensions are notified of dispatch outcomes and can react to them with
// metrics, audit trails, or alerts.
//
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
package ext

import (
	"context"

	"github.com/dai/shuttle/job"
	"github.com/dai/shuttle/runner"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Job lifecycle hooks
// ──────────────────────────────────────────────────

// JobStarted is called after the lock is acquired, before the work runs.
type JobStarted interface {
	OnJobStarted(ctx context.Context, e *job.Execution) error
}

// JobExecuted is called after the work returns nil.
type JobExecuted interface {
	OnJobExecuted(ctx context.Context, o runner.Outcome) error
}

// JobSkipped is called when a dispatch found its key already locked.
type JobSkipped interface {
	OnJobSkipped(ctx context.Context, o runner.Outcome) error
}

// JobFailed is called for failures that are returned to the transport.
type JobFailed interface {
	OnJobFailed(ctx context.Context, o runner.Outcome) error
}

// JobIgnored is called for failures the policy classified as ignorable.
type JobIgnored interface {
	OnJobIgnored(ctx context.Context, o runner.Outcome) error
}

// ──────────────────────────────────────────────────
// Other lifecycle hooks
// ──────────────────────────────────────────────────

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
