package ext

import (
	"context"
	"log/slog"

	"github.com/dai/shuttle/job"
	"github.com/dai/shuttle/middleware"
	"github.com/dai/shuttle/runner"
)

// entry pairs a hook implementation with the extension name captured at
// registration time.
type entry[H any] struct {
	name string
	hook H
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	jobStarted  []entry[JobStarted]
	jobExecuted []entry[JobExecuted]
	jobSkipped  []entry[JobSkipped]
	jobFailed   []entry[JobFailed]
	jobIgnored  []entry[JobIgnored]
	shutdown    []entry[Shutdown]
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(JobStarted); ok {
		r.jobStarted = append(r.jobStarted, entry[JobStarted]{name, h})
	}
	if h, ok := e.(JobExecuted); ok {
		r.jobExecuted = append(r.jobExecuted, entry[JobExecuted]{name, h})
	}
	if h, ok := e.(JobSkipped); ok {
		r.jobSkipped = append(r.jobSkipped, entry[JobSkipped]{name, h})
	}
	if h, ok := e.(JobFailed); ok {
		r.jobFailed = append(r.jobFailed, entry[JobFailed]{name, h})
	}
	if h, ok := e.(JobIgnored); ok {
		r.jobIgnored = append(r.jobIgnored, entry[JobIgnored]{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, entry[Shutdown]{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// ──────────────────────────────────────────────────
// Job event emitters
// ──────────────────────────────────────────────────

// EmitJobStarted notifies all extensions that implement JobStarted.
func (r *Registry) EmitJobStarted(ctx context.Context, e *job.Execution) {
	for _, x := range r.jobStarted {
		if err := x.hook.OnJobStarted(ctx, e); err != nil {
			r.logHookError("OnJobStarted", x.name, err)
		}
	}
}

// EmitJobExecuted notifies all extensions that implement JobExecuted.
func (r *Registry) EmitJobExecuted(ctx context.Context, o runner.Outcome) {
	for _, x := range r.jobExecuted {
		if err := x.hook.OnJobExecuted(ctx, o); err != nil {
			r.logHookError("OnJobExecuted", x.name, err)
		}
	}
}

// EmitJobSkipped notifies all extensions that implement JobSkipped.
func (r *Registry) EmitJobSkipped(ctx context.Context, o runner.Outcome) {
	for _, x := range r.jobSkipped {
		if err := x.hook.OnJobSkipped(ctx, o); err != nil {
			r.logHookError("OnJobSkipped", x.name, err)
		}
	}
}

// EmitJobFailed notifies all extensions that implement JobFailed.
func (r *Registry) EmitJobFailed(ctx context.Context, o runner.Outcome) {
	for _, x := range r.jobFailed {
		if err := x.hook.OnJobFailed(ctx, o); err != nil {
			r.logHookError("OnJobFailed", x.name, err)
		}
	}
}

// EmitJobIgnored notifies all extensions that implement JobIgnored.
func (r *Registry) EmitJobIgnored(ctx context.Context, o runner.Outcome) {
	for _, x := range r.jobIgnored {
		if err := x.hook.OnJobIgnored(ctx, o); err != nil {
			r.logHookError("OnJobIgnored", x.name, err)
		}
	}
}

// EmitOutcome routes o to the emitter matching its status.
func (r *Registry) EmitOutcome(ctx context.Context, o runner.Outcome) {
	switch o.Status {
	case runner.Executed:
		r.EmitJobExecuted(ctx, o)
	case runner.Skipped:
		r.EmitJobSkipped(ctx, o)
	case runner.Failed:
		r.EmitJobFailed(ctx, o)
	case runner.Ignored:
		r.EmitJobIgnored(ctx, o)
	}
}

// Middleware returns middleware that emits JobStarted once an execution is
// admitted. The runner installs it so skipped dispatches never fire it.
func (r *Registry) Middleware() middleware.Middleware {
	return func(ctx context.Context, e *job.Execution, next middleware.Handler) error {
		r.EmitJobStarted(ctx, e)
		return next(ctx)
	}
}

// ──────────────────────────────────────────────────
// Other event emitters
// ──────────────────────────────────────────────────

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, x := range r.shutdown {
		if err := x.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", x.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Hook errors are never propagated.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
