// Package runner admits job work under an exclusive per-key lock.
//
// For each dispatch the runner derives the job key from the arguments, tries
// to take the lock under a fresh execution ID, and either skips (the lock is
// held elsewhere), waits (when the job asks for it), or runs the work. The
// in-flight record and the lock are removed on every exit path, including a
// panic, using a context the job's own cancellation cannot reach.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/dai/shuttle"
	"github.com/dai/shuttle/backoff"
	"github.com/dai/shuttle/id"
	"github.com/dai/shuttle/job"
	"github.com/dai/shuttle/jobkey"
	"github.com/dai/shuttle/lock"
	"github.com/dai/shuttle/middleware"
	"github.com/dai/shuttle/registry"
)

// Runner executes job calls under per-key mutual exclusion.
// It is safe for concurrent use.
type Runner struct {
	locks    lock.Store
	registry *registry.Registry
	config   shuttle.Config
	backoff  backoff.Strategy
	mws      []middleware.Middleware
	chain    middleware.Middleware
	logger   *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithConfig replaces the runtime configuration.
func WithConfig(cfg shuttle.Config) Option {
	return func(r *Runner) { r.config = cfg }
}

// WithLockTTL sets the lock expiry. Zero means locks never expire.
func WithLockTTL(d time.Duration) Option {
	return func(r *Runner) { r.config.LockTTL = d }
}

// WithWaitTimeout bounds how long a Wait job retries acquisition.
func WithWaitTimeout(d time.Duration) Option {
	return func(r *Runner) { r.config.WaitTimeout = d }
}

// WithBackoff sets the delay strategy between acquisition attempts.
func WithBackoff(s backoff.Strategy) Option {
	return func(r *Runner) { r.backoff = s }
}

// WithMiddleware appends middleware around admitted work.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(r *Runner) { r.mws = append(r.mws, mws...) }
}

// New creates a Runner. reg may be nil, in which case owners are ignored.
func New(locks lock.Store, reg *registry.Registry, opts ...Option) *Runner {
	r := &Runner{
		locks:    locks,
		registry: reg,
		config:   shuttle.DefaultConfig(),
		backoff:  backoff.DefaultStrategy(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.chain = middleware.Chain(r.mws...)
	return r
}

// Run dispatches call. The returned error is non-nil exactly when the
// outcome is Failed, and is the same error as Outcome.Err.
func (r *Runner) Run(ctx context.Context, call job.Call) (Outcome, error) {
	out := Outcome{Name: call.Name, Owner: call.Owner}

	if call.Work == nil {
		return r.fail(out, fmt.Errorf("runner: job %q has no work", call.Name))
	}

	key, err := jobkey.Encode(call.Name, call.Args...)
	if err != nil {
		return r.fail(out, err)
	}
	out.Key = key
	out.ExecutionID = id.NewExecutionID()

	acquired, err := r.acquire(ctx, call, key, out.ExecutionID)
	if err != nil {
		return r.fail(out, err)
	}
	if !acquired {
		out.Status = Skipped
		return out, nil
	}

	start := time.Now()
	err = r.execute(ctx, call, key, out.ExecutionID)
	out.Elapsed = time.Since(start)
	if err != nil {
		return r.fail(out, err)
	}
	out.Status = Executed
	return out, nil
}

func (r *Runner) fail(out Outcome, err error) (Outcome, error) {
	out.Status = Failed
	out.Err = err
	return out, err
}

// acquire takes the lock for key, waiting when the call asks for it. A
// false result with a nil error means the dispatch should be skipped.
//
// A store error may still have taken the lock (a reply lost after the write),
// so every error path releases under execID before returning.
func (r *Runner) acquire(ctx context.Context, call job.Call, key jobkey.Key, execID id.ID) (bool, error) {
	ok, err := r.locks.TryAcquire(ctx, key, execID, r.config.LockTTL)
	if err != nil {
		r.releaseAfterError(ctx, key, execID)
		return false, fmt.Errorf("runner: acquire %s: %w", key, err)
	}
	if ok || call.WhenRunning != job.Wait {
		return ok, nil
	}

	waitCtx := ctx
	if r.config.WaitTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, r.config.WaitTimeout)
		defer cancel()
	}

	for attempt := 1; ; attempt++ {
		if err := backoff.Sleep(waitCtx, r.backoff.Delay(attempt)); err != nil {
			return false, r.waitEnded(ctx, key)
		}
		ok, err := r.locks.TryAcquire(waitCtx, key, execID, r.config.LockTTL)
		if err != nil {
			r.releaseAfterError(ctx, key, execID)
		}
		if waitCtx.Err() != nil && !ok {
			return false, r.waitEnded(ctx, key)
		}
		if err != nil {
			return false, fmt.Errorf("runner: acquire %s: %w", key, err)
		}
		if ok {
			r.logger.Debug("lock acquired after wait",
				slog.String("job_key", key.String()),
				slog.Int("attempts", attempt+1),
			)
			return true, nil
		}
	}
}

// releaseAfterError drops a lock a failed acquire may have taken. Release
// only deletes a lock held under execID, so another holder is never cleared.
func (r *Runner) releaseAfterError(ctx context.Context, key jobkey.Key, execID id.ID) {
	cctx, cancel := r.cleanupContext(ctx)
	defer cancel()

	if err := r.locks.Release(cctx, key, execID); err != nil {
		r.logger.Warn("failed to release lock after acquire error",
			slog.String("job_key", key.String()),
			slog.String("execution_id", execID.String()),
			slog.String("error", err.Error()),
		)
	}
}

// cleanupContext detaches from ctx's cancellation and bounds the result by
// CleanupTimeout.
func (r *Runner) cleanupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	cctx := context.WithoutCancel(ctx)
	if r.config.CleanupTimeout > 0 {
		return context.WithTimeout(cctx, r.config.CleanupTimeout)
	}
	return cctx, func() {}
}

// waitEnded reports why waiting stopped. Running out of wait time is a
// skip; cancellation of the caller's context is an error so the transport
// can hand the message back.
func (r *Runner) waitEnded(ctx context.Context, key jobkey.Key) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("runner: wait for %s: %w", key, err)
	}
	r.logger.Debug("wait for lock timed out",
		slog.String("job_key", key.String()),
		slog.Duration("wait_timeout", r.config.WaitTimeout),
	)
	return nil
}

// execute runs the admitted work. The lock is held on entry.
func (r *Runner) execute(ctx context.Context, call job.Call, key jobkey.Key, execID id.ID) (err error) {
	e := &job.Execution{
		ID:        execID,
		Name:      call.Name,
		Queue:     call.Queue,
		Key:       key,
		Owner:     call.Owner,
		Timeout:   call.Timeout,
		StartedAt: time.Now().UTC(),
	}

	if e.Owner != nil && r.registry != nil {
		if regErr := r.registry.Register(ctx, *e.Owner, execID); regErr != nil {
			r.logger.Warn("failed to record in-flight job",
				slog.String("execution_id", execID.String()),
				slog.String("owner", e.Owner.String()),
				slog.String("error", regErr.Error()),
			)
		}
	}

	defer r.cleanup(ctx, e)
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("job work panicked",
				slog.String("job_name", e.Name),
				slog.String("execution_id", execID.String()),
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("%w: %s: %v", shuttle.ErrPanic, e.Name, rec)
		}
	}()

	return r.chain(job.NewContext(ctx, e), e, middleware.Handler(call.Work))
}

// cleanup unregisters and then releases. Failures are logged only; they
// must never replace the work's own result.
func (r *Runner) cleanup(ctx context.Context, e *job.Execution) {
	cctx, cancel := r.cleanupContext(ctx)
	defer cancel()

	if e.Owner != nil && r.registry != nil {
		if err := r.registry.Unregister(cctx, *e.Owner, e.ID); err != nil {
			r.logger.Error("failed to remove in-flight record",
				slog.String("execution_id", e.ID.String()),
				slog.String("owner", e.Owner.String()),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := r.locks.Release(cctx, e.Key, e.ID); err != nil {
		r.logger.Error("failed to release job lock",
			slog.String("job_key", e.Key.String()),
			slog.String("execution_id", e.ID.String()),
			slog.String("error", err.Error()),
		)
	}
}
