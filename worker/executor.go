// Package worker is the top of the dispatch path. An Executor turns a
// (job name, payload) message into a runner call and decides which failures
// reach the transport; a Pool feeds deliveries from a Source through the
// Executor with bounded concurrency and acknowledges them.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dai/shuttle"
	"github.com/dai/shuttle/ext"
	"github.com/dai/shuttle/job"
	"github.com/dai/shuttle/policy"
	"github.com/dai/shuttle/runner"
)

// Executor dispatches one message: it looks up the job, decodes the
// payload, runs it under the job's lock, classifies any failure, and emits
// the matching lifecycle event. It never retries.
type Executor struct {
	registry   *job.Registry
	runner     *runner.Runner
	extensions *ext.Registry
	policy     *policy.Policy
	logger     *slog.Logger
}

// NewExecutor creates an Executor with the given dependencies. A nil policy
// means policy.Default().
func NewExecutor(
	registry *job.Registry,
	run *runner.Runner,
	extensions *ext.Registry,
	pol *policy.Policy,
	logger *slog.Logger,
) *Executor {
	if pol == nil {
		pol = policy.Default()
	}
	return &Executor{
		registry:   registry,
		runner:     run,
		extensions: extensions,
		policy:     pol,
		logger:     logger,
	}
}

// Execute runs the job registered under name with payload.
//
// Executed and Skipped dispatches return a nil error. A failure the policy
// classifies as ignorable is reported with status Ignored and a nil error.
// Any other failure is returned so the transport can nack the message.
func (e *Executor) Execute(ctx context.Context, name string, payload []byte) (runner.Outcome, error) {
	build, ok := e.registry.Get(name)
	if !ok {
		return e.fatal(ctx, runner.Outcome{Name: name}, fmt.Errorf("%w: %q", shuttle.ErrUnknownJob, name))
	}

	call, err := build(payload)
	if err != nil {
		return e.fatal(ctx, runner.Outcome{Name: name}, err)
	}

	out, err := e.runner.Run(ctx, call)
	switch out.Status {
	case runner.Executed:
		e.extensions.EmitJobExecuted(ctx, out)
		return out, nil

	case runner.Skipped:
		e.logger.Debug("job skipped: already running",
			slog.String("job_name", name),
			slog.String("job_key", out.Key.String()),
		)
		e.extensions.EmitJobSkipped(ctx, out)
		return out, nil
	}

	if e.policy.Classify(err) == policy.Ignorable {
		out.Status = runner.Ignored
		e.logger.Info("job ignored: resource not ready",
			slog.String("job_name", name),
			slog.String("job_key", out.Key.String()),
			slog.String("execution_id", out.ExecutionID.String()),
			slog.String("reason", err.Error()),
		)
		e.extensions.EmitJobIgnored(ctx, out)
		return out, nil
	}

	return e.fatal(ctx, out, err)
}

func (e *Executor) fatal(ctx context.Context, out runner.Outcome, err error) (runner.Outcome, error) {
	out.Status = runner.Failed
	out.Err = err
	e.logger.Error("job failed",
		slog.String("job_name", out.Name),
		slog.String("job_key", out.Key.String()),
		slog.String("error", err.Error()),
	)
	e.extensions.EmitJobFailed(ctx, out)
	return out, err
}
