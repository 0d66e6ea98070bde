package audithook

import (
	"context"
	"log/slog"

	"github.com/dai/shuttle/ext"
	"github.com/dai/shuttle/job"
	"github.com/dai/shuttle/runner"
)

// Compile-time interface checks.
var (
	_ ext.Extension   = (*Extension)(nil)
	_ ext.JobStarted  = (*Extension)(nil)
	_ ext.JobExecuted = (*Extension)(nil)
	_ ext.JobSkipped  = (*Extension)(nil)
	_ ext.JobFailed   = (*Extension)(nil)
	_ ext.JobIgnored  = (*Extension)(nil)
)

// Recorder persists audit events.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is one audit record.
type AuditEvent struct {
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc adapts a plain function to Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Severity values.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome values. A skipped or ignored dispatch did no work but is not a
// failure.
const (
	OutcomeSuccess = "success"
	OutcomeNoop    = "noop"
	OutcomeFailure = "failure"
)

// Extension records lifecycle events through a Recorder. Recorder failures
// are logged and never affect the job.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that records through r.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements ext.Extension.
func (e *Extension) Name() string { return "audit-hook" }

// ── Lifecycle hooks ─────────────────────────────────

// OnJobStarted implements ext.JobStarted.
func (e *Extension) OnJobStarted(ctx context.Context, x *job.Execution) error {
	meta := map[string]any{
		"job_name": x.Name,
		"job_key":  x.Key.String(),
		"queue":    x.Queue,
	}
	if x.Owner != nil {
		meta["owner"] = x.Owner.String()
	}
	return e.record(ctx, &AuditEvent{
		Action:     ActionJobStarted,
		Resource:   ResourceExecution,
		ResourceID: x.ID.String(),
		Severity:   SeverityInfo,
		Outcome:    OutcomeSuccess,
		Metadata:   meta,
	})
}

// OnJobExecuted implements ext.JobExecuted.
func (e *Extension) OnJobExecuted(ctx context.Context, o runner.Outcome) error {
	return e.recordOutcome(ctx, ActionJobExecuted, SeverityInfo, OutcomeSuccess, o)
}

// OnJobSkipped implements ext.JobSkipped.
func (e *Extension) OnJobSkipped(ctx context.Context, o runner.Outcome) error {
	return e.recordOutcome(ctx, ActionJobSkipped, SeverityInfo, OutcomeNoop, o)
}

// OnJobIgnored implements ext.JobIgnored.
func (e *Extension) OnJobIgnored(ctx context.Context, o runner.Outcome) error {
	return e.recordOutcome(ctx, ActionJobIgnored, SeverityWarning, OutcomeNoop, o)
}

// OnJobFailed implements ext.JobFailed.
func (e *Extension) OnJobFailed(ctx context.Context, o runner.Outcome) error {
	return e.recordOutcome(ctx, ActionJobFailed, SeverityCritical, OutcomeFailure, o)
}

// ── Internal helpers ────────────────────────────────

func (e *Extension) recordOutcome(ctx context.Context, action, severity, outcome string, o runner.Outcome) error {
	evt := &AuditEvent{
		Action:   action,
		Severity: severity,
		Outcome:  outcome,
		Metadata: map[string]any{
			"job_name":   o.Name,
			"status":     o.Status.String(),
			"elapsed_ms": o.Elapsed.Milliseconds(),
		},
	}
	if o.Key != "" {
		evt.Metadata["job_key"] = o.Key.String()
	}
	if o.Owner != nil {
		evt.Metadata["owner"] = o.Owner.String()
	}

	switch {
	case !o.ExecutionID.IsNil():
		evt.Resource, evt.ResourceID = ResourceExecution, o.ExecutionID.String()
	case o.Key != "":
		evt.Resource, evt.ResourceID = ResourceJobKey, o.Key.String()
	default:
		evt.Resource, evt.ResourceID = ResourceJobKey, o.Name
	}

	if o.Err != nil {
		evt.Reason = o.Err.Error()
		evt.Metadata["error"] = o.Err.Error()
	}
	return e.record(ctx, evt)
}

// record sends evt if its action is enabled.
func (e *Extension) record(ctx context.Context, evt *AuditEvent) error {
	if e.enabled != nil && !e.enabled[evt.Action] {
		return nil
	}
	evt.Category = CategoryJob

	if err := e.recorder.Record(ctx, evt); err != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			slog.String("action", evt.Action),
			slog.String("resource_id", evt.ResourceID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}
