package job

import "time"

// Options configures per-job dispatch behavior.
type Options struct {
	// Queue names the transport queue the job is published to. It is
	// informational for the runner and used as a telemetry attribute.
	Queue string

	// Timeout is the maximum duration the work may run. Zero means no limit.
	Timeout time.Duration

	// WhenRunning chooses between skipping and waiting when the job's key
	// is already locked.
	WhenRunning WhenRunning
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Queue:       "default",
		WhenRunning: Skip,
	}
}

// Option is a functional option for configuring a job definition.
type Option func(*Options)

// WithQueue sets the queue name for the job.
func WithQueue(q string) Option {
	return func(o *Options) { o.Queue = q }
}

// WithTimeout sets the maximum execution duration for the job.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

// WithWhenRunning sets the already-running policy.
func WithWhenRunning(w WhenRunning) Option {
	return func(o *Options) { o.WhenRunning = w }
}
