package shuttle

import "time"

// Config holds runtime settings shared by the runner and executor.
type Config struct {
	// LockTTL bounds how long a lock survives a holder that never releases
	// it. Zero means locks never expire on their own.
	LockTTL time.Duration

	// WaitTimeout is how long a job declared WhenRunning=Wait keeps trying
	// to acquire a held lock before it is reported as skipped.
	WaitTimeout time.Duration

	// CleanupTimeout bounds the unregister and release calls made after the
	// work returns. They run on a context detached from the job's own.
	CleanupTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LockTTL:        0,
		WaitTimeout:    30 * time.Second,
		CleanupTimeout: 5 * time.Second,
	}
}
