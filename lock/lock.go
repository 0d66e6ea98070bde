// Package lock defines the per-key job lock contract.
//
// A lock is keyed by jobkey.Key and records the execution ID of its holder.
// Acquisition is an atomic check-and-set; release is a compare-and-delete on
// the execution ID, so a late or duplicate release never clears a newer
// holder's lock.
package lock

import (
	"context"
	"time"

	"github.com/dai/shuttle/id"
	"github.com/dai/shuttle/jobkey"
)

// Lock is the observable state of a held lock.
type Lock struct {
	Key         jobkey.Key `json:"key"`
	ExecutionID id.ID      `json:"execution_id"`
	// ExpiresAt is nil for locks acquired without a TTL.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Store defines the persistence contract for job locks.
//
// Errors caused by an unreachable or closed backend wrap
// shuttle.ErrLockStoreUnavailable. Callers must not run protected work
// when TryAcquire returns an error.
type Store interface {
	// TryAcquire sets the lock for key to executionID if it is not held and
	// reports whether it did. A positive ttl makes the lock expire on its
	// own; zero means it is held until released.
	TryAcquire(ctx context.Context, key jobkey.Key, executionID id.ID, ttl time.Duration) (bool, error)

	// Release clears the lock for key only if executionID holds it. It is a
	// no-op when the lock is clear or held by another execution.
	Release(ctx context.Context, key jobkey.Key, executionID id.ID) error

	// Inspect returns the current holder of key, or shuttle.ErrLockNotHeld.
	Inspect(ctx context.Context, key jobkey.Key) (*Lock, error)
}
