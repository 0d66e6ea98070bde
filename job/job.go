package job

import (
	"context"
	"time"

	"github.com/dai/shuttle/id"
	"github.com/dai/shuttle/jobkey"
	"github.com/dai/shuttle/registry"
)

// WhenRunning says what a dispatch does when another execution already
// holds the lock for its key.
type WhenRunning int

const (
	// Skip drops the dispatch. This is the default.
	Skip WhenRunning = iota
	// Wait retries acquisition until the holder releases, the context is
	// done, or the runner's wait timeout elapses.
	Wait
)

// String returns the policy name.
func (w WhenRunning) String() string {
	if w == Wait {
		return "wait"
	}
	return "skip"
}

// Args is implemented by a job's typed arguments. KeyArgs returns the
// ordered values that identify one logical job; dispatches with equal
// KeyArgs never run concurrently.
type Args interface {
	KeyArgs() []any
}

// Owned is implemented by arguments whose in-flight executions should be
// visible on a domain entity.
type Owned interface {
	Owner() (registry.OwnerRef, bool)
}

// Call is one dispatch ready to run: the identity the lock is keyed on and
// the work to perform once it is acquired.
type Call struct {
	Name        string
	Queue       string
	Args        []any
	Owner       *registry.OwnerRef
	WhenRunning WhenRunning
	Timeout     time.Duration
	Work        func(ctx context.Context) error
}

// Execution describes an admitted run. Middleware and extensions receive it.
type Execution struct {
	ID        id.ID
	Name      string
	Queue     string
	Key       jobkey.Key
	Owner     *registry.OwnerRef
	Timeout   time.Duration
	StartedAt time.Time
}
