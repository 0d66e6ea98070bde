package runner

import (
	"time"

	"github.com/dai/shuttle/id"
	"github.com/dai/shuttle/jobkey"
	"github.com/dai/shuttle/registry"
)

// Status is the terminal state of one dispatch.
type Status int

const (
	// Executed means the lock was acquired and the work returned nil.
	Executed Status = iota + 1
	// Skipped means another execution held the lock; the work never ran.
	Skipped
	// Failed means the work, the key encoding, or the lock store failed.
	Failed
	// Ignored is assigned by the dispatcher to failures its policy
	// classifies as ignorable. The runner never returns it.
	Ignored
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Executed:
		return "executed"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	case Ignored:
		return "ignored"
	default:
		return "unknown"
	}
}

// Outcome reports what happened to one dispatch.
type Outcome struct {
	Status      Status
	Name        string
	Key         jobkey.Key
	ExecutionID id.ID // nil when the key could not be encoded
	Owner       *registry.OwnerRef
	Elapsed     time.Duration // time spent in the work; zero unless admitted
	Err         error
}
