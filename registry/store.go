package registry

import (
	"context"

	"github.com/dai/shuttle/id"
)

// Store defines the persistence contract for in-flight execution records.
// All methods must be idempotent.
type Store interface {
	// AddActive records executionID as in flight for owner.
	AddActive(ctx context.Context, owner OwnerRef, executionID id.ID) error

	// RemoveActive removes executionID from owner. Removing a record that
	// does not exist is not an error.
	RemoveActive(ctx context.Context, owner OwnerRef, executionID id.ID) error

	// ListActive returns the execution IDs recorded for owner, in no
	// particular order.
	ListActive(ctx context.Context, owner OwnerRef) ([]id.ID, error)

	// ClearActive removes every record for owner.
	ClearActive(ctx context.Context, owner OwnerRef) error
}
