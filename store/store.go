// Package store defines the aggregate persistence interface. The lock and
// registry subsystems each define their own store interface; a single
// backend implements both. Backends: Memory and Redis.
package store

import (
	"context"

	"github.com/dai/shuttle/lock"
	"github.com/dai/shuttle/registry"
)

// Store is the aggregate persistence interface.
type Store interface {
	lock.Store
	registry.Store

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
