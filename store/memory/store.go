// Package memory implements store.Store in process memory. It is safe for
// concurrent use and intended for tests, development, and single-process
// workers.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dai/shuttle"
	"github.com/dai/shuttle/id"
	"github.com/dai/shuttle/jobkey"
	"github.com/dai/shuttle/lock"
	"github.com/dai/shuttle/registry"
	"github.com/dai/shuttle/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

type lockEntry struct {
	executionID id.ID
	expiresAt   time.Time // zero means no expiry
}

func (e lockEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !e.expiresAt.After(now)
}

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu sync.Mutex

	locks  map[jobkey.Key]lockEntry
	active map[registry.OwnerRef]map[id.ID]struct{}
	closed bool

	now func() time.Time
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		locks:  make(map[jobkey.Key]lockEntry),
		active: make(map[registry.OwnerRef]map[id.ID]struct{}),
		now:    time.Now,
	}
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

// Ping fails once the store is closed.
func (m *Store) Ping(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkOpen()
}

// Close marks the store closed. Later calls fail with
// shuttle.ErrLockStoreUnavailable, which lets tests exercise fail-closed paths.
func (m *Store) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *Store) checkOpen() error {
	if m.closed {
		return fmt.Errorf("%w: %w", shuttle.ErrLockStoreUnavailable, shuttle.ErrStoreClosed)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Lock Store
// ──────────────────────────────────────────────────

// TryAcquire atomically takes the lock for key if it is clear or expired.
func (m *Store) TryAcquire(_ context.Context, key jobkey.Key, executionID id.ID, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkOpen(); err != nil {
		return false, err
	}

	now := m.now()
	if e, held := m.locks[key]; held && !e.expired(now) {
		return false, nil
	}

	e := lockEntry{executionID: executionID}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}
	m.locks[key] = e
	return true, nil
}

// Release clears the lock for key if executionID holds it.
func (m *Store) Release(_ context.Context, key jobkey.Key, executionID id.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkOpen(); err != nil {
		return err
	}

	e, held := m.locks[key]
	if !held || e.executionID != executionID {
		return nil // not holding the lock; no-op
	}
	delete(m.locks, key)
	return nil
}

// Inspect returns the current holder of key.
func (m *Store) Inspect(_ context.Context, key jobkey.Key) (*lock.Lock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkOpen(); err != nil {
		return nil, err
	}

	e, held := m.locks[key]
	if !held || e.expired(m.now()) {
		return nil, shuttle.ErrLockNotHeld
	}

	l := &lock.Lock{Key: key, ExecutionID: e.executionID}
	if !e.expiresAt.IsZero() {
		at := e.expiresAt
		l.ExpiresAt = &at
	}
	return l, nil
}

// ──────────────────────────────────────────────────
// Registry Store
// ──────────────────────────────────────────────────

// AddActive records executionID under owner.
func (m *Store) AddActive(_ context.Context, owner registry.OwnerRef, executionID id.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkOpen(); err != nil {
		return err
	}

	set, ok := m.active[owner]
	if !ok {
		set = make(map[id.ID]struct{})
		m.active[owner] = set
	}
	set[executionID] = struct{}{}
	return nil
}

// RemoveActive removes executionID from owner. Missing records are ignored.
func (m *Store) RemoveActive(_ context.Context, owner registry.OwnerRef, executionID id.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkOpen(); err != nil {
		return err
	}

	set, ok := m.active[owner]
	if !ok {
		return nil
	}
	delete(set, executionID)
	if len(set) == 0 {
		delete(m.active, owner)
	}
	return nil
}

// ListActive returns the execution IDs recorded for owner.
func (m *Store) ListActive(_ context.Context, owner registry.OwnerRef) ([]id.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkOpen(); err != nil {
		return nil, err
	}

	set := m.active[owner]
	ids := make([]id.ID, 0, len(set))
	for execID := range set {
		ids = append(ids, execID)
	}
	return ids, nil
}

// ClearActive removes every record for owner.
func (m *Store) ClearActive(_ context.Context, owner registry.OwnerRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkOpen(); err != nil {
		return err
	}
	delete(m.active, owner)
	return nil
}
