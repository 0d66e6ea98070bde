// Package registry tracks which job executions are in flight for a domain
// entity, so the entity can show in-progress work or be told to forget it.
//
// The registry observes job lifetimes; it never owns them. Removing a record
// neither cancels the job nor releases its lock.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dai/shuttle"
	"github.com/dai/shuttle/id"
)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// Registry indexes in-flight execution IDs by owning entity.
type Registry struct {
	store  Store
	logger *slog.Logger
}

// New creates a Registry backed by store.
func New(store Store, opts ...Option) *Registry {
	r := &Registry{store: store, logger: slog.Default()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Register records executionID as in flight for owner.
func (r *Registry) Register(ctx context.Context, owner OwnerRef, executionID id.ID) error {
	if !owner.Valid() {
		return fmt.Errorf("%w: %q", shuttle.ErrInvalidOwner, owner.String())
	}
	if executionID.IsNil() {
		return fmt.Errorf("registry: register %s: nil execution id", owner)
	}
	if err := r.store.AddActive(ctx, owner, executionID); err != nil {
		return fmt.Errorf("registry: register %s: %w", owner, err)
	}
	return nil
}

// Unregister removes executionID from owner. It is idempotent, and a no-op
// for an owner that no longer has any record, including one whose entity was
// deleted while the job ran.
func (r *Registry) Unregister(ctx context.Context, owner OwnerRef, executionID id.ID) error {
	if !owner.Valid() || executionID.IsNil() {
		return nil
	}
	if err := r.store.RemoveActive(ctx, owner, executionID); err != nil {
		return fmt.Errorf("registry: unregister %s: %w", owner, err)
	}
	return nil
}

// ListActive returns the in-flight execution IDs for owner, oldest first.
// The result is never nil.
func (r *Registry) ListActive(ctx context.Context, owner OwnerRef) ([]id.ID, error) {
	if !owner.Valid() {
		return []id.ID{}, nil
	}
	ids, err := r.store.ListActive(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("registry: list %s: %w", owner, err)
	}
	if ids == nil {
		ids = []id.ID{}
	}
	slices.SortFunc(ids, id.Compare)
	return ids, nil
}

// Forget drops every in-flight record for owner.
func (r *Registry) Forget(ctx context.Context, owner OwnerRef) error {
	if !owner.Valid() {
		return nil
	}
	if err := r.store.ClearActive(ctx, owner); err != nil {
		return fmt.Errorf("registry: forget %s: %w", owner, err)
	}
	r.logger.Info("forgot in-flight jobs", slog.String("owner", owner.String()))
	return nil
}
