// Package redis implements store.Store on Redis so every worker in a
// deployment shares one lock domain. Locks are plain string keys set with
// SET NX and released with a compare-and-delete script; in-flight execution
// records are Sets keyed by owner.
//
// Usage:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	s := redisstore.New(client)
//	if err := s.Ping(ctx); err != nil { ... }
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dai/shuttle"
	"github.com/dai/shuttle/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Option configures the Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithPrefix overrides the key prefix (default "shuttle:"). Use it to run
// several isolated deployments against one Redis.
func WithPrefix(p string) Option {
	return func(s *Store) { s.keys = keyspace{prefix: p} }
}

// WithActiveTTL makes each owner's in-flight set expire d after its last
// registration, so records left by a crashed worker eventually disappear.
// Zero (the default) keeps them until they are removed.
func WithActiveTTL(d time.Duration) Option {
	return func(s *Store) { s.activeTTL = d }
}

// Store implements store.Store backed by Redis.
type Store struct {
	client    goredis.Cmdable
	logger    *slog.Logger
	keys      keyspace
	activeTTL time.Duration
}

// New creates a Redis-backed store. The caller owns the client lifecycle.
func New(client goredis.Cmdable, opts ...Option) *Store {
	s := &Store{
		client: client,
		logger: slog.Default(),
		keys:   keyspace{prefix: defaultPrefix},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Client returns the underlying Redis client.
func (s *Store) Client() goredis.Cmdable { return s.client }

// Ping verifies the Redis connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// Close is a no-op; the caller owns the Redis client lifecycle.
func (s *Store) Close() error { return nil }

// unavailable wraps a driver error so callers see both
// shuttle.ErrLockStoreUnavailable and the cause.
func unavailable(op string, err error) error {
	return fmt.Errorf("shuttle/redis: %s: %w: %w", op, shuttle.ErrLockStoreUnavailable, err)
}
