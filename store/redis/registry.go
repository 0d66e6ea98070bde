package redis

import (
	"context"
	"log/slog"

	"github.com/dai/shuttle/id"
	"github.com/dai/shuttle/registry"
)

// AddActive adds executionID to the owner's Set and refreshes its TTL when
// one is configured.
func (s *Store) AddActive(ctx context.Context, owner registry.OwnerRef, executionID id.ID) error {
	key := s.keys.active(owner)

	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, key, executionID.String())
	if s.activeTTL > 0 {
		pipe.Expire(ctx, key, s.activeTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return unavailable("add active", err)
	}
	return nil
}

// RemoveActive removes executionID from the owner's Set. Redis drops the
// Set once it is empty.
func (s *Store) RemoveActive(ctx context.Context, owner registry.OwnerRef, executionID id.ID) error {
	if err := s.client.SRem(ctx, s.keys.active(owner), executionID.String()).Err(); err != nil {
		return unavailable("remove active", err)
	}
	return nil
}

// ListActive returns the members of the owner's Set.
func (s *Store) ListActive(ctx context.Context, owner registry.OwnerRef) ([]id.ID, error) {
	members, err := s.client.SMembers(ctx, s.keys.active(owner)).Result()
	if err != nil {
		return nil, unavailable("list active", err)
	}

	ids := make([]id.ID, 0, len(members))
	for _, m := range members {
		execID, parseErr := id.Parse(m)
		if parseErr != nil {
			s.logger.Warn("skipping malformed active record",
				slog.String("owner", owner.String()),
				slog.String("member", m),
			)
			continue
		}
		ids = append(ids, execID)
	}
	return ids, nil
}

// ClearActive deletes the owner's Set.
func (s *Store) ClearActive(ctx context.Context, owner registry.OwnerRef) error {
	if err := s.client.Del(ctx, s.keys.active(owner)).Err(); err != nil {
		return unavailable("clear active", err)
	}
	return nil
}
