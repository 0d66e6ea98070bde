package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dai/shuttle"
	"github.com/dai/shuttle/id"
	"github.com/dai/shuttle/jobkey"
	"github.com/dai/shuttle/lock"
)

// releaseScript deletes the lock only while it still holds the caller's
// execution ID.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// TryAcquire sets the lock with SET NX, adding PX when ttl is positive.
func (s *Store) TryAcquire(ctx context.Context, key jobkey.Key, executionID id.ID, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0
	}
	ok, err := s.client.SetNX(ctx, s.keys.lock(key), executionID.String(), ttl).Result()
	if err != nil {
		return false, unavailable("acquire lock", err)
	}
	return ok, nil
}

// Release deletes the lock if executionID still holds it.
func (s *Store) Release(ctx context.Context, key jobkey.Key, executionID id.ID) error {
	n, err := releaseScript.Run(ctx, s.client, []string{s.keys.lock(key)}, executionID.String()).Int64()
	if err != nil {
		return unavailable("release lock", err)
	}
	if n == 0 {
		s.logger.Debug("lock release skipped: not the holder",
			slog.String("job_key", key.String()),
			slog.String("execution_id", executionID.String()),
		)
	}
	return nil
}

// Inspect reads the holder and remaining TTL of key.
func (s *Store) Inspect(ctx context.Context, key jobkey.Key) (*lock.Lock, error) {
	rk := s.keys.lock(key)

	pipe := s.client.Pipeline()
	getCmd := pipe.Get(ctx, rk)
	ttlCmd := pipe.PTTL(ctx, rk)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, goredis.Nil) {
		return nil, unavailable("inspect lock", err)
	}

	holder, err := getCmd.Result()
	if errors.Is(err, goredis.Nil) {
		return nil, shuttle.ErrLockNotHeld
	}
	if err != nil {
		return nil, unavailable("inspect lock", err)
	}

	execID, err := id.Parse(holder)
	if err != nil {
		return nil, fmt.Errorf("shuttle/redis: inspect lock %s: %w", key, err)
	}

	l := &lock.Lock{Key: key, ExecutionID: execID}
	if ttl := ttlCmd.Val(); ttl > 0 {
		at := time.Now().UTC().Add(ttl)
		l.ExpiresAt = &at
	}
	return l, nil
}
