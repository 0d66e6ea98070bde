//go:build integration

package redis_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/dai/shuttle"
	"github.com/dai/shuttle/id"
	"github.com/dai/shuttle/jobkey"
	"github.com/dai/shuttle/registry"
	redisstore "github.com/dai/shuttle/store/redis"
)

// setupTestStore starts a Redis container and returns a connected Store.
func setupTestStore(t *testing.T, opts ...redisstore.Option) (*redisstore.Store, *goredis.Client) {
	t.Helper()

	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}
	redisOpts, err := goredis.ParseURL(uri)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}

	client := goredis.NewClient(redisOpts)
	t.Cleanup(func() { _ = client.Close() })

	s := redisstore.New(client, opts...)
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	return s, client
}

func TestLockAcquireRelease(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	key := jobkey.MustEncode("blob.import", 1, "abc", "a.txt", 5, nil)
	first, second := id.NewExecutionID(), id.NewExecutionID()

	ok, err := s.TryAcquire(ctx, key, first, 0)
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	ok, err = s.TryAcquire(ctx, key, second, 0)
	if err != nil || ok {
		t.Fatalf("second acquire while held: ok=%v err=%v", ok, err)
	}

	if err := s.Release(ctx, key, second); err != nil {
		t.Fatalf("foreign release: %v", err)
	}
	held, err := s.Inspect(ctx, key)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if held.ExecutionID != first {
		t.Fatalf("holder = %s, want %s", held.ExecutionID, first)
	}
	if held.ExpiresAt != nil {
		t.Fatalf("expected no expiry, got %v", held.ExpiresAt)
	}

	if err := s.Release(ctx, key, first); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := s.Inspect(ctx, key); !errors.Is(err, shuttle.ErrLockNotHeld) {
		t.Fatalf("Inspect after release: got %v, want ErrLockNotHeld", err)
	}

	ok, err = s.TryAcquire(ctx, key, second, 0)
	if err != nil || !ok {
		t.Fatalf("re-acquire: ok=%v err=%v", ok, err)
	}
}

func TestLockTTL(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	key := jobkey.MustEncode("manifest.precompile", 5, "yaml")
	old := id.NewExecutionID()

	if ok, err := s.TryAcquire(ctx, key, old, 200*time.Millisecond); err != nil || !ok {
		t.Fatalf("acquire: ok=%v err=%v", ok, err)
	}
	held, err := s.Inspect(ctx, key)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if held.ExpiresAt == nil {
		t.Fatal("expected ExpiresAt for a TTL lock")
	}

	time.Sleep(400 * time.Millisecond)

	fresh := id.NewExecutionID()
	if ok, err := s.TryAcquire(ctx, key, fresh, 0); err != nil || !ok {
		t.Fatalf("acquire after expiry: ok=%v err=%v", ok, err)
	}
	if err := s.Release(ctx, key, old); err != nil {
		t.Fatalf("stale release: %v", err)
	}
	held, err = s.Inspect(ctx, key)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if held.ExecutionID != fresh {
		t.Fatalf("stale release cleared the new holder")
	}
}

func TestLockConcurrentAcquire(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	key := jobkey.MustEncode("job", "same")

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.TryAcquire(ctx, key, id.NewExecutionID(), 0)
			if err != nil {
				t.Errorf("TryAcquire: %v", err)
				return
			}
			if ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := wins.Load(); got != 1 {
		t.Fatalf("expected exactly one winner, got %d", got)
	}
}

func TestActiveRecords(t *testing.T) {
	s, client := setupTestStore(t, redisstore.WithActiveTTL(time.Minute))
	ctx := context.Background()
	owner := registry.Commit(5)
	e1, e2 := id.NewExecutionID(), id.NewExecutionID()

	for _, e := range []id.ID{e1, e2} {
		if err := s.AddActive(ctx, owner, e); err != nil {
			t.Fatalf("AddActive: %v", err)
		}
	}

	ttl, err := client.TTL(ctx, "shuttle:active:commit:5").Result()
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl <= 0 {
		t.Fatalf("expected TTL on active set, got %v", ttl)
	}

	ids, err := s.ListActive(ctx, owner)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 active, got %d", len(ids))
	}

	if err := s.RemoveActive(ctx, owner, e1); err != nil {
		t.Fatalf("RemoveActive: %v", err)
	}
	if err := s.RemoveActive(ctx, registry.Commit(99), e1); err != nil {
		t.Fatalf("RemoveActive unknown owner: %v", err)
	}
	if err := s.ClearActive(ctx, owner); err != nil {
		t.Fatalf("ClearActive: %v", err)
	}
	ids, err = s.ListActive(ctx, owner)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected empty, got %v", ids)
	}
}

func TestUnavailable(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	s := redisstore.New(client)
	_, err := s.TryAcquire(context.Background(), jobkey.MustEncode("job"), id.NewExecutionID(), 0)
	if !errors.Is(err, shuttle.ErrLockStoreUnavailable) {
		t.Fatalf("got %v, want ErrLockStoreUnavailable", err)
	}
}
