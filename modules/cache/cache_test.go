package cache

import (
	"context"
	"testing"
	"time"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/redis/go-redis/v9"
)

// TestConfig for unit tests - requires Redis running on localhost:6379
const testRedisAddr = "localhost:6379"

// setupTestCache creates a cache instance for testing.
// Returns the cache and a cleanup function.
func setupTestCache(t *testing.T, prefix string) (*Cache, func()) {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: testRedisAddr,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}

	// Clean up any existing keys with this prefix
	cleanupKeys(ctx, client, prefix+"*")

	cache := New(client, prefix, 5*time.Minute)

	cleanup := func() {
		cleanupKeys(ctx, client, prefix+"*")
		client.Close()
	}

	return cache, cleanup
}

// cleanupKeys removes all keys matching the pattern.
func cleanupKeys(ctx context.Context, client *redis.Client, pattern string) {
	var cursor uint64
	for {
		keys, nextCursor, err := client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return
		}
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
}

func TestNew(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	defer client.Close()

	cache := New(client, "test:", 10*time.Minute)

	if cache == nil {
		t.Fatal("New() returned nil")
	}
	if cache.prefix != "test:" {
		t.Errorf("prefix = %q, want %q", cache.prefix, "test:")
	}
	if cache.ttl != 10*time.Minute {
		t.Errorf("ttl = %v, want %v", cache.ttl, 10*time.Minute)
	}
}

func TestCache_SetAndGetStats(t *testing.T) {
	cache, cleanup := setupTestCache(t, "test:setget:")
	defer cleanup()

	ctx := context.Background()

	stats := domain.Stats{Total: 4, Completed: 3, Pending: 1, Percent: 75}
	if err := cache.SetStats(ctx, "user-1", stats); err != nil {
		t.Fatalf("SetStats() error = %v", err)
	}

	var result domain.Stats
	found, err := cache.GetStats(ctx, "user-1", &result)
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if !found {
		t.Fatal("GetStats() returned found = false, want true")
	}
	if result != stats {
		t.Errorf("GetStats() = %+v, want %+v", result, stats)
	}
}

func TestCache_GetStatsMiss(t *testing.T) {
	cache, cleanup := setupTestCache(t, "test:miss:")
	defer cleanup()

	ctx := context.Background()

	var result domain.Stats
	found, err := cache.GetStats(ctx, "nobody", &result)
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if found {
		t.Error("GetStats() returned found = true for uncached user, want false")
	}
}

func TestCache_UsersAreIsolated(t *testing.T) {
	cache, cleanup := setupTestCache(t, "test:isolated:")
	defer cleanup()

	ctx := context.Background()

	if err := cache.SetStats(ctx, "alice", domain.Stats{Total: 2}); err != nil {
		t.Fatalf("SetStats() error = %v", err)
	}

	var result domain.Stats
	found, err := cache.GetStats(ctx, "bob", &result)
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if found {
		t.Error("GetStats() for bob found alice's entry")
	}
}

func TestCache_InvalidateUser(t *testing.T) {
	cache, cleanup := setupTestCache(t, "test:invalidate:")
	defer cleanup()

	ctx := context.Background()

	if err := cache.SetStats(ctx, "user-1", domain.Stats{Total: 1}); err != nil {
		t.Fatalf("SetStats() error = %v", err)
	}
	if err := cache.SetStats(ctx, "user-2", domain.Stats{Total: 2}); err != nil {
		t.Fatalf("SetStats() error = %v", err)
	}

	if err := cache.InvalidateUser(ctx, "user-1"); err != nil {
		t.Fatalf("InvalidateUser() error = %v", err)
	}

	var result domain.Stats
	found, _ := cache.GetStats(ctx, "user-1", &result)
	if found {
		t.Error("GetStats() found entry after invalidation")
	}

	// Invalidation is scoped to one user.
	found, _ = cache.GetStats(ctx, "user-2", &result)
	if !found {
		t.Error("GetStats() lost an unrelated user's entry")
	}

	// Invalidating an absent entry is a no-op, not an error.
	if err := cache.InvalidateUser(ctx, "user-1"); err != nil {
		t.Errorf("InvalidateUser() of absent entry error = %v", err)
	}
}

func TestCache_KeyPrefix(t *testing.T) {
	cache, cleanup := setupTestCache(t, "myprefix:")
	defer cleanup()

	ctx := context.Background()

	if err := cache.SetStats(ctx, "user-1", domain.Stats{Total: 1}); err != nil {
		t.Fatalf("SetStats() error = %v", err)
	}

	// Verify the key layout using the underlying client
	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	defer client.Close()

	exists, err := client.Exists(ctx, "myprefix:stats:user-1").Result()
	if err != nil {
		t.Fatalf("Direct Redis Exists error = %v", err)
	}
	if exists != 1 {
		t.Error("stats entry not stored under <prefix>stats:<userID>")
	}
}

func TestCache_Ping(t *testing.T) {
	cache, cleanup := setupTestCache(t, "test:ping:")
	defer cleanup()

	if err := cache.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
