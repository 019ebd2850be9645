package authz

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func setupRedisCache(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client, ttl), mr
}

func TestRedisCache_RoundTrip(t *testing.T) {
	cache, _ := setupRedisCache(t, 5*time.Minute)
	ctx := context.Background()

	hash := "a3f2b1c4d5e6f7a8b9c0d1e2f3a4b5c6a3f2b1c4d5e6f7a8b9c0d1e2f3a4b5c6"
	snap := &Snapshot{
		TokenID:    "tok_1",
		UserID:     "usr_1",
		Scopes:     []string{"workspaces:read", "fcs:analyze"},
		AllowedIPs: []string{"10.0.0.0/24"},
		ExpiresAt:  1900000000,
	}

	if _, ok := cache.Get(ctx, hash); ok {
		t.Fatal("Expected miss before Set")
	}

	cache.Set(ctx, hash, snap)

	got, ok := cache.Get(ctx, hash)
	if !ok {
		t.Fatal("Expected hit after Set")
	}
	if got.TokenID != snap.TokenID || got.UserID != snap.UserID || got.ExpiresAt != snap.ExpiresAt {
		t.Errorf("Snapshot mismatch: %+v", got)
	}
	if len(got.Scopes) != 2 || len(got.AllowedIPs) != 1 {
		t.Errorf("Slices not round-tripped: %+v", got)
	}

	cache.Invalidate(ctx, hash)
	if _, ok := cache.Get(ctx, hash); ok {
		t.Error("Expected miss after Invalidate")
	}
}

func TestRedisCache_KeyUsesHashFragment(t *testing.T) {
	cache, mr := setupRedisCache(t, 5*time.Minute)
	ctx := context.Background()

	hash := "a3f2b1c4d5e6f7a8b9c0d1e2f3a4b5c6a3f2b1c4d5e6f7a8b9c0d1e2f3a4b5c6"
	cache.Set(ctx, hash, &Snapshot{TokenID: "tok_1"})

	want := "token_cache:" + hash[:16]
	if !mr.Exists(want) {
		t.Errorf("Expected key %q in redis, got %v", want, mr.Keys())
	}
}

func TestRedisCache_TTL(t *testing.T) {
	cache, mr := setupRedisCache(t, time.Minute)
	ctx := context.Background()

	hash := "b4c5d6e7f8a9b0c1b4c5d6e7f8a9b0c1b4c5d6e7f8a9b0c1b4c5d6e7f8a9b0c1"
	cache.Set(ctx, hash, &Snapshot{TokenID: "tok_1"})

	mr.FastForward(2 * time.Minute)

	if _, ok := cache.Get(ctx, hash); ok {
		t.Error("Expected entry to expire after TTL")
	}
}

func TestRedisCache_CorruptEntryDropped(t *testing.T) {
	cache, mr := setupRedisCache(t, time.Minute)
	ctx := context.Background()

	hash := "c5d6e7f8a9b0c1d2c5d6e7f8a9b0c1d2c5d6e7f8a9b0c1d2c5d6e7f8a9b0c1d2"
	key := "token_cache:" + hash[:16]
	if err := mr.Set(key, "{not json"); err != nil {
		t.Fatalf("Failed to seed corrupt entry: %v", err)
	}

	if _, ok := cache.Get(ctx, hash); ok {
		t.Fatal("Corrupt entry must read as a miss")
	}
	if mr.Exists(key) {
		t.Error("Corrupt entry must be deleted on read")
	}
}

func TestRedisCache_DegradesWhenRedisDown(t *testing.T) {
	cache, mr := setupRedisCache(t, time.Minute)
	ctx := context.Background()

	mr.Close()

	hash := "d6e7f8a9b0c1d2e3d6e7f8a9b0c1d2e3d6e7f8a9b0c1d2e3d6e7f8a9b0c1d2e3"

	// None of these may panic or error; a dead cache is a permanent miss.
	cache.Set(ctx, hash, &Snapshot{TokenID: "tok_1"})
	if _, ok := cache.Get(ctx, hash); ok {
		t.Error("Expected miss when redis is down")
	}
	cache.Invalidate(ctx, hash)
}
