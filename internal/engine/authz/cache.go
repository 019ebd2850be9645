package authz

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"patvault/internal/platform/config"
)

// Snapshot is a memoized validation result: everything the pipeline needs to
// answer a repeat request without touching the store. It is derived and
// disposable, never authoritative.
type Snapshot struct {
	TokenID    string   `json:"token_id"`
	UserID     string   `json:"user_id"`
	Scopes     []string `json:"scopes"`
	AllowedIPs []string `json:"allowed_ips,omitempty"`
	ExpiresAt  int64    `json:"expires_at"`
}

// ValidationCache memoizes resolved tokens keyed by a fragment of the secret
// hash. Implementations degrade to no-ops on failure; a cache error must
// never change an authorization decision.
type ValidationCache interface {
	Get(ctx context.Context, secretHash string) (*Snapshot, bool)
	Set(ctx context.Context, secretHash string, snap *Snapshot)
	Invalidate(ctx context.Context, secretHash string)
}

const (
	cacheKeyPrefix = "token_cache:"
	// fragmentLength keeps the key space smaller than the full hash without
	// meaningful collision risk at cache scale.
	fragmentLength = 16
)

func cacheKey(secretHash string) string {
	if len(secretHash) > fragmentLength {
		secretHash = secretHash[:fragmentLength]
	}
	return cacheKeyPrefix + secretHash
}

func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// RedisCache stores snapshots as JSON values with a bounded TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, secretHash string) (*Snapshot, bool) {
	data, err := c.client.Get(ctx, cacheKey(secretHash)).Result()
	if err == redis.Nil {
		return nil, false
	} else if err != nil {
		log.Debug().Err(err).Msg("validation cache read failed")
		return nil, false
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		// Corrupt entry, drop it
		c.client.Del(ctx, cacheKey(secretHash))
		return nil, false
	}

	return &snap, true
}

func (c *RedisCache) Set(ctx context.Context, secretHash string, snap *Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		log.Debug().Err(err).Msg("validation cache marshal failed")
		return
	}

	if err := c.client.Set(ctx, cacheKey(secretHash), data, c.ttl).Err(); err != nil {
		log.Debug().Err(err).Msg("validation cache write failed")
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, secretHash string) {
	if err := c.client.Del(ctx, cacheKey(secretHash)).Err(); err != nil {
		log.Debug().Err(err).Msg("validation cache invalidation failed")
	}
}

// NoopCache is used when caching is disabled; every lookup goes to the store.
type NoopCache struct{}

func (NoopCache) Get(ctx context.Context, secretHash string) (*Snapshot, bool) { return nil, false }
func (NoopCache) Set(ctx context.Context, secretHash string, snap *Snapshot)   {}
func (NoopCache) Invalidate(ctx context.Context, secretHash string)            {}
