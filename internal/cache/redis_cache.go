// Package cache implements an optional distributed cache collaborator
// backed by Redis: a shared copy of the common-names set (published by
// cmd/server on each reload; matching.Engine itself reads its common
// names from config, not from this cache) and a shared ring buffer of recent screening
// IDs, so multiple screening processes behind a load balancer see the
// same "recent" window that a single-process screening.Orchestrator
// otherwise keeps in memory.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sanctions-screening/internal/config"
	"sanctions-screening/internal/observability"
)

// Cache wraps a go-redis client with the key-prefixing and structured
// logging conventions a production Redis cache manager applies.
type Cache struct {
	client *redis.Client
	prefix string
	logger *observability.Logger
}

// New connects to cfg.Data.CacheAddr. An empty address is not an error:
// callers should treat a nil, nil return as "distributed cache disabled",
// falling back to the in-process common-names set and ring buffer.
func New(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*Cache, error) {
	if cfg.Data.CacheAddr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Data.CacheAddr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("cache: connect to redis at %s: %w", cfg.Data.CacheAddr, err)
	}

	prefix := cfg.Data.CachePrefix
	if prefix == "" {
		prefix = "sanctions-screening"
	}

	return &Cache{client: client, prefix: prefix, logger: logger}, nil
}

// Close releases the underlying connection pool.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping verifies the connection is still alive.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) key(name string) string {
	return fmt.Sprintf("%s:%s", c.prefix, name)
}

const commonNamesKey = "common_names"

// CommonNames returns the shared common-names set, normalized names
// matching what matching.Engine stores in its in-process map.
func (c *Cache) CommonNames(ctx context.Context) (map[string]bool, error) {
	members, err := c.client.SMembers(ctx, c.key(commonNamesKey)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache: smembers common_names: %w", err)
	}
	out := make(map[string]bool, len(members))
	for _, m := range members {
		out[m] = true
	}
	return out, nil
}

// SetCommonNames replaces the shared common-names set atomically: a
// pipelined delete-then-add so concurrent readers never observe a
// partially-populated set.
func (c *Cache) SetCommonNames(ctx context.Context, normalizedNames []string) error {
	key := c.key(commonNamesKey)
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(normalizedNames) > 0 {
		members := make([]interface{}, len(normalizedNames))
		for i, n := range normalizedNames {
			members[i] = n
		}
		pipe.SAdd(ctx, key, members...)
	}
	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("cache: replace common_names set: %w", err)
	}
	return nil
}

const recentScreeningsKey = "recent_screenings"

// PushRecentScreening records screeningID at the head of the shared ring
// buffer and trims it to cap entries, mirroring the bounded-buffer
// eviction rule screening.Orchestrator applies in-process.
func (c *Cache) PushRecentScreening(ctx context.Context, screeningID string, maxLen int64) error {
	if maxLen <= 0 {
		maxLen = 10000
	}
	key := c.key(recentScreeningsKey)
	pipe := c.client.TxPipeline()
	pipe.LPush(ctx, key, screeningID)
	pipe.LTrim(ctx, key, 0, maxLen-1)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("cache: push recent screening: %w", err)
	}
	return nil
}

// RecentScreeningIDs returns up to limit of the most recently pushed
// screening IDs, most recent first.
func (c *Cache) RecentScreeningIDs(ctx context.Context, limit int64) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	ids, err := c.client.LRange(ctx, c.key(recentScreeningsKey), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("cache: lrange recent screenings: %w", err)
	}
	return ids, nil
}
