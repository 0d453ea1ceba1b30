// Package cache accelerates API-key verification with a read-through
// Redis layer in front of Postgres, so a control plane under heavy
// Router traffic doesn't hit the database for every cache-cold key.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "emberkv:apikey:"

// defaultTTL bounds how long a verified tenant_id is cached before a
// revoked key would still be accepted from cache alone.
const defaultTTL = 5 * time.Minute

// Cache wraps a go-redis client with the single lookup/store shape
// the API-key verification path needs.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New builds a Cache against a Redis instance reachable at addr (a
// "redis://host:port/db" URL).
func New(addr string, ttl time.Duration) (*Cache, error) {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{client: redis.NewClient(opts), ttl: ttl}, nil
}

// Lookup returns the cached tenant ID for keyHash, if present.
func (c *Cache) Lookup(ctx context.Context, keyHash string) (string, bool) {
	tenantID, err := c.client.Get(ctx, keyPrefix+keyHash).Result()
	if err != nil {
		return "", false
	}
	return tenantID, true
}

// Store write-through caches a verified keyHash -> tenantID mapping.
func (c *Cache) Store(ctx context.Context, keyHash, tenantID string) {
	c.client.Set(ctx, keyPrefix+keyHash, tenantID, c.ttl)
}

// Invalidate removes a cached mapping, used when a key is deleted.
func (c *Cache) Invalidate(ctx context.Context, keyHash string) {
	c.client.Del(ctx, keyPrefix+keyHash)
}

// Close releases the underlying Redis connection pool.
func (c *Cache) Close() error {
	return c.client.Close()
}
