package brokerkit

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a Cache backed by Redis, for deployments where several
// client processes should share one response cache. TTL expiry is native;
// capacity bounding is delegated to the server's maxmemory policy.
type RedisCache struct {
	rdb     *redis.Client
	prefix  string
	timeout time.Duration
}

// RedisCacheOption configures a RedisCache.
type RedisCacheOption func(*RedisCache)

// WithRedisPrefix overrides the key namespace (default "brokerkit:cache").
func WithRedisPrefix(prefix string) RedisCacheOption {
	return func(c *RedisCache) {
		c.prefix = strings.Trim(prefix, ":")
	}
}

// WithRedisTimeout bounds each Redis round trip (default 250ms). Cache
// lookups sit on the request hot path; a slow cache must not stall requests
// longer than this.
func WithRedisTimeout(d time.Duration) RedisCacheOption {
	return func(c *RedisCache) { c.timeout = d }
}

// NewRedisCache wraps an existing go-redis client.
func NewRedisCache(rdb *redis.Client, opts ...RedisCacheOption) *RedisCache {
	c := &RedisCache{
		rdb:     rdb,
		prefix:  "brokerkit:cache",
		timeout: 250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type redisCacheEntry struct {
	StatusCode int         `json:"status_code"`
	Header     http.Header `json:"header"`
	Body       []byte      `json:"body"`
	ExpiresAt  time.Time   `json:"expires_at"`
}

// Get implements Cache. Redis errors degrade to cache misses; the cache is
// an optimization and must never fail a request.
func (c *RedisCache) Get(key string) (*CacheEntry, bool) {
	ctx, cancel := c.opCtx()
	defer cancel()

	raw, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		return nil, false
	}

	var stored redisCacheEntry
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, false
	}
	if !time.Now().Before(stored.ExpiresAt) {
		return nil, false
	}

	return &CacheEntry{
		Response: &Response{
			StatusCode: stored.StatusCode,
			Header:     stored.Header,
			Body:       stored.Body,
		},
		ExpiresAt: stored.ExpiresAt,
	}, true
}

// Set implements Cache.
func (c *RedisCache) Set(key string, entry *CacheEntry, ttl time.Duration) {
	if ttl <= 0 || entry == nil || entry.Response == nil {
		return
	}

	entry.ExpiresAt = time.Now().Add(ttl)
	raw, err := json.Marshal(redisCacheEntry{
		StatusCode: entry.Response.StatusCode,
		Header:     entry.Response.Header,
		Body:       entry.Response.Body,
		ExpiresAt:  entry.ExpiresAt,
	})
	if err != nil {
		return
	}

	ctx, cancel := c.opCtx()
	defer cancel()
	c.rdb.Set(ctx, c.key(key), raw, ttl)
}

// Delete implements Cache.
func (c *RedisCache) Delete(key string) {
	ctx, cancel := c.opCtx()
	defer cancel()
	c.rdb.Del(ctx, c.key(key))
}

// Clear implements Cache. It scans the namespace rather than flushing the
// whole database, since the Redis instance may be shared.
func (c *RedisCache) Clear() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	iter := c.rdb.Scan(ctx, 0, c.prefix+":*", 256).Iterator()
	for iter.Next(ctx) {
		c.rdb.Del(ctx, iter.Val())
	}
}

func (c *RedisCache) key(key string) string {
	return c.prefix + ":" + key
}

func (c *RedisCache) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.timeout)
}
