package brokerkit

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestRedisCacheDegradesToMissWhenUnreachable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}) // nothing listens here
	cache := NewRedisCache(rdb, WithRedisTimeout(50*time.Millisecond))

	// The cache is an optimization: a dead Redis must not error or block.
	cache.Set("k", &CacheEntry{Response: cachedResponse(200)}, time.Minute)
	if _, ok := cache.Get("k"); ok {
		t.Error("Get() hit against unreachable Redis")
	}
	cache.Delete("k")
}

func TestRedisCacheKeyNamespace(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})

	cache := NewRedisCache(rdb)
	if got := cache.key("GET:quotes:/v1/quotes"); got != "brokerkit:cache:GET:quotes:/v1/quotes" {
		t.Errorf("key() = %q", got)
	}

	cache = NewRedisCache(rdb, WithRedisPrefix("trading:cache:"))
	if got := cache.key("x"); got != "trading:cache:x" {
		t.Errorf("key() with custom prefix = %q", got)
	}
}

func TestRedisCacheRejectsInvalidEntries(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	cache := NewRedisCache(rdb, WithRedisTimeout(50*time.Millisecond))

	cache.Set("k", nil, time.Minute)
	cache.Set("k", &CacheEntry{}, time.Minute)
	cache.Set("k", &CacheEntry{Response: cachedResponse(200)}, 0)
}
