package brokerkit

import (
	"container/list"
	"sync"
	"time"
)

// CacheEntry is a cached response plus its expiry.
type CacheEntry struct {
	Response  *Response
	ExpiresAt time.Time
}

// Cache stores responses for idempotent read descriptors. Implementations
// must be safe for concurrent use; entries must never be served past their
// TTL. The client works identically with caching disabled.
type Cache interface {
	Get(key string) (*CacheEntry, bool)
	Set(key string, entry *CacheEntry, ttl time.Duration)
	Delete(key string)
	Clear()
}

// sweepInterval is how many inserts pass between opportunistic sweeps of
// expired entries.
const sweepInterval = 64

// MemoryCache is a capacity-bounded in-memory cache. Expiry is checked
// lazily on read and swept opportunistically on writes; capacity pressure
// evicts least-recently-used entries first.
type MemoryCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List // front = most recently used
	inserts  int

	now func() time.Time
}

type memoryCacheItem struct {
	key   string
	entry *CacheEntry
}

// NewMemoryCache creates a cache holding at most capacity entries.
func NewMemoryCache(capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = 1024
	}
	return &MemoryCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

// Get implements Cache. Expired entries are removed and reported as misses.
func (c *MemoryCache) Get(key string) (*CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	item := elem.Value.(*memoryCacheItem)
	if !c.now().Before(item.entry.ExpiresAt) {
		c.removeLocked(elem)
		return nil, false
	}
	c.order.MoveToFront(elem)
	return item.entry, true
}

// Set implements Cache.
func (c *MemoryCache) Set(key string, entry *CacheEntry, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry.ExpiresAt = c.now().Add(ttl)

	if elem, ok := c.entries[key]; ok {
		elem.Value.(*memoryCacheItem).entry = entry
		c.order.MoveToFront(elem)
		return
	}

	c.inserts++
	if c.inserts%sweepInterval == 0 {
		c.sweepLocked()
	}
	for len(c.entries) >= c.capacity {
		c.removeLocked(c.order.Back())
	}

	elem := c.order.PushFront(&memoryCacheItem{key: key, entry: entry})
	c.entries[key] = elem
}

// Delete implements Cache.
func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[key]; ok {
		c.removeLocked(elem)
	}
}

// Clear implements Cache.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// Len returns the current entry count.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryCache) removeLocked(elem *list.Element) {
	if elem == nil {
		return
	}
	item := elem.Value.(*memoryCacheItem)
	delete(c.entries, item.key)
	c.order.Remove(elem)
}

func (c *MemoryCache) sweepLocked() {
	now := c.now()
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if !now.Before(elem.Value.(*memoryCacheItem).entry.ExpiresAt) {
			c.removeLocked(elem)
		}
		elem = prev
	}
}
