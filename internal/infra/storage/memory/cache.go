package memory

import (
	"context"
	"sync"
	"time"

	"bmrengine/internal/app/middleware"
)

// EstimateCache keeps encoded estimates in memory. Expired entries are
// dropped lazily on read.
type EstimateCache struct {
	mu    sync.RWMutex
	items map[string]cacheEntry
	now   func() time.Time
}

type cacheEntry struct {
	rec       middleware.CacheRecord
	expiresAt time.Time
}

func NewEstimateCache() *EstimateCache {
	return &EstimateCache{items: make(map[string]cacheEntry), now: time.Now}
}

func (c *EstimateCache) Get(ctx context.Context, key string) (middleware.CacheRecord, bool, error) {
	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return middleware.CacheRecord{}, false, nil
	}
	if !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt) {
		c.mu.Lock()
		if cur, still := c.items[key]; still && cur.expiresAt.Equal(entry.expiresAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return middleware.CacheRecord{}, false, nil
	}
	return entry.rec, true, nil
}

// Set stores rec; a non-positive ttl keeps it until overwritten.
func (c *EstimateCache) Set(ctx context.Context, rec middleware.CacheRecord, ttl time.Duration) error {
	entry := cacheEntry{rec: rec}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[rec.Key] = entry
	return nil
}

func (c *EstimateCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

var _ middleware.CacheStore = (*EstimateCache)(nil)
