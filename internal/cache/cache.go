// Package cache is an in-memory TTL set of recently seen article URLs and
// content hashes. It is only a fast path in front of the database dedup
// lookups; the unique constraints in storage stay the final arbiter.
package cache

import (
	"sync"
	"time"
)

type item struct {
	ExpiresAt time.Time
}

type SeenCache struct {
	mu    sync.RWMutex
	items map[string]item
	ttl   time.Duration
	stop  chan struct{}
}

func New(ttl time.Duration) *SeenCache {
	c := &SeenCache{
		items: make(map[string]item),
		ttl:   ttl,
		stop:  make(chan struct{}),
	}

	// Cleanup expired items every hour
	go c.cleanupLoop()

	return c
}

// Mark remembers a key (URL or content hash) for the cache TTL.
func (c *SeenCache) Mark(key string) {
	if key == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = item{ExpiresAt: time.Now().Add(c.ttl)}
}

// Seen reports whether the key was marked within the TTL window.
func (c *SeenCache) Seen(key string) bool {
	c.mu.RLock()
	it, exists := c.items[key]
	c.mu.RUnlock()

	if !exists {
		return false
	}
	if time.Now().After(it.ExpiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return false
	}
	return true
}

// Close stops the background cleanup goroutine.
func (c *SeenCache) Close() {
	close(c.stop)
}

func (c *SeenCache) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stop:
			return
		}
	}
}

func (c *SeenCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, it := range c.items {
		if now.After(it.ExpiresAt) {
			delete(c.items, key)
		}
	}
}
