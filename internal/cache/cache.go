// Package cache is a small read-through cache in front of the list endpoints.
// Entries are keyed by a "<prefix>:<detail>" string so a mutation can drop
// everything under its prefix without knowing the exact query parameters that
// populated the cache.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type Cache struct {
	mu  sync.Mutex
	lru *expirable.LRU[string, any]
	// keys mirrors the LRU's key set for prefix scans; the LRU itself only
	// supports point lookups.
	keys map[string]struct{}
}

// New builds a cache holding up to size entries, each expiring after ttl.
func New(size int, ttl time.Duration) *Cache {
	c := &Cache{keys: make(map[string]struct{})}
	c.lru = expirable.NewLRU[string, any](size, func(key string, _ any) {
		c.mu.Lock()
		delete(c.keys, key)
		c.mu.Unlock()
	}, ttl)
	return c
}

func (c *Cache) Get(key string) (any, bool) {
	return c.lru.Get(key)
}

func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	c.keys[key] = struct{}{}
	c.mu.Unlock()
	c.lru.Add(key, value)
}

// Invalidate removes every entry whose key starts with prefix.
func (c *Cache) Invalidate(prefix string) {
	c.mu.Lock()
	var stale []string
	for k := range c.keys {
		if strings.HasPrefix(k, prefix) {
			stale = append(stale, k)
		}
	}
	c.mu.Unlock()
	for _, k := range stale {
		c.lru.Remove(k)
	}
}
