// Package localcache keeps serialized budget snapshots on the local device:
// one identity-scoped entry per user plus a single shared legacy entry, and
// scans older entries to recover the richest backup.
package localcache

import (
	"sort"
	"strings"
	"sync"
)

// Cache is a synchronous string key/value store with no expiry.
type Cache interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
	// Keys lists every key accepted by match, in ascending order.
	Keys(match func(key string) bool) ([]string, error)
}

// HasPrefix returns a key matcher for Cache.Keys.
func HasPrefix(prefix string) func(string) bool {
	return func(key string) bool {
		return strings.HasPrefix(key, prefix)
	}
}

// MemoryCache is an in-process Cache, used for tests and the local dev server.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]string)}
}

func (c *MemoryCache) Get(key string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *MemoryCache) Set(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = value
	return nil
}

func (c *MemoryCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

func (c *MemoryCache) Keys(match func(string) bool) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		if match == nil || match(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
