// test/mock/cache.go
package mock

import (
	"context"
	"path"
	"sync"
	"time"
)

// MemoryCache is an in-memory cache.Service for tests. TTLs are honored
// at read time; glob patterns use path.Match semantics, which covers
// the "prefix:*" patterns the services issue.
type MemoryCache struct {
	mu       sync.Mutex
	values   map[string]memoryEntry
	disabled bool

	SetCalls    int
	GetCalls    int
	DeleteCalls int
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{values: map[string]memoryEntry{}}
}

// NewDisabledCache returns a cache that reports Enabled() == false and
// stores nothing.
func NewDisabledCache() *MemoryCache {
	return &MemoryCache{values: map[string]memoryEntry{}, disabled: true}
}

func (c *MemoryCache) Enabled() bool {
	return !c.disabled
}

func (c *MemoryCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.GetCalls++
	if c.disabled {
		return "", nil
	}
	entry, ok := c.values[key]
	if !ok {
		return "", nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(c.values, key)
		return "", nil
	}
	return entry.value, nil
}

func (c *MemoryCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SetCalls++
	if c.disabled {
		return nil
	}
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	c.values[key] = entry
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.DeleteCalls++
	for _, key := range keys {
		delete(c.values, key)
	}
	return nil
}

func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.values[key]
	return ok, nil
}

func (c *MemoryCache) Keys(ctx context.Context, pattern string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var matched []string
	for key := range c.values {
		if ok, _ := path.Match(pattern, key); ok {
			matched = append(matched, key)
		}
	}
	return matched, nil
}

// Len reports the number of live entries.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.values)
}
