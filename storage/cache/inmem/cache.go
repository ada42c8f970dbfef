// Package inmemcache implements core.Cache in memory; it stands in for Redis
// in tests.
package inmemcache

import (
	"context"
	"sync"
	"time"

	"github.com/somahq/soma/core"
)

type entry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
}

var _ core.Cache = (*Cache)(nil)

func New() *Cache {
	return &Cache{entries: make(map[string]entry)}
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, core.ErrCacheMiss
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, core.ErrCacheMiss
	}
	value := make([]byte, len(e.value))
	copy(value, e.value)
	return value, nil
}

func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: make([]byte, len(value))}
	copy(e.value, value)
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

func (c *Cache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	c.mu.Unlock()
	return nil
}

// Len reports the number of live entries; test helper.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
