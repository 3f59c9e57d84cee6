package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is a process-local Cache backed by patrickmn/go-cache.
type Memory struct {
	cache *gocache.Cache
}

// NewMemory creates an in-memory cache with the given default TTL and
// expired-entry cleanup interval.
func NewMemory(defaultTTL, cleanupInterval time.Duration) *Memory {
	return &Memory{cache: gocache.New(defaultTTL, cleanupInterval)}
}

// Get retrieves a value from the cache.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	if v, found := m.cache.Get(key); found {
		return v.([]byte), true
	}
	return nil, false
}

// Set stores a value with the given TTL (0 uses the default TTL).
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.cache.Set(key, value, ttl)
	return nil
}

// Delete removes a value from the cache.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.cache.Delete(key)
	return nil
}
