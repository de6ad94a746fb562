package memory

import (
	"context"
	"encoding/json"
	"path"
	"sync"
	"time"

	appErrors "github.com/noah-isme/unisync-api/pkg/errors"
)

type cacheEntry struct {
	payload   []byte
	expiresAt time.Time
}

// CacheStore is a process-local JSON cache with per-key expiry.
type CacheStore struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewCacheStore creates an empty cache.
func NewCacheStore() *CacheStore {
	return &CacheStore{entries: map[string]cacheEntry{}, now: time.Now}
}

// Get unmarshals a live entry into dest.
func (c *CacheStore) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok && !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(entry.payload, dest)
}

// Set stores value for ttl; a non-positive ttl never expires.
func (c *CacheStore) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	entry := cacheEntry{payload: payload}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return nil
}

// DeleteByPattern removes keys matching a glob pattern.
func (c *CacheStore) DeleteByPattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if matched, _ := path.Match(pattern, key); matched {
			delete(c.entries, key)
		}
	}
	return nil
}
