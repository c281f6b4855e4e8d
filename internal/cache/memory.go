package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type memoryEntry struct {
	entry     Entry
	expiresAt time.Time
}

// MemoryCache is a size-bounded in-process cache with per-entry expiry.
type MemoryCache struct {
	items *lru.Cache[string, memoryEntry]
	now   func() time.Time
}

func NewMemoryCache(size int) (*MemoryCache, error) {
	items, err := lru.New[string, memoryEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru cache: %w", err)
	}
	return &MemoryCache{items: items, now: time.Now}, nil
}

func (c *MemoryCache) Get(_ context.Context, key string) (*Entry, error) {
	item, ok := c.items.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	if !c.now().Before(item.expiresAt) {
		c.items.Remove(key)
		return nil, ErrMiss
	}
	entry := item.entry
	return &entry, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, entry Entry, ttl time.Duration) error {
	c.items.Add(key, memoryEntry{entry: entry, expiresAt: c.now().Add(ttl)})
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.items.Remove(key)
	return nil
}
