package avatar

import (
	"bytes"
	"context"
	"sync"
)

type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]Entry)}
}

func (c *MemoryCache) Get(_ context.Context, ref string) (*Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[ref]
	if !ok {
		return nil, nil
	}
	e.Data = bytes.Clone(e.Data)
	return &e, nil
}

func (c *MemoryCache) Put(_ context.Context, e *Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cp := *e
	cp.Data = bytes.Clone(e.Data)
	c.entries[e.Ref] = cp
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, ref string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, ref)
	return nil
}

func (c *MemoryCache) Purge(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	return nil
}
