package planner

import (
	"context"
	"sync"
	"time"
)

// Cache stores projections by key. Implementations must be safe for
// concurrent use. A failing cache only costs a recomputation, so Get and
// Set report nothing; invalidation errors are returned because a missed
// invalidation can serve an outdated grid until the entry expires.
type Cache interface {
	Get(ctx context.Context, key Key) (*Projection, bool)
	Set(ctx context.Context, key Key, p *Projection)
	Invalidate(ctx context.Context, unitIDs ...string) error
	InvalidateAll(ctx context.Context) error
}

type noCache struct{}

func (noCache) Get(context.Context, Key) (*Projection, bool) { return nil, false }
func (noCache) Set(context.Context, Key, *Projection)         {}
func (noCache) Invalidate(context.Context, ...string) error   { return nil }
func (noCache) InvalidateAll(context.Context) error           { return nil }

type memoryEntry struct {
	key     Key
	proj    *Projection
	expires time.Time
}

// MemoryCache keeps projections in process memory.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache returns an in-memory cache. A zero ttl keeps entries until
// they are invalidated.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key Key) (*Projection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && c.now().After(e.expires) {
		delete(c.entries, key.String())
		return nil, false
	}
	return e.proj, true
}

func (c *MemoryCache) Set(_ context.Context, key Key, p *Projection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := memoryEntry{key: key, proj: p}
	if c.ttl > 0 {
		e.expires = c.now().Add(c.ttl)
	}
	c.entries[key.String()] = e
}

func (c *MemoryCache) Invalidate(_ context.Context, unitIDs ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if e.key.Touches(unitIDs) {
			delete(c.entries, k)
		}
	}
	return nil
}

func (c *MemoryCache) InvalidateAll(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]memoryEntry)
	return nil
}

// Len returns the number of cached projections.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
