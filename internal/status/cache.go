package status

import (
	"context"
	"sync"
	"time"

	"github.com/musiccat/musiccat-rpc/internal/core"
)

// Cache holds the most recent status snapshot. It is safe for concurrent use
// by one or more writers and any number of readers.
type Cache struct {
	mu      sync.RWMutex
	latest  core.Snapshot
	hasData bool

	ready chan struct{}
	now   func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock sets the clock used to stamp arrival times.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCache creates an empty cache.
func NewCache(opts ...Option) *Cache {
	c := &Cache{
		ready: make(chan struct{}),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Update stores st as the latest snapshot, stamped with the current time,
// and returns the stored snapshot. The first call releases every
// WaitForFirstData caller.
func (c *Cache) Update(st core.Status) core.Snapshot {
	snap := core.Snapshot{Status: st, ArrivedAt: c.now()}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.latest = snap
	if !c.hasData {
		c.hasData = true
		close(c.ready)
	}
	return snap
}

// Get returns the latest snapshot and whether the cache has ever been
// populated.
func (c *Cache) Get() (core.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest, c.hasData
}

// Ready returns a channel that is closed once the first snapshot arrives.
func (c *Cache) Ready() <-chan struct{} {
	return c.ready
}

// WaitForFirstData blocks until the cache has data or ctx is done.
func (c *Cache) WaitForFirstData(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
