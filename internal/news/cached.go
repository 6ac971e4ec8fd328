package news

import (
	"context"
	"sync"
	"time"
)

type cacheEntry struct {
	hasNews   bool
	fetchedAt time.Time
}

// Cached wraps a Source with a TTL cache keyed by symbol and window start.
// The window end moves with the scan clock, so an answer stays valid for
// the TTL rather than for an exact window. Errors are not cached, so a
// transient failure is retried on the next scan.
type Cached struct {
	src Source
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCached creates a cached news source.
func NewCached(src Source, ttl time.Duration) *Cached {
	return &Cached{
		src:     src,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func (c *Cached) Name() string {
	return c.src.Name()
}

// HasNews returns a cached answer or asks the underlying source.
func (c *Cached) HasNews(ctx context.Context, symbol string, w Window) (bool, error) {
	key := symbol + "|" + w.From.UTC().Format(time.RFC3339)

	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()
	if ok && c.now().Sub(e.fetchedAt) < c.ttl {
		return e.hasNews, nil
	}

	hasNews, err := c.src.HasNews(ctx, symbol, w)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{hasNews: hasNews, fetchedAt: c.now()}
	c.mu.Unlock()
	return hasNews, nil
}

// Prune drops expired entries.
func (c *Cached) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	now := c.now()
	for k, e := range c.entries {
		if now.Sub(e.fetchedAt) >= c.ttl {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}
