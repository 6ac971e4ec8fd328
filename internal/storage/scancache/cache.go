// Package scancache publishes completed scans to readers and persists them.
package scancache

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
)

// DefaultHistorySize is how many scans are kept when none is configured.
const DefaultHistorySize = 10

// Backend persists scan results across restarts.
type Backend interface {
	Name() string
	// Append persists r as the newest scan, keeping at most keep scans.
	Append(ctx context.Context, r *core.ScanResult, keep int) error
	// Load returns up to limit persisted scans, newest first.
	Load(ctx context.Context, limit int) ([]*core.ScanResult, error)
}

// Cache holds the latest ScanResult and a bounded history. Latest is
// lock-free; writers are expected to be serialised by the caller, but
// concurrent Store calls are still safe.
type Cache struct {
	latest atomic.Pointer[core.ScanResult]

	mu      sync.RWMutex
	history []*core.ScanResult // newest first
	size    int

	backend Backend
	logger  *zap.Logger
}

// New creates a Cache. A nil backend keeps results in memory only.
func New(backend Backend, historySize int, logger ...*zap.Logger) *Cache {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	if backend == nil {
		backend = Memory{}
	}
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &Cache{
		size:    historySize,
		backend: backend,
		logger:  l,
	}
}

// Store publishes r as the latest result, then persists it. A persistence
// error is returned, but readers already see r.
func (c *Cache) Store(ctx context.Context, r *core.ScanResult) error {
	if r == nil {
		return nil
	}

	c.mu.Lock()
	c.history = append([]*core.ScanResult{r}, c.history...)
	if len(c.history) > c.size {
		c.history = c.history[:c.size]
	}
	c.latest.Store(r)
	c.mu.Unlock()

	if err := c.backend.Append(ctx, r, c.size); err != nil {
		c.logger.Error("persisting scan failed",
			zap.String("backend", c.backend.Name()),
			zap.String("scan_id", r.ID),
			zap.Error(err),
		)
		return core.WrapError(core.ErrStorageFailed, err)
	}
	return nil
}

// Latest returns the most recent scan, if any.
func (c *Cache) Latest() (*core.ScanResult, bool) {
	r := c.latest.Load()
	return r, r != nil
}

// History returns up to limit scans, newest first. limit <= 0 returns all.
func (c *Cache) History(limit int) []*core.ScanResult {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := len(c.history)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*core.ScanResult, n)
	copy(out, c.history[:n])
	return out
}

// Restore loads persisted scans so results survive a restart. It does not
// overwrite scans stored since the process started.
func (c *Cache) Restore(ctx context.Context) error {
	loaded, err := c.backend.Load(ctx, c.size)
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.history) > 0 || len(loaded) == 0 {
		return nil
	}
	if len(loaded) > c.size {
		loaded = loaded[:c.size]
	}
	c.history = loaded
	c.latest.Store(loaded[0])

	c.logger.Info("restored scan history",
		zap.String("backend", c.backend.Name()),
		zap.Int("scans", len(loaded)),
		zap.String("latest_date", loaded[0].Date),
	)
	return nil
}

// Memory is the Backend that persists nothing.
type Memory struct{}

func (Memory) Name() string { return "memory" }

func (Memory) Append(ctx context.Context, r *core.ScanResult, keep int) error { return nil }

func (Memory) Load(ctx context.Context, limit int) ([]*core.ScanResult, error) { return nil, nil }
