package collector

import (
	"context"
	"time"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
)

// Config holds market data source configuration
type Config struct {
	BaseURL   string
	APIKey    string
	APISecret string
	Timeout   time.Duration
	Location  *time.Location
	Params    SnapshotParams
}

// Source supplies per-symbol market data for one trading day.
//
// Snapshot returns an error wrapping core.ErrDataUnavailable (or one of the
// other per-symbol codes) when a single symbol cannot be served, and
// core.ErrProviderUnreachable when the provider as a whole is down.
type Source interface {
	Name() string
	Snapshot(ctx context.Context, symbol string, date time.Time) (core.SymbolSnapshot, error)
}

// BulkSource is a Source that can fetch many symbols in one round trip.
// Symbols absent from the returned map are treated as unavailable.
type BulkSource interface {
	Source
	Snapshots(ctx context.Context, symbols []string, date time.Time) (map[string]core.SymbolSnapshot, error)
}
