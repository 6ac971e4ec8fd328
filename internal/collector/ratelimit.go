package collector

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
)

// RateLimited wraps a Source so that calls never exceed the provider's
// request budget. A bulk request consumes one token.
type RateLimited struct {
	src     Source
	limiter *rate.Limiter
}

// NewRateLimited limits src to perSecond requests with the given burst.
// perSecond <= 0 returns src unchanged. The result implements BulkSource
// when src does.
func NewRateLimited(src Source, perSecond float64, burst int) Source {
	if perSecond <= 0 {
		return src
	}
	if burst < 1 {
		burst = 1
	}
	rl := &RateLimited{src: src, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
	if bulk, ok := src.(BulkSource); ok {
		return &rateLimitedBulk{RateLimited: rl, bulk: bulk}
	}
	return rl
}

func (r *RateLimited) Name() string {
	return r.src.Name()
}

func (r *RateLimited) Snapshot(ctx context.Context, symbol string, date time.Time) (core.SymbolSnapshot, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return core.SymbolSnapshot{}, core.WrapError(core.ErrSymbolTimeout, err)
	}
	return r.src.Snapshot(ctx, symbol, date)
}

type rateLimitedBulk struct {
	*RateLimited
	bulk BulkSource
}

func (r *rateLimitedBulk) Snapshots(ctx context.Context, symbols []string, date time.Time) (map[string]core.SymbolSnapshot, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, core.WrapError(core.ErrSymbolTimeout, err)
	}
	return r.bulk.Snapshots(ctx, symbols, date)
}
