// Package scan runs one scoring pass over a symbol universe.
package scan

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/analysis"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/collector"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/news"
)

// Config bounds the engine's resource use
type Config struct {
	Concurrency   int           // max symbols (or batches) in flight
	SymbolTimeout time.Duration // per-symbol fetch deadline; per batch for bulk sources
	NewsTimeout   time.Duration
	BatchSize     int // symbols per bulk request; 0 disables bulk fetching
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency:   8,
		SymbolTimeout: 15 * time.Second,
		NewsTimeout:   5 * time.Second,
		BatchSize:     50,
	}
}

// Options are per-run settings
type Options struct {
	Trigger core.Trigger
	ShowAll bool // keep grade None results in the ranking
	// NewsWindow bounds the publication time of catalyst news. Zero means
	// the calendar day of the trading date.
	NewsWindow news.Window
	// OnProgress, if set, is called after each symbol completes.
	OnProgress func(done, total int)
}

// Engine fetches, scores and ranks a universe. Safe for concurrent use,
// although callers normally serialise runs.
type Engine struct {
	source    collector.Source
	news      news.Source
	extractor *analysis.Extractor
	scorer    *analysis.Scorer
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time
}

// NewEngine creates a scan engine. A nil news source disables catalysts.
func NewEngine(source collector.Source, newsSrc news.Source, extractor *analysis.Extractor, scorer *analysis.Scorer, cfg Config, logger ...*zap.Logger) *Engine {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	if newsSrc == nil {
		newsSrc = news.None{}
	}
	if extractor == nil {
		extractor = analysis.NewExtractor()
	}
	if scorer == nil {
		scorer = analysis.NewScorer(core.GapPolicyLong)
	}
	def := DefaultConfig()
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.SymbolTimeout <= 0 {
		cfg.SymbolTimeout = def.SymbolTimeout
	}
	if cfg.NewsTimeout <= 0 {
		cfg.NewsTimeout = def.NewsTimeout
	}
	return &Engine{
		source:    source,
		news:      newsSrc,
		extractor: extractor,
		scorer:    scorer,
		cfg:       cfg,
		logger:    l,
		now:       time.Now,
	}
}

// Run scores every symbol in universe for the trading day date.
//
// Per-symbol failures are recorded in the result and never abort the run.
// A provider-wide failure cancels the remaining work and is returned with a
// nil result, as is a run in which every symbol failed on the provider's
// side.
func (e *Engine) Run(ctx context.Context, universe []string, date time.Time, opts Options) (*core.ScanResult, error) {
	started := e.now()
	symbols := core.DedupeSymbols(universe)
	results := make([]core.SymbolResult, len(symbols))
	window := opts.NewsWindow
	if window.IsZero() {
		window = news.DayWindow(date)
	}

	var done atomic.Int64
	progress := func(n int) {
		if opts.OnProgress != nil {
			opts.OnProgress(int(done.Add(int64(n))), len(symbols))
		}
	}

	var err error
	if bulk, ok := e.source.(collector.BulkSource); ok && e.cfg.BatchSize > 0 {
		err = e.runBulk(ctx, bulk, symbols, results, date, window, progress)
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.cfg.Concurrency)
		for i, symbol := range symbols {
			g.Go(func() error {
				err := e.scoreSymbol(gctx, symbol, &results[i], date, window)
				progress(1)
				return err
			})
		}
		err = g.Wait()
	}
	if err != nil {
		if !core.IsFatal(err) && ctx.Err() != nil {
			err = core.WrapError(core.ErrScanFailed, fmt.Errorf("scan interrupted: %w", ctx.Err()))
		}
		return nil, e.abort(date, err)
	}

	res := Aggregate(results, opts.ShowAll)
	if outage := wholesaleOutage(res); outage != nil {
		return nil, e.abort(date, outage)
	}
	res.ID = uuid.NewString()
	res.ScannedAt = started
	res.Date = date.Format(core.DateLayout)
	res.Trigger = opts.Trigger
	res.GapPolicy = e.scorer.Policy()
	res.Duration = e.now().Sub(started)

	e.logger.Info("scan completed",
		zap.String("id", res.ID),
		zap.String("date", res.Date),
		zap.Int("attempted", res.Attempted),
		zap.Int("succeeded", res.Succeeded),
		zap.Int("qualified", res.Qualified),
		zap.Duration("duration", res.Duration),
	)
	return res, nil
}

func (e *Engine) abort(date time.Time, err error) error {
	e.logger.Error("scan aborted",
		zap.String("date", date.Format(core.DateLayout)),
		zap.Error(err),
	)
	return err
}

// wholesaleOutage returns ErrProviderUnreachable when nothing was fetched
// and every failure is provider-side.
func wholesaleOutage(res *core.ScanResult) error {
	if res.Attempted == 0 || res.Succeeded > 0 {
		return nil
	}
	for _, f := range res.Failed {
		if f.Error == nil || !core.IsProviderSide(f.Error.Code) {
			return nil
		}
	}
	first := res.Failed[0].Error
	return core.WrapError(core.ErrProviderUnreachable,
		fmt.Errorf("all %d symbols failed: %s", res.Attempted, first.Message))
}

func (e *Engine) scoreSymbol(ctx context.Context, symbol string, out *core.SymbolResult, date time.Time, window news.Window) error {
	sctx, cancel := context.WithTimeout(ctx, e.cfg.SymbolTimeout)
	snap, err := e.source.Snapshot(sctx, symbol, date)
	cancel()
	if err != nil {
		return e.fail(ctx, symbol, out, err)
	}
	*out = e.score(ctx, snap, window)
	return nil
}

// runBulk fetches in batches, then scores the fetched symbols on their own
// bounded pool so news lookups run with the full concurrency.
func (e *Engine) runBulk(ctx context.Context, bulk collector.BulkSource, symbols []string, results []core.SymbolResult, date time.Time, window news.Window, progress func(int)) error {
	fetched := make([]*core.SymbolSnapshot, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for lo := 0; lo < len(symbols); lo += e.cfg.BatchSize {
		hi := min(lo+e.cfg.BatchSize, len(symbols))
		g.Go(func() error {
			failed, err := e.fetchBatch(gctx, bulk, symbols[lo:hi], fetched[lo:hi], results[lo:hi], date)
			progress(failed)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sg, sctx := errgroup.WithContext(ctx)
	sg.SetLimit(e.cfg.Concurrency)
	for i, snap := range fetched {
		if snap == nil {
			continue
		}
		sg.Go(func() error {
			results[i] = e.score(sctx, *snap, window)
			progress(1)
			return nil
		})
	}
	return sg.Wait()
}

// fetchBatch fills fetched for the symbols the provider returned and
// records failures for the rest. It returns the number of failures.
func (e *Engine) fetchBatch(ctx context.Context, bulk collector.BulkSource, symbols []string, fetched []*core.SymbolSnapshot, out []core.SymbolResult, date time.Time) (int, error) {
	bctx, cancel := context.WithTimeout(ctx, e.cfg.SymbolTimeout)
	snaps, err := bulk.Snapshots(bctx, symbols, date)
	cancel()
	if err != nil {
		for i, symbol := range symbols {
			if ferr := e.fail(ctx, symbol, &out[i], err); ferr != nil {
				return i, ferr
			}
		}
		return len(symbols), nil
	}
	failed := 0
	for i, symbol := range symbols {
		snap, ok := snaps[symbol]
		if !ok {
			e.recordFailure(symbol, &out[i], core.WrapError(core.ErrDataUnavailable, fmt.Errorf("%s missing from batch response", symbol)))
			failed++
			continue
		}
		fetched[i] = &snap
	}
	return failed, nil
}

// fail records a per-symbol failure, or returns the error when it must abort
// the run.
func (e *Engine) fail(ctx context.Context, symbol string, out *core.SymbolResult, err error) error {
	if core.IsFatal(err) {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var coded *core.Error
	if errors.Is(err, context.DeadlineExceeded) && !errors.As(err, &coded) {
		err = core.WrapError(core.ErrSymbolTimeout, err)
	}
	e.recordFailure(symbol, out, err)
	return nil
}

func (e *Engine) recordFailure(symbol string, out *core.SymbolResult, err error) {
	e.logger.Warn("symbol failed",
		zap.String("symbol", symbol),
		zap.Error(err),
	)
	*out = core.SymbolResult{Symbol: symbol, Error: core.InfoFromError(err)}
}

func (e *Engine) score(ctx context.Context, snap core.SymbolSnapshot, window news.Window) core.SymbolResult {
	symbol := core.NormalizeSymbol(snap.Symbol)
	snap.Symbol = symbol
	if err := snap.Validate(); err != nil {
		var out core.SymbolResult
		e.recordFailure(symbol, &out, err)
		return out
	}

	nctx, cancel := context.WithTimeout(ctx, e.cfg.NewsTimeout)
	hasNews, err := e.news.HasNews(nctx, symbol, window)
	cancel()
	if err != nil {
		e.logger.Debug("news lookup failed",
			zap.String("symbol", symbol),
			zap.String("source", e.news.Name()),
			zap.Error(err),
		)
		hasNews = false
	}
	snap.HasNews = hasNews

	signals := e.extractor.Extract(snap)
	score := e.scorer.Score(signals)
	return core.SymbolResult{
		Symbol:   symbol,
		Snapshot: &snap,
		Signals:  &signals,
		Score:    &score,
		Levels:   analysis.Levels(snap, signals.ReferencePrice),
	}
}

// Aggregate partitions per-symbol outcomes into ranked and failed lists
// and fills the counts. The outcome is independent of input order.
func Aggregate(results []core.SymbolResult, showAll bool) *core.ScanResult {
	res := &core.ScanResult{
		ShowAll:   showAll,
		Attempted: len(results),
		Results:   make([]core.SymbolResult, 0, len(results)),
	}
	for _, r := range results {
		if !r.OK() {
			res.Failed = append(res.Failed, r)
			continue
		}
		res.Succeeded++
		if r.Score.Grade == core.GradeNone && !showAll {
			continue
		}
		res.Results = append(res.Results, r)
	}
	Rank(res.Results)
	sort.Slice(res.Failed, func(i, j int) bool {
		return res.Failed[i].Symbol < res.Failed[j].Symbol
	})
	res.Qualified = len(res.Results)
	return res
}

// Rank sorts scored results by total descending, then symbol ascending.
func Rank(results []core.SymbolResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score.Total != b.Score.Total {
			return a.Score.Total > b.Score.Total
		}
		return a.Symbol < b.Symbol
	})
}
