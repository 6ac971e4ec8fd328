package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/news"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/scan"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/storage/scancache"
)

// pricedSource serves a pre-market price per symbol that tests move
// between the evening scan and the morning check.
type pricedSource struct {
	mu     sync.Mutex
	prices map[string]float64
	quiet  map[string]bool // no pre-market volume
	err    error
	dates  []time.Time
}

func (p *pricedSource) Name() string { return "priced" }

func (p *pricedSource) Snapshot(ctx context.Context, symbol string, date time.Time) (core.SymbolSnapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dates = append(p.dates, date)
	if p.err != nil {
		return core.SymbolSnapshot{}, p.err
	}
	price, ok := p.prices[symbol]
	if !ok {
		return core.SymbolSnapshot{}, core.WrapError(core.ErrSymbolNotFound, errors.New(symbol))
	}
	volume := int64(2_500_000)
	if p.quiet[symbol] {
		volume = 0
	}
	return core.SymbolSnapshot{
		Symbol:          symbol,
		Date:            date,
		PriorClose:      100,
		AvgVolume:       1_000_000,
		MovingAverage:   95,
		PriorHigh:       105,
		PriorLow:        96,
		PreMarketPrice:  price,
		PreMarketVolume: volume,
		AverageRange:    2,
		RecentLow:       97,
		RecentHigh:      110,
	}, nil
}

func (p *pricedSource) set(prices map[string]float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices = prices
	p.dates = nil
}

type stubNews map[string]bool

func (stubNews) Name() string { return "stub" }
func (n stubNews) HasNews(ctx context.Context, symbol string, w news.Window) (bool, error) {
	return n[symbol], nil
}

func newMorningScanner(t *testing.T, src *pricedSource, newsSrc news.Source, universe ...string) *Scanner {
	t.Helper()
	engine := scan.NewEngine(src, newsSrc, nil, nil, scan.Config{Concurrency: 2, SymbolTimeout: time.Second})
	s := NewScanner(engine, scancache.New(scancache.Memory{}, 5), Config{Universe: universe})
	t.Cleanup(s.Stop)
	return s
}

func TestScanner_RunMorning(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	src := &pricedSource{
		prices: map[string]float64{"AAA": 104, "BBB": 104, "CCC": 104, "DDD": 100},
		quiet:  map[string]bool{"DDD": true},
	}
	s := newMorningScanner(t, src, stubNews{"CCC": true}, "AAA", "BBB", "CCC", "DDD")

	// Monday evening scan for Tuesday.
	s.now = func() time.Time { return time.Date(2026, 10, 19, 18, 0, 0, 0, ny) }
	evening, err := s.Run(context.Background(), Request{Trigger: core.TriggerSchedule})
	require.NoError(t, err)
	require.Equal(t, "2026-10-20", evening.Date)

	src.set(map[string]float64{"AAA": 101, "BBB": 100.2, "CCC": 100.5, "DDD": 110})
	s.now = func() time.Time { return time.Date(2026, 10, 20, 9, 0, 0, 0, ny) }

	list, err := s.RunMorning(context.Background(), core.TriggerSchedule)
	require.NoError(t, err)

	assert.Equal(t, evening.ID, list.ScanID)
	assert.Equal(t, "2026-10-20", list.Date)
	assert.Equal(t, 3, list.Checked, "grade None names are not re-checked")
	require.Len(t, list.Picks, 2)

	assert.Equal(t, "CCC", list.Picks[0].Symbol, "catalyst names lead")
	assert.True(t, list.Picks[0].Catalyst)
	assert.Equal(t, "AAA", list.Picks[1].Symbol)
	assert.InDelta(t, 1.0, list.Picks[1].ChangePercent, 1e-9)
	assert.Equal(t, core.GradeA, list.Picks[1].Grade)
	require.NotNil(t, list.Picks[1].Levels)
	assert.InDelta(t, 101.2, list.Picks[1].Levels.Entry, 1e-9)

	for _, d := range src.dates {
		assert.Equal(t, "2026-10-20", d.Format(core.DateLayout))
	}

	got, ok := s.Morning()
	require.True(t, ok)
	assert.Same(t, list, got)
	assert.True(t, s.Status().HasMorning)

	latest, _ := s.Latest()
	assert.Equal(t, evening.ID, latest.ID, "morning check does not publish a scan")
}

func TestScanner_RunMorningWithoutScan(t *testing.T) {
	s := newMorningScanner(t, &pricedSource{}, nil, "AAA")

	_, err := s.RunMorning(context.Background(), core.TriggerManual)
	assert.ErrorIs(t, err, core.ErrNoScan)
	_, ok := s.Morning()
	assert.False(t, ok)
}

func TestScanner_RunMorningNoGradedPicks(t *testing.T) {
	src := &pricedSource{prices: map[string]float64{"AAA": 100}, quiet: map[string]bool{"AAA": true}}
	s := newMorningScanner(t, src, nil, "AAA")
	_, err := s.Run(context.Background(), Request{ShowAll: true})
	require.NoError(t, err)

	src.set(map[string]float64{"AAA": 105})
	list, err := s.RunMorning(context.Background(), core.TriggerManual)
	require.NoError(t, err)
	assert.Zero(t, list.Checked)
	assert.Empty(t, list.Picks)
	assert.NotEmpty(t, list.Message)
	assert.Empty(t, src.dates, "nothing to re-check")
}

func TestScanner_RunMorningOutageKeepsList(t *testing.T) {
	src := &pricedSource{prices: map[string]float64{"AAA": 104}}
	s := newMorningScanner(t, src, nil, "AAA")
	_, err := s.Run(context.Background(), Request{})
	require.NoError(t, err)

	first, err := s.RunMorning(context.Background(), core.TriggerManual)
	require.NoError(t, err)
	require.Len(t, first.Picks, 1)

	src.mu.Lock()
	src.err = core.WrapError(core.ErrProviderUnreachable, errors.New("dns"))
	src.mu.Unlock()

	_, err = s.RunMorning(context.Background(), core.TriggerManual)
	require.Error(t, err)
	assert.True(t, core.IsFatal(err))

	got, ok := s.Morning()
	require.True(t, ok)
	assert.Same(t, first, got)
}

func TestScanner_RunMorningSharesRunLock(t *testing.T) {
	s := newMorningScanner(t, &pricedSource{}, nil, "AAA")
	s.runMu.Lock()
	defer s.runMu.Unlock()

	_, err := s.RunMorning(context.Background(), core.TriggerManual)
	assert.ErrorIs(t, err, core.ErrScanInProgress)
}

func TestSortPicks(t *testing.T) {
	picks := []core.GoPick{
		{Symbol: "LOW", Grade: core.GradeC, ChangePercent: 5},
		{Symbol: "BIG", Grade: core.GradeA, ChangePercent: 0.5},
		{Symbol: "NEWS", Grade: core.GradeC, ChangePercent: 0.4, Catalyst: true},
		{Symbol: "FAST", Grade: core.GradeA, ChangePercent: 2},
		{Symbol: "ALSO", Grade: core.GradeA, ChangePercent: 2},
	}
	SortPicks(picks)

	var got []string
	for _, p := range picks {
		got = append(got, p.Symbol)
	}
	assert.Equal(t, []string{"NEWS", "ALSO", "FAST", "BIG", "LOW"}, got)
}
