package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/api/job"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/collector"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/metrics"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/news"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/notifier"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/scan"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/storage/scancache"
)

// Run outcomes reported in RunStatus.
const (
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// Config tunes the Scanner
type Config struct {
	Universe      []string
	ShowAll       bool
	RunTimeout    time.Duration
	StoreTimeout  time.Duration
	NotifyTimeout time.Duration
	Location      *time.Location
	MaxJobs       int

	// MorningMinChange is the pre-market change, in percent, a pick must
	// exceed to stay on the morning list.
	MorningMinChange float64
}

// DefaultConfig returns the default Scanner configuration.
func DefaultConfig() Config {
	return Config{
		RunTimeout:       10 * time.Minute,
		StoreTimeout:     30 * time.Second,
		NotifyTimeout:    30 * time.Second,
		MorningMinChange: DefaultMorningMinChange,
	}
}

// Request describes one scan run. A zero Date targets the next trading
// date; empty Symbols scans the configured universe.
type Request struct {
	Trigger core.Trigger
	Date    time.Time
	Symbols []string
	ShowAll bool
}

// RunStatus summarises the most recent run, successful or not.
type RunStatus struct {
	Status       string          `json:"status"`
	Trigger      core.Trigger    `json:"trigger"`
	Date         string          `json:"date"`
	ScanID       string          `json:"scan_id,omitempty"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   time.Time       `json:"finished_at"`
	Attempted    int             `json:"attempted"`
	Succeeded    int             `json:"succeeded"`
	Failed       int             `json:"failed"`
	Error        *core.ErrorInfo `json:"error,omitempty"`
	PersistError *core.ErrorInfo `json:"persist_error,omitempty"`
}

// Status is the service-level view exposed to the dashboard.
type Status struct {
	Running         bool       `json:"running"`
	HasResults      bool       `json:"has_results"`
	LatestScanID    string     `json:"latest_scan_id,omitempty"`
	LatestDate      string     `json:"latest_date,omitempty"`
	HasMorning      bool       `json:"has_morning"`
	UniverseSize    int        `json:"universe_size"`
	NextTradingDate string     `json:"next_trading_date"`
	LastRun         *RunStatus `json:"last_run,omitempty"`
}

// Scanner serialises scan runs, publishes their results to the cache and
// owns the scan universe.
type Scanner struct {
	engine    *scan.Engine
	cache     *scancache.Cache
	session   collector.Session
	jobs      *job.Store
	notifiers *notifier.Registry
	metrics   *metrics.Registry
	cfg       Config
	logger    *zap.Logger

	runMu   sync.Mutex
	running atomic.Bool
	wg      sync.WaitGroup
	baseCtx context.Context
	cancel  context.CancelFunc

	mu          sync.RWMutex
	universe    []string
	universeSet map[string]struct{}
	lastRun     *RunStatus
	morning     *core.MorningList

	now func() time.Time
}

// NewScanner creates a Scanner around engine and cache.
func NewScanner(engine *scan.Engine, cache *scancache.Cache, cfg Config, logger ...*zap.Logger) *Scanner {
	l := zap.NewNop()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	def := DefaultConfig()
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = def.RunTimeout
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = def.StoreTimeout
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = def.NotifyTimeout
	}
	if cfg.MorningMinChange <= 0 {
		cfg.MorningMinChange = def.MorningMinChange
	}
	if cache == nil {
		cache = scancache.New(scancache.Memory{}, scancache.DefaultHistorySize, l)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scanner{
		engine:    engine,
		cache:     cache,
		session:   collector.NewSession(cfg.Location),
		jobs:      job.NewStore(cfg.MaxJobs),
		notifiers: notifier.NewRegistry(),
		cfg:       cfg,
		logger:    l,
		baseCtx:   ctx,
		cancel:    cancel,
		now:       time.Now,
	}
	s.SetUniverse(cfg.Universe)
	return s
}

// SetNotifiers replaces the notifier registry used after each run.
func (s *Scanner) SetNotifiers(r *notifier.Registry) {
	if r != nil {
		s.notifiers = r
	}
}

// SetMetrics enables business metrics.
func (s *Scanner) SetMetrics(m *metrics.Registry) {
	s.metrics = m
	if m != nil {
		m.SetUniverseSize(len(s.Universe()))
	}
}

// Jobs returns the async job store.
func (s *Scanner) Jobs() *job.Store {
	return s.jobs
}

// Run executes a scan synchronously. It fails fast with ErrScanInProgress
// when another run holds the lock.
func (s *Scanner) Run(ctx context.Context, req Request) (*core.ScanResult, error) {
	if !s.runMu.TryLock() {
		return nil, core.ErrScanInProgress
	}
	defer s.runMu.Unlock()
	return s.execute(ctx, req, nil)
}

// Start launches a scan in the background and returns its job. The run is
// bounded by the configured run timeout and cancelled by Stop.
func (s *Scanner) Start(req Request) (job.Job, error) {
	if !s.runMu.TryLock() {
		return job.Job{}, core.ErrScanInProgress
	}
	if req.Trigger == "" {
		req.Trigger = core.TriggerManual
	}

	j := s.jobs.Create(req.Trigger)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.runMu.Unlock()

		ctx, cancel := context.WithTimeout(s.baseCtx, s.cfg.RunTimeout)
		defer cancel()

		_ = s.jobs.Update(j.ID, func(j *job.Job) { j.Status = job.StatusRunning })
		progress := func(done, total int) {
			_ = s.jobs.Update(j.ID, func(j *job.Job) { j.SetProgress(done, total) })
		}

		res, err := s.execute(ctx, req, progress)
		_ = s.jobs.Update(j.ID, func(j *job.Job) {
			if err != nil {
				j.Fail(err)
				return
			}
			j.Complete(res.ID)
		})
	}()
	return j, nil
}

// Stop cancels any background run and waits for it to finish.
func (s *Scanner) Stop() {
	s.cancel()
	s.wg.Wait()
}

// Running reports whether a scan is in progress.
func (s *Scanner) Running() bool {
	return s.running.Load()
}

func (s *Scanner) execute(ctx context.Context, req Request, progress func(done, total int)) (*core.ScanResult, error) {
	s.running.Store(true)
	defer s.running.Store(false)
	if s.metrics != nil {
		s.metrics.SetScanRunning(true)
		defer s.metrics.SetScanRunning(false)
	}

	started := s.now()
	date := s.session.NextTradingDate(started)
	if !req.Date.IsZero() {
		date = s.session.Day(req.Date)
	}
	symbols := req.Symbols
	if len(symbols) == 0 {
		symbols = s.Universe()
	}
	trigger := req.Trigger
	if trigger == "" {
		trigger = core.TriggerManual
	}

	s.logger.Info("scan started",
		zap.String("trigger", string(trigger)),
		zap.String("date", date.Format(core.DateLayout)),
		zap.Int("symbols", len(symbols)),
	)

	res, err := s.engine.Run(ctx, symbols, date, scan.Options{
		Trigger:    trigger,
		ShowAll:    req.ShowAll || s.cfg.ShowAll,
		NewsWindow: s.newsWindow(date, started),
		OnProgress: progress,
	})
	finished := s.now()

	if err != nil {
		status := &RunStatus{
			Status:     RunFailed,
			Trigger:    trigger,
			Date:       date.Format(core.DateLayout),
			StartedAt:  started,
			FinishedAt: finished,
			Attempted:  len(core.DedupeSymbols(symbols)),
			Error:      core.InfoFromError(err),
		}
		s.setLastRun(status)
		if s.metrics != nil {
			s.metrics.RecordScan(string(trigger), RunFailed, finished.Sub(started).Seconds())
		}
		s.logger.Error("scan failed, keeping previous results",
			zap.String("trigger", string(trigger)),
			zap.Error(err),
		)
		s.notifyFailure(ctx, notifier.Failure{
			Trigger: trigger,
			Date:    status.Date,
			At:      finished,
			Error:   status.Error,
		})
		return nil, err
	}

	status := &RunStatus{
		Status:     RunSucceeded,
		Trigger:    trigger,
		Date:       res.Date,
		ScanID:     res.ID,
		StartedAt:  started,
		FinishedAt: finished,
		Attempted:  res.Attempted,
		Succeeded:  res.Succeeded,
		Failed:     res.FailedCount(),
	}

	// Publishing must survive a cancelled request context.
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.StoreTimeout)
	if err := s.cache.Store(storeCtx, res); err != nil {
		status.PersistError = core.InfoFromError(err)
		s.logger.Warn("scan published but not persisted",
			zap.String("id", res.ID),
			zap.Error(err),
		)
	}
	cancel()

	s.setLastRun(status)
	if s.metrics != nil {
		s.metrics.RecordScan(string(trigger), RunSucceeded, finished.Sub(started).Seconds())
		s.metrics.RecordScanResult(res)
	}
	s.notifyScan(ctx, res)
	return res, nil
}

// newsWindow is the catalyst window for a scan of date run at now: from
// the start of the prior session's day up to the scan time, capped at the
// open. An evening scan thus sees the afternoon's news for tomorrow's
// setup, and a back-dated scan sees nothing published after the open.
func (s *Scanner) newsWindow(date, now time.Time) news.Window {
	from := s.session.PriorTradingDate(date)
	to := s.session.Open(date)
	if now.Before(to) {
		to = now
	}
	if !to.After(from) {
		to = s.session.Open(date)
	}
	return news.Window{From: from, To: to}
}

func (s *Scanner) notifyScan(ctx context.Context, res *core.ScanResult) {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.NotifyTimeout)
	defer cancel()
	s.recordNotifications(s.notifiers.NotifyScan(nctx, res))
}

func (s *Scanner) notifyFailure(ctx context.Context, f notifier.Failure) {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.NotifyTimeout)
	defer cancel()
	s.recordNotifications(s.notifiers.NotifyFailure(nctx, f))
}

func (s *Scanner) recordNotifications(errs map[string]error) {
	for _, n := range s.notifiers.GetAll() {
		status := "ok"
		if err, failed := errs[n.Name()]; failed {
			status = "error"
			s.logger.Warn("notification failed",
				zap.String("notifier", n.Name()),
				zap.Error(err),
			)
		}
		if s.metrics != nil {
			s.metrics.RecordNotification(n.Name(), status)
		}
	}
}

func (s *Scanner) setLastRun(r *RunStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRun = r
}

// LastRun returns a copy of the most recent run status, or nil.
func (s *Scanner) LastRun() *RunStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastRun == nil {
		return nil
	}
	r := *s.lastRun
	return &r
}

// ParseDate parses a YYYY-MM-DD trading date in the exchange timezone.
func (s *Scanner) ParseDate(v string) (time.Time, error) {
	d, err := time.ParseInLocation(core.DateLayout, v, s.session.Location)
	if err != nil {
		return time.Time{}, core.WrapError(core.ErrInvalidRequest, fmt.Errorf("invalid date %q, want YYYY-MM-DD", v))
	}
	return d, nil
}

// Latest returns the most recent published scan.
func (s *Scanner) Latest() (*core.ScanResult, bool) {
	return s.cache.Latest()
}

// History returns up to limit published scans, newest first.
func (s *Scanner) History(limit int) []*core.ScanResult {
	return s.cache.History(limit)
}

// Status returns the service-level status.
func (s *Scanner) Status() Status {
	st := Status{
		Running:         s.Running(),
		UniverseSize:    len(s.Universe()),
		NextTradingDate: s.session.NextTradingDate(s.now()).Format(core.DateLayout),
		LastRun:         s.LastRun(),
	}
	if latest, ok := s.cache.Latest(); ok {
		st.HasResults = true
		st.LatestScanID = latest.ID
		st.LatestDate = latest.Date
	}
	_, st.HasMorning = s.Morning()
	return st
}

// Universe returns the configured symbols in order.
func (s *Scanner) Universe() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.universe))
	copy(out, s.universe)
	return out
}

// SetUniverse replaces the universe, normalising and deduplicating symbols.
func (s *Scanner) SetUniverse(symbols []string) {
	symbols = core.DedupeSymbols(symbols)
	s.mu.Lock()
	s.universe = symbols
	s.universeSet = make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		s.universeSet[sym] = struct{}{}
	}
	s.mu.Unlock()
	s.reportUniverse()
}

// AddSymbols appends symbols not yet in the universe and returns the ones
// added. Malformed tickers are rejected with ErrInvalidRequest and nothing
// is added.
func (s *Scanner) AddSymbols(symbols ...string) ([]string, error) {
	symbols = core.DedupeSymbols(symbols)
	for _, sym := range symbols {
		if !core.ValidSymbol(sym) {
			return nil, core.WrapError(core.ErrInvalidRequest, fmt.Errorf("invalid symbol %q", sym))
		}
	}

	s.mu.Lock()
	added := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		if _, exists := s.universeSet[sym]; exists {
			continue
		}
		s.universeSet[sym] = struct{}{}
		s.universe = append(s.universe, sym)
		added = append(added, sym)
	}
	s.mu.Unlock()

	s.reportUniverse()
	return added, nil
}

// RemoveSymbol removes symbol from the universe.
func (s *Scanner) RemoveSymbol(symbol string) bool {
	symbol = core.NormalizeSymbol(symbol)
	s.mu.Lock()
	if _, exists := s.universeSet[symbol]; !exists {
		s.mu.Unlock()
		return false
	}
	delete(s.universeSet, symbol)
	for i, sym := range s.universe {
		if sym == symbol {
			s.universe = append(s.universe[:i], s.universe[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.reportUniverse()
	return true
}

func (s *Scanner) reportUniverse() {
	if s.metrics != nil {
		s.metrics.SetUniverseSize(len(s.Universe()))
	}
}
