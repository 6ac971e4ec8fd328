package app

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/scan"
)

// DefaultMorningMinChange is the pre-market change, in percent, a pick
// must exceed to stay on the morning list.
const DefaultMorningMinChange = 0.3

// RunMorning re-checks the graded picks of the latest scan against fresh
// pre-market data for the same trading date. Picks that moved up by more
// than the configured change are kept, catalyst names first. It shares the
// run lock with scans and fails fast with ErrScanInProgress.
//
// A failed check keeps the previous morning list.
func (s *Scanner) RunMorning(ctx context.Context, trigger core.Trigger) (*core.MorningList, error) {
	if !s.runMu.TryLock() {
		return nil, core.ErrScanInProgress
	}
	defer s.runMu.Unlock()
	s.running.Store(true)
	defer s.running.Store(false)

	latest, ok := s.cache.Latest()
	if !ok {
		return nil, core.WrapError(core.ErrNoScan, fmt.Errorf("no evening scan to confirm"))
	}
	date, err := s.ParseDate(latest.Date)
	if err != nil {
		return nil, err
	}

	now := s.now()
	list := &core.MorningList{ScanID: latest.ID, Date: latest.Date, CheckedAt: now, Picks: []core.GoPick{}}

	evening := make(map[string]core.SymbolResult)
	var symbols []string
	for _, r := range latest.Results {
		if r.Score == nil || r.Score.Grade == core.GradeNone {
			continue
		}
		evening[r.Symbol] = r
		symbols = append(symbols, r.Symbol)
	}
	list.Checked = len(symbols)
	if len(symbols) == 0 {
		list.Message = fmt.Sprintf("scan %s has no graded picks", latest.ID)
		s.setMorning(list)
		return list, nil
	}

	if trigger == "" {
		trigger = core.TriggerManual
	}
	fresh, err := s.engine.Run(ctx, symbols, date, scan.Options{
		Trigger:    trigger,
		ShowAll:    true,
		NewsWindow: s.newsWindow(date, now),
	})
	if err != nil {
		s.logger.Error("morning check failed, keeping previous list",
			zap.String("scan_id", latest.ID),
			zap.Error(err),
		)
		return nil, err
	}

	for _, r := range fresh.Results {
		if r.Signals == nil || r.Snapshot == nil {
			continue
		}
		if r.Signals.GapPercent <= s.cfg.MorningMinChange {
			continue
		}
		ev := evening[r.Symbol]
		pick := core.GoPick{
			Symbol:          r.Symbol,
			Grade:           ev.Score.Grade,
			EveningScore:    ev.Score.Total,
			PriorClose:      r.Snapshot.PriorClose,
			PreMarketPrice:  r.Snapshot.PreMarketPrice,
			ChangePercent:   r.Signals.GapPercent,
			PreMarketVolume: r.Snapshot.PreMarketVolume,
			Catalyst:        r.Signals.Catalyst || (ev.Signals != nil && ev.Signals.Catalyst),
			Levels:          r.Levels,
		}
		list.Picks = append(list.Picks, pick)
	}
	SortPicks(list.Picks)
	if len(list.Picks) == 0 {
		list.Message = fmt.Sprintf("no pick is up more than %.1f%% pre-market", s.cfg.MorningMinChange)
	}

	s.setMorning(list)
	s.logger.Info("morning check finished",
		zap.String("scan_id", latest.ID),
		zap.String("date", latest.Date),
		zap.Int("checked", list.Checked),
		zap.Int("confirmed", len(list.Picks)),
	)
	return list, nil
}

// Morning returns the most recent morning list.
func (s *Scanner) Morning() (*core.MorningList, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.morning, s.morning != nil
}

func (s *Scanner) setMorning(l *core.MorningList) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.morning = l
}

// SortPicks orders picks catalyst first, then by evening grade, then by
// pre-market change, largest first.
func SortPicks(picks []core.GoPick) {
	sort.SliceStable(picks, func(i, j int) bool {
		a, b := picks[i], picks[j]
		if a.Catalyst != b.Catalyst {
			return a.Catalyst
		}
		if a.Grade.Tier() != b.Grade.Tier() {
			return a.Grade.Tier() > b.Grade.Tier()
		}
		if a.ChangePercent != b.ChangePercent {
			return a.ChangePercent > b.ChangePercent
		}
		return a.Symbol < b.Symbol
	})
}
