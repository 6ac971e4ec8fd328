package collector

import (
	"fmt"
	"time"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/indicator"
)

// Lookbacks for the range statistics behind trade levels, in sessions.
const (
	rangeDays      = 7
	supportDays    = 5
	resistanceDays = 10
)

// SnapshotParams controls how daily history is reduced to a snapshot
type SnapshotParams struct {
	MovingAverageDays int    // window of the moving average of closes
	AverageVolumeDays int    // window of the average daily volume
	MovingAverageType string // "sma" or "ema"
}

// DefaultSnapshotParams returns the 20-day SMA and 20-day average volume.
func DefaultSnapshotParams() SnapshotParams {
	return SnapshotParams{
		MovingAverageDays: 20,
		AverageVolumeDays: 20,
		MovingAverageType: "sma",
	}
}

// HistoryDays is how many calendar days of daily bars a provider should
// request to satisfy p.
func (p SnapshotParams) HistoryDays() int {
	n := max(p.MovingAverageDays, p.AverageVolumeDays, resistanceDays)
	// Weekends and holidays: roughly 1.5 calendar days per session, plus slack.
	return n*3/2 + 10
}

// BuildSnapshot reduces daily bars before date and the extended-hours bars
// since the prior session into a SymbolSnapshot.
//
// daily must be in ascending time order. Bars on or after date are ignored.
// extended holds the bars traded between the prior close and the open on
// date; the last one sets the pre-market price and their volumes are summed.
func BuildSnapshot(symbol string, date time.Time, daily, extended []core.Bar, p SnapshotParams) (core.SymbolSnapshot, error) {
	history := make([]core.Bar, 0, len(daily))
	for _, b := range daily {
		if b.Time.Before(date) {
			history = append(history, b)
		}
	}
	if len(history) == 0 {
		return core.SymbolSnapshot{}, core.WrapError(core.ErrDataUnavailable,
			fmt.Errorf("no daily bars for %s before %s", symbol, date.Format(core.DateLayout)))
	}

	prior := history[len(history)-1]
	snap := core.SymbolSnapshot{
		Symbol:      symbol,
		Date:        date,
		PriorClose:  prior.Close,
		PriorVolume: prior.Volume,
		PriorHigh:   prior.High,
		PriorLow:    prior.Low,
	}

	closes := make([]float64, len(history))
	volumes := make([]float64, len(history))
	highs := make([]float64, len(history))
	lows := make([]float64, len(history))
	for i, b := range history {
		closes[i] = b.Close
		volumes[i] = float64(b.Volume)
		highs[i] = b.High
		lows[i] = b.Low
	}
	snap.MovingAverage = indicator.Last(indicator.Moving(p.MovingAverageType, closes, p.MovingAverageDays))
	snap.AvgVolume = indicator.Last(indicator.SMA(indicator.Tail(volumes, p.AverageVolumeDays), p.AverageVolumeDays))
	snap.AverageRange = indicator.AverageRange(highs, lows, min(rangeDays, len(history)))
	snap.RecentLow = indicator.Lowest(indicator.Tail(lows, supportDays))
	snap.RecentHigh = indicator.Highest(indicator.Tail(highs, resistanceDays))

	for _, b := range extended {
		if b.Close > 0 {
			snap.PreMarketPrice = b.Close
		}
		snap.PreMarketVolume += b.Volume
	}

	if err := snap.Validate(); err != nil {
		return core.SymbolSnapshot{}, err
	}
	return snap, nil
}
