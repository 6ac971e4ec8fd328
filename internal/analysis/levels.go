package analysis

import (
	"math"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
)

// Trade level parameters
const (
	entryBuffer   = 0.002 // entry sits just above the reference price
	stopRanges    = 1.5   // stop distance in average daily ranges
	supportBuffer = 0.01  // stop never sits more than 1% under the recent low
)

// Levels derives long trade levels from price and the snapshot's range
// statistics. It returns nil when price or the average range is missing,
// or when the recent low leaves no room for a stop below the entry.
func Levels(snap core.SymbolSnapshot, price float64) *core.TradeLevels {
	if price <= 0 || snap.AverageRange <= 0 {
		return nil
	}

	entry := cents(price * (1 + entryBuffer))
	stop := entry - stopRanges*snap.AverageRange
	if snap.RecentLow > 0 {
		stop = max(stop, snap.RecentLow*(1-supportBuffer))
	}
	stop = cents(stop)
	risk := entry - stop
	if stop <= 0 || risk <= 0 {
		return nil
	}

	l := &core.TradeLevels{
		Entry:        entry,
		Stop:         stop,
		StopPercent:  cents(risk / entry * 100),
		Target1:      cents(entry + risk),
		Target2:      cents(entry + 2*risk),
		Target3:      cents(entry + 3*risk),
		Resistance:   cents(snap.RecentHigh),
		AverageRange: cents(snap.AverageRange),
	}
	if snap.RecentHigh > entry {
		l.RiskReward = cents((snap.RecentHigh - entry) / risk)
	}
	return l
}

// cents rounds to two decimals.
func cents(v float64) float64 {
	return math.Round(v*100) / 100
}
