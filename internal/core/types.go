package core

import (
	"math"
	"regexp"
	"strings"
	"time"
)

// DateLayout is the wire format of a trading date.
const DateLayout = "2006-01-02"

// Trigger identifies what started a scan
type Trigger string

const (
	TriggerManual   Trigger = "manual"
	TriggerSchedule Trigger = "schedule"
	TriggerCLI      Trigger = "cli"
)

// GapPolicy selects how negative gaps are scored
type GapPolicy string

const (
	// GapPolicyLong scores only upward gaps. Negative gaps score 0.
	GapPolicyLong GapPolicy = "long"
	// GapPolicySymmetric scores the absolute gap, so short-side setups rank too.
	GapPolicySymmetric GapPolicy = "symmetric"
)

// Grade is the coarse tier derived from a total score
type Grade string

const (
	GradeA    Grade = "A"
	GradeB    Grade = "B"
	GradeC    Grade = "C"
	GradeNone Grade = "None"
)

// GradeFor maps a total score to its grade.
func GradeFor(total int) Grade {
	switch {
	case total >= 8:
		return GradeA
	case total >= 6:
		return GradeB
	case total >= 3:
		return GradeC
	default:
		return GradeNone
	}
}

// Tier orders grades: higher is better.
func (g Grade) Tier() int {
	switch g {
	case GradeA:
		return 3
	case GradeB:
		return 2
	case GradeC:
		return 1
	default:
		return 0
	}
}

// Bar represents a daily or intraday candle
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// SymbolSnapshot holds the raw per-symbol inputs for one trading day.
// It is never modified after the market data source returns it, except
// that the scan engine fills HasNews from the news source before extraction.
type SymbolSnapshot struct {
	Symbol          string    `json:"symbol"`
	Date            time.Time `json:"date"`
	PriorClose      float64   `json:"prior_close"`
	PriorVolume     int64     `json:"prior_volume"`
	AvgVolume       float64   `json:"avg_volume"`
	MovingAverage   float64   `json:"moving_average"`
	PriorHigh       float64   `json:"prior_high"`
	PriorLow        float64   `json:"prior_low"`
	PreMarketPrice  float64   `json:"premarket_price"`
	PreMarketVolume int64     `json:"premarket_volume"`
	HasNews         bool      `json:"has_news"`

	// Recent daily range statistics, used for trade levels. Zero when the
	// provider history is too short.
	AverageRange float64 `json:"average_range,omitempty"`
	RecentLow    float64 `json:"recent_low,omitempty"`
	RecentHigh   float64 `json:"recent_high,omitempty"`
}

// Validate rejects snapshots a provider should never have produced.
// Zero values are allowed; they mean "absent".
func (s SymbolSnapshot) Validate() error {
	if strings.TrimSpace(s.Symbol) == "" {
		return WrapError(ErrInvalidSnapshot, errString("empty symbol"))
	}
	prices := map[string]float64{
		"prior_close":     s.PriorClose,
		"avg_volume":      s.AvgVolume,
		"moving_average":  s.MovingAverage,
		"prior_high":      s.PriorHigh,
		"prior_low":       s.PriorLow,
		"premarket_price": s.PreMarketPrice,
		"average_range":   s.AverageRange,
		"recent_low":      s.RecentLow,
		"recent_high":     s.RecentHigh,
	}
	for name, v := range prices {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return WrapError(ErrInvalidSnapshot, errString(name+" is not a finite number"))
		}
		if v < 0 {
			return WrapError(ErrInvalidSnapshot, errString(name+" is negative"))
		}
	}
	if s.PriorVolume < 0 || s.PreMarketVolume < 0 {
		return WrapError(ErrInvalidSnapshot, errString("negative volume"))
	}
	if s.PriorHigh > 0 && s.PriorLow > s.PriorHigh {
		return WrapError(ErrInvalidSnapshot, errString("prior_low above prior_high"))
	}
	return nil
}

type errString string

func (e errString) Error() string { return string(e) }

// SignalSet holds the derived signal values for one symbol
type SignalSet struct {
	GapPercent     float64 `json:"gap_pct"`
	RelativeVolume float64 `json:"relative_volume"`
	NearHigh       bool    `json:"near_high"`
	AboveMA        bool    `json:"above_ma"`
	StrongClose    bool    `json:"strong_close"`
	Catalyst       bool    `json:"catalyst"`
	// ReferencePrice is the price the technical flags were evaluated at:
	// the pre-market price, or the prior close when that is missing.
	ReferencePrice float64 `json:"reference_price"`
	LowConfidence  bool    `json:"low_confidence"`
}

// ScoreBreakdown is the explainable score for one symbol
type ScoreBreakdown struct {
	GapPoints       int      `json:"gap_points"`
	VolumePoints    int      `json:"volume_points"`
	TechnicalPoints int      `json:"technical_points"`
	CatalystPoints  int      `json:"catalyst_points"`
	Total           int      `json:"total"`
	Grade           Grade    `json:"grade"`
	Reasons         []string `json:"reasons,omitempty"`
}

// SymbolResult is the outcome for one symbol. Either Signals and Score are
// set, or Error is.
type SymbolResult struct {
	Symbol   string          `json:"symbol"`
	Snapshot *SymbolSnapshot `json:"snapshot,omitempty"`
	Signals  *SignalSet      `json:"signals,omitempty"`
	Score    *ScoreBreakdown `json:"score,omitempty"`
	Levels   *TradeLevels    `json:"trade_levels,omitempty"`
	Error    *ErrorInfo      `json:"error,omitempty"`
}

// TradeLevels are reference prices for a long setup, in dollars. Targets
// are one, two and three times the risk above the entry.
type TradeLevels struct {
	Entry       float64 `json:"entry"`
	Stop        float64 `json:"stop"`
	StopPercent float64 `json:"stop_pct"`
	Target1     float64 `json:"target1"`
	Target2     float64 `json:"target2"`
	Target3     float64 `json:"target3"`
	Resistance  float64 `json:"resistance,omitempty"`

	// RiskReward is the distance to resistance over the risk; zero when
	// the entry is already above resistance.
	RiskReward   float64 `json:"risk_reward"`
	AverageRange float64 `json:"average_range"`
}

// OK reports whether the symbol was scored.
func (r SymbolResult) OK() bool {
	return r.Error == nil && r.Score != nil
}

// ScanResult is one immutable scan run
type ScanResult struct {
	ID        string         `json:"id"`
	ScannedAt time.Time      `json:"scanned_at"`
	Date      string         `json:"date"`
	Trigger   Trigger        `json:"trigger"`
	GapPolicy GapPolicy      `json:"gap_policy"`
	ShowAll   bool           `json:"show_all"`
	Results   []SymbolResult `json:"results"`
	Failed    []SymbolResult `json:"failed,omitempty"`
	Attempted int            `json:"attempted"`
	Succeeded int            `json:"succeeded"`
	Qualified int            `json:"qualified"`
	Duration  time.Duration  `json:"duration_ns"`
}

// FailedCount returns the number of symbols whose fetch failed.
func (r *ScanResult) FailedCount() int {
	return r.Attempted - r.Succeeded
}

// Find looks a symbol up among ranked and failed results.
func (r *ScanResult) Find(symbol string) (SymbolResult, bool) {
	symbol = strings.ToUpper(symbol)
	for _, res := range r.Results {
		if res.Symbol == symbol {
			return res, true
		}
	}
	for _, res := range r.Failed {
		if res.Symbol == symbol {
			return res, true
		}
	}
	return SymbolResult{}, false
}

// GradeCounts tallies ranked results per grade.
func (r *ScanResult) GradeCounts() map[Grade]int {
	counts := make(map[Grade]int, 4)
	for _, res := range r.Results {
		if res.Score != nil {
			counts[res.Score.Grade]++
		}
	}
	return counts
}

// NormalizeSymbol upper-cases and trims a ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

var symbolPattern = regexp.MustCompile(`^[A-Z0-9]{1,10}([.\-][A-Z]{1,4})?$`)

// ValidSymbol reports whether symbol, once normalised, looks like a US
// ticker such as AAPL or BRK.B.
func ValidSymbol(symbol string) bool {
	return symbolPattern.MatchString(NormalizeSymbol(symbol))
}

// DedupeSymbols normalises symbols and drops blanks and repeats, keeping
// first-seen order.
func DedupeSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = NormalizeSymbol(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// GoPick is an evening pick confirmed by the next morning's pre-market move.
type GoPick struct {
	Symbol          string       `json:"symbol"`
	Grade           Grade        `json:"grade"`
	EveningScore    int          `json:"evening_score"`
	PriorClose      float64      `json:"prior_close"`
	PreMarketPrice  float64      `json:"premarket_price"`
	ChangePercent   float64      `json:"change_pct"`
	PreMarketVolume int64        `json:"premarket_volume"`
	Catalyst        bool         `json:"catalyst"`
	Levels          *TradeLevels `json:"trade_levels,omitempty"`
}

// MorningList is the result of one morning confirmation pass over the
// latest scan. Picks are ordered catalyst first, then by grade, then by
// change.
type MorningList struct {
	ScanID    string    `json:"scan_id,omitempty"`
	Date      string    `json:"date,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
	Checked   int       `json:"checked"`
	Picks     []GoPick  `json:"picks"`
	Message   string    `json:"message,omitempty"`
}
