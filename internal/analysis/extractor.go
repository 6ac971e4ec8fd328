package analysis

import (
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
)

const (
	// DefaultNearHighTolerance is the fraction of the prior high the
	// reference price must reach to count as near the high.
	DefaultNearHighTolerance = 0.97
	// DefaultStrongCloseFraction puts the close in the top third of the range.
	DefaultStrongCloseFraction = 2.0 / 3.0
)

// Extractor derives a SignalSet from a SymbolSnapshot.
// It is pure and safe for concurrent use.
type Extractor struct {
	nearHighTolerance   float64
	strongCloseFraction float64
}

// ExtractorOption configures an Extractor
type ExtractorOption func(*Extractor)

// WithNearHighTolerance overrides the near-high tolerance. Values outside
// (0, 1] are ignored.
func WithNearHighTolerance(tol float64) ExtractorOption {
	return func(e *Extractor) {
		if tol > 0 && tol <= 1 {
			e.nearHighTolerance = tol
		}
	}
}

// WithStrongCloseFraction overrides the strong-close threshold. Values
// outside (0, 1] are ignored.
func WithStrongCloseFraction(frac float64) ExtractorOption {
	return func(e *Extractor) {
		if frac > 0 && frac <= 1 {
			e.strongCloseFraction = frac
		}
	}
}

// NewExtractor creates an Extractor with default thresholds.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		nearHighTolerance:   DefaultNearHighTolerance,
		strongCloseFraction: DefaultStrongCloseFraction,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract computes the signals for one snapshot. It never fails; missing
// inputs produce zero or false signals and may set LowConfidence.
func (e *Extractor) Extract(s core.SymbolSnapshot) core.SignalSet {
	var sig core.SignalSet

	ref := s.PreMarketPrice
	switch {
	case s.PriorClose <= 0:
		sig.LowConfidence = true
	case ref <= 0:
		sig.LowConfidence = true
	default:
		sig.GapPercent = (ref - s.PriorClose) / s.PriorClose * 100
	}
	if ref <= 0 {
		ref = s.PriorClose
	}
	sig.ReferencePrice = ref

	if s.AvgVolume > 0 {
		sig.RelativeVolume = float64(s.PreMarketVolume) / s.AvgVolume
	}

	if ref > 0 {
		sig.NearHigh = s.PriorHigh > 0 && ref >= s.PriorHigh*e.nearHighTolerance
		sig.AboveMA = s.MovingAverage > 0 && ref > s.MovingAverage
	}

	if rng := s.PriorHigh - s.PriorLow; s.PriorHigh > 0 && s.PriorLow > 0 && rng > 0 && s.PriorClose > 0 {
		sig.StrongClose = (s.PriorClose-s.PriorLow)/rng >= e.strongCloseFraction
	}

	sig.Catalyst = s.HasNews
	return sig
}
