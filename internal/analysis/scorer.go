package analysis

import (
	"fmt"
	"math"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
)

// Point caps per factor
const (
	MaxGapPoints       = 3
	MaxVolumePoints    = 3
	MaxTechnicalPoints = 3
	MaxCatalystPoints  = 1
	MaxTotal           = MaxGapPoints + MaxVolumePoints + MaxTechnicalPoints + MaxCatalystPoints
)

// Scorer turns a SignalSet into a ScoreBreakdown. It is pure and safe for
// concurrent use.
type Scorer struct {
	policy core.GapPolicy
}

// NewScorer creates a Scorer. An unknown policy falls back to long-only.
func NewScorer(policy core.GapPolicy) *Scorer {
	if policy != core.GapPolicySymmetric {
		policy = core.GapPolicyLong
	}
	return &Scorer{policy: policy}
}

// Policy returns the gap policy in effect.
func (s *Scorer) Policy() core.GapPolicy {
	return s.policy
}

// Score computes the breakdown, total and grade for sig.
func (s *Scorer) Score(sig core.SignalSet) core.ScoreBreakdown {
	b := core.ScoreBreakdown{
		GapPoints:       s.gapPoints(sig.GapPercent),
		VolumePoints:    VolumePoints(sig.RelativeVolume),
		TechnicalPoints: TechnicalPoints(sig),
	}
	if sig.Catalyst {
		b.CatalystPoints = MaxCatalystPoints
	}
	b.Total = b.GapPoints + b.VolumePoints + b.TechnicalPoints + b.CatalystPoints
	b.Grade = core.GradeFor(b.Total)
	b.Reasons = reasons(sig, b)
	return b
}

func (s *Scorer) gapPoints(gap float64) int {
	if s.policy == core.GapPolicySymmetric {
		gap = math.Abs(gap)
	}
	return GapPoints(gap)
}

// GapPoints scores a gap percentage: 3 in [2, 8], 1 in (0, 2) or (8, 15),
// otherwise 0.
func GapPoints(gap float64) int {
	switch {
	case gap >= 2 && gap <= 8:
		return 3
	case gap > 0 && gap < 2:
		return 1
	case gap > 8 && gap < 15:
		return 1
	default:
		return 0
	}
}

// VolumePoints scores relative volume.
func VolumePoints(rvol float64) int {
	switch {
	case rvol >= 2.0:
		return 3
	case rvol >= 1.5:
		return 2
	case rvol >= 1.0:
		return 1
	default:
		return 0
	}
}

// TechnicalPoints awards one point per true technical flag.
func TechnicalPoints(sig core.SignalSet) int {
	n := 0
	for _, flag := range []bool{sig.NearHigh, sig.AboveMA, sig.StrongClose} {
		if flag {
			n++
		}
	}
	return min(n, MaxTechnicalPoints)
}

func reasons(sig core.SignalSet, b core.ScoreBreakdown) []string {
	var out []string
	if b.GapPoints > 0 {
		out = append(out, fmt.Sprintf("gap %+.2f%% (+%d)", sig.GapPercent, b.GapPoints))
	}
	if b.VolumePoints > 0 {
		out = append(out, fmt.Sprintf("relative volume %.2fx (+%d)", sig.RelativeVolume, b.VolumePoints))
	}
	if sig.NearHigh {
		out = append(out, "near prior high (+1)")
	}
	if sig.AboveMA {
		out = append(out, "above moving average (+1)")
	}
	if sig.StrongClose {
		out = append(out, "closed in top of range (+1)")
	}
	if sig.Catalyst {
		out = append(out, "news catalyst today (+1)")
	}
	if sig.LowConfidence {
		out = append(out, "low confidence: pre-market or prior close missing")
	}
	return out
}
