package analysis

import (
	"testing"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
)

func TestGapPoints(t *testing.T) {
	tests := []struct {
		gap  float64
		want int
	}{
		{-5, 0},
		{0, 0},
		{0.5, 1},
		{1.99, 1},
		{2, 3},
		{4, 3},
		{8, 3},
		{8.01, 1},
		{14.9, 1},
		{15, 0},
		{30, 0},
	}
	for _, tt := range tests {
		if got := GapPoints(tt.gap); got != tt.want {
			t.Errorf("GapPoints(%v) = %d, want %d", tt.gap, got, tt.want)
		}
	}
}

func TestVolumePoints(t *testing.T) {
	tests := []struct {
		rvol float64
		want int
	}{
		{0, 0},
		{0.99, 0},
		{1.0, 1},
		{1.49, 1},
		{1.5, 2},
		{1.99, 2},
		{2.0, 3},
		{12, 3},
	}
	for _, tt := range tests {
		if got := VolumePoints(tt.rvol); got != tt.want {
			t.Errorf("VolumePoints(%v) = %d, want %d", tt.rvol, got, tt.want)
		}
	}
}

func TestScorer_WorkedExample(t *testing.T) {
	snap := core.SymbolSnapshot{
		Symbol:          "NVDA",
		PriorClose:      100,
		PriorHigh:       105,
		PriorLow:        96,
		MovingAverage:   95,
		AvgVolume:       1_000_000,
		PreMarketPrice:  104,
		PreMarketVolume: 2_500_000,
		HasNews:         true,
	}
	sig := NewExtractor().Extract(snap)
	if !sig.NearHigh || !sig.AboveMA || sig.StrongClose {
		t.Fatalf("unexpected technical flags: %+v", sig)
	}

	b := NewScorer(core.GapPolicyLong).Score(sig)

	want := core.ScoreBreakdown{GapPoints: 3, VolumePoints: 3, TechnicalPoints: 2, CatalystPoints: 1, Total: 9, Grade: core.GradeA}
	if b.GapPoints != want.GapPoints || b.VolumePoints != want.VolumePoints ||
		b.TechnicalPoints != want.TechnicalPoints || b.CatalystPoints != want.CatalystPoints {
		t.Errorf("points = %d/%d/%d/%d, want 3/3/2/1", b.GapPoints, b.VolumePoints, b.TechnicalPoints, b.CatalystPoints)
	}
	if b.Total != want.Total || b.Grade != want.Grade {
		t.Errorf("total %d grade %s, want %d %s", b.Total, b.Grade, want.Total, want.Grade)
	}
	if len(b.Reasons) == 0 {
		t.Error("expected reasons")
	}
}

func TestScorer_NegativeGap(t *testing.T) {
	sig := core.SignalSet{GapPercent: -5}

	tests := []struct {
		policy core.GapPolicy
		want   int
	}{
		{core.GapPolicyLong, 0},
		{core.GapPolicySymmetric, 3},
	}
	for _, tt := range tests {
		if got := NewScorer(tt.policy).Score(sig).GapPoints; got != tt.want {
			t.Errorf("policy %s: GapPoints = %d, want %d", tt.policy, got, tt.want)
		}
	}
}

func TestNewScorer_UnknownPolicy(t *testing.T) {
	if got := NewScorer("sideways").Policy(); got != core.GapPolicyLong {
		t.Errorf("expected fallback to %s, got %s", core.GapPolicyLong, got)
	}
}

func TestScorer_Invariants(t *testing.T) {
	scorer := NewScorer(core.GapPolicyLong)
	gaps := []float64{-20, -1, 0, 1, 2, 5, 8, 10, 15, 40}
	rvols := []float64{0, 0.5, 1, 1.5, 2, 9}
	flags := []bool{false, true}

	for _, gap := range gaps {
		for _, rvol := range rvols {
			for _, nh := range flags {
				for _, ma := range flags {
					for _, sc := range flags {
						for _, cat := range flags {
							sig := core.SignalSet{
								GapPercent: gap, RelativeVolume: rvol,
								NearHigh: nh, AboveMA: ma, StrongClose: sc, Catalyst: cat,
							}
							b := scorer.Score(sig)
							sum := b.GapPoints + b.VolumePoints + b.TechnicalPoints + b.CatalystPoints
							if b.Total != sum {
								t.Fatalf("total %d != sum %d for %+v", b.Total, sum, sig)
							}
							if b.Total < 0 || b.Total > MaxTotal {
								t.Fatalf("total %d out of range for %+v", b.Total, sig)
							}
							if b.Grade != core.GradeFor(b.Total) {
								t.Fatalf("grade %s inconsistent with total %d", b.Grade, b.Total)
							}
							if again := scorer.Score(sig); again.Total != b.Total || again.Grade != b.Grade {
								t.Fatalf("non-deterministic score for %+v", sig)
							}
						}
					}
				}
			}
		}
	}
}

func TestTechnicalPoints_Capped(t *testing.T) {
	sig := core.SignalSet{NearHigh: true, AboveMA: true, StrongClose: true}
	if got := TechnicalPoints(sig); got != 3 {
		t.Errorf("TechnicalPoints = %d, want 3", got)
	}
}
