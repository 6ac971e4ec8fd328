package core

import (
	"errors"
	"math"
	"testing"
)

func TestGradeFor(t *testing.T) {
	tests := []struct {
		total int
		want  Grade
	}{
		{0, GradeNone},
		{2, GradeNone},
		{3, GradeC},
		{5, GradeC},
		{6, GradeB},
		{7, GradeB},
		{8, GradeA},
		{10, GradeA},
	}
	for _, tt := range tests {
		if got := GradeFor(tt.total); got != tt.want {
			t.Errorf("GradeFor(%d) = %s, want %s", tt.total, got, tt.want)
		}
	}
}

func TestGradeFor_Monotonic(t *testing.T) {
	for hi := 0; hi <= 10; hi++ {
		for lo := 0; lo <= hi; lo++ {
			if GradeFor(hi).Tier() < GradeFor(lo).Tier() {
				t.Errorf("grade(%d)=%s worse than grade(%d)=%s", hi, GradeFor(hi), lo, GradeFor(lo))
			}
		}
	}
}

func TestSymbolSnapshot_Validate(t *testing.T) {
	valid := SymbolSnapshot{Symbol: "AAPL", PriorClose: 100, PriorHigh: 101, PriorLow: 98}

	tests := []struct {
		name    string
		mutate  func(s *SymbolSnapshot)
		wantErr bool
	}{
		{"valid", func(s *SymbolSnapshot) {}, false},
		{"zero fields allowed", func(s *SymbolSnapshot) { *s = SymbolSnapshot{Symbol: "X"} }, false},
		{"empty symbol", func(s *SymbolSnapshot) { s.Symbol = " " }, true},
		{"negative price", func(s *SymbolSnapshot) { s.PreMarketPrice = -1 }, true},
		{"negative volume", func(s *SymbolSnapshot) { s.PreMarketVolume = -5 }, true},
		{"nan", func(s *SymbolSnapshot) { s.MovingAverage = math.NaN() }, true},
		{"inverted range", func(s *SymbolSnapshot) { s.PriorLow = 120 }, true},
		{"negative average range", func(s *SymbolSnapshot) { s.AverageRange = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSnapshot) {
				t.Errorf("expected ErrInvalidSnapshot, got %v", err)
			}
		})
	}
}

func TestScanResult_Find(t *testing.T) {
	r := &ScanResult{
		Results: []SymbolResult{{Symbol: "AAPL", Score: &ScoreBreakdown{Total: 9, Grade: GradeA}}},
		Failed:  []SymbolResult{{Symbol: "TSLA", Error: &ErrorInfo{Code: "DATA_UNAVAILABLE"}}},
	}

	if res, ok := r.Find("aapl"); !ok || !res.OK() {
		t.Error("expected to find scored AAPL")
	}
	if res, ok := r.Find("TSLA"); !ok || res.OK() {
		t.Error("expected to find failed TSLA")
	}
	if _, ok := r.Find("MSFT"); ok {
		t.Error("did not expect MSFT")
	}
}

func TestScanResult_Counts(t *testing.T) {
	r := &ScanResult{
		Attempted: 5,
		Succeeded: 4,
		Results: []SymbolResult{
			{Symbol: "A", Score: &ScoreBreakdown{Grade: GradeA}},
			{Symbol: "B", Score: &ScoreBreakdown{Grade: GradeA}},
			{Symbol: "C", Score: &ScoreBreakdown{Grade: GradeC}},
		},
	}
	if r.FailedCount() != 1 {
		t.Errorf("expected 1 failed, got %d", r.FailedCount())
	}
	counts := r.GradeCounts()
	if counts[GradeA] != 2 || counts[GradeC] != 1 {
		t.Errorf("unexpected grade counts: %v", counts)
	}
}

func TestDedupeSymbols(t *testing.T) {
	got := DedupeSymbols([]string{"aapl", "MSFT", " AAPL ", "", "nvda", "msft"})
	want := []string{"AAPL", "MSFT", "NVDA"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestValidSymbol(t *testing.T) {
	for _, s := range []string{"AAPL", "brk.b", " nvda ", "BF-B", "X"} {
		if !ValidSymbol(s) {
			t.Errorf("expected %q valid", s)
		}
	}
	for _, s := range []string{"", "AAPL$", "TOOLONGSYMBOL1", "A B", "BRK.12345"} {
		if ValidSymbol(s) {
			t.Errorf("expected %q invalid", s)
		}
	}
}
