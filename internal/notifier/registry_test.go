package notifier

import (
	"context"
	"errors"
	"testing"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
)

type mockNotifier struct {
	name     string
	scans    int
	failures int
	err      error
}

func (m *mockNotifier) Name() string          { return m.name }
func (m *mockNotifier) Init(cfg Config) error { return nil }
func (m *mockNotifier) NotifyScan(ctx context.Context, res *core.ScanResult) error {
	m.scans++
	return m.err
}
func (m *mockNotifier) NotifyFailure(ctx context.Context, f Failure) error {
	m.failures++
	return m.err
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(&mockNotifier{name: "mock"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register(&mockNotifier{name: "mock"}); err == nil {
		t.Error("expected error for duplicate registration")
	}

	n, err := r.Get("mock")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Name() != "mock" {
		t.Errorf("expected name 'mock', got '%s'", n.Name())
	}

	if _, err := r.Get("missing"); err == nil {
		t.Error("expected error for unknown notifier")
	}
}

func TestRegistry_GetAllKeepsOrder(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&mockNotifier{name: "webhook"})
	_ = r.Register(&mockNotifier{name: "telegram"})

	all := r.GetAll()
	if len(all) != 2 || all[0].Name() != "webhook" || all[1].Name() != "telegram" {
		t.Fatalf("expected registration order, got %v", all)
	}

	all[0] = nil
	if r.GetAll()[0] == nil {
		t.Error("GetAll must return a copy")
	}
}

func TestRegistry_NotifyScan(t *testing.T) {
	r := NewRegistry()
	ok := &mockNotifier{name: "ok"}
	bad := &mockNotifier{name: "bad", err: errors.New("boom")}
	_ = r.Register(ok)
	_ = r.Register(bad)

	errs := r.NotifyScan(context.Background(), &core.ScanResult{})
	if ok.scans != 1 || bad.scans != 1 {
		t.Errorf("expected each notifier called once, got ok=%d bad=%d", ok.scans, bad.scans)
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	if !errors.Is(errs["bad"], core.ErrNotifierFailed) {
		t.Errorf("expected ErrNotifierFailed, got %v", errs["bad"])
	}

	errs = r.NotifyFailure(context.Background(), Failure{})
	if ok.failures != 1 || len(errs) != 1 {
		t.Errorf("unexpected failure fan-out: ok=%d errs=%d", ok.failures, len(errs))
	}
}

func TestTopPicks(t *testing.T) {
	res := &core.ScanResult{Results: []core.SymbolResult{
		{Symbol: "A", Score: &core.ScoreBreakdown{Total: 9, Grade: core.GradeA}, Signals: &core.SignalSet{GapPercent: 4}},
		{Symbol: "B", Score: &core.ScoreBreakdown{Total: 7, Grade: core.GradeB}},
		{Symbol: "C", Score: &core.ScoreBreakdown{Total: 6, Grade: core.GradeB}},
		{Symbol: "D", Score: &core.ScoreBreakdown{Total: 4, Grade: core.GradeC}},
	}}

	picks := TopPicks(res, 2)
	if len(picks) != 2 || picks[0].Symbol != "A" || picks[1].Symbol != "B" {
		t.Fatalf("unexpected picks: %+v", picks)
	}
	if picks[0].GapPercent != 4 {
		t.Errorf("expected gap carried over, got %v", picks[0].GapPercent)
	}

	all := TopPicks(res, 0)
	if len(all) != 3 {
		t.Errorf("expected grade C excluded, got %d picks", len(all))
	}

	if TopPicks(nil, 3) != nil {
		t.Error("expected nil for nil result")
	}
}

func TestParams(t *testing.T) {
	params := map[string]any{
		"top_n":   float64(3),
		"headers": map[string]any{"X-Token": "abc", "bad": 1},
	}
	if n, ok := IntParam(params, "top_n"); !ok || n != 3 {
		t.Errorf("IntParam = %d, %v", n, ok)
	}
	if _, ok := IntParam(params, "missing"); ok {
		t.Error("expected missing key to report false")
	}
	h := StringMapParam(params, "headers")
	if h["X-Token"] != "abc" || len(h) != 1 {
		t.Errorf("unexpected headers: %v", h)
	}
}
