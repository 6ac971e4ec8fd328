package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/notifier"
)

func TestWebhook_ImplementsNotifier(t *testing.T) {
	var _ notifier.Notifier = (*Webhook)(nil)
}

func TestWebhook_Name(t *testing.T) {
	w := New("http://example.com/hook", nil)
	if w.Name() != "webhook" {
		t.Errorf("expected 'webhook', got %s", w.Name())
	}
}

func TestWebhook_Init_RequiresURL(t *testing.T) {
	w := &Webhook{}
	err := w.Init(notifier.Config{Params: map[string]any{}})
	if err == nil {
		t.Error("expected error for missing URL")
	}
}

func TestWebhook_Init_WithParams(t *testing.T) {
	w := &Webhook{}
	err := w.Init(notifier.Config{
		Params: map[string]any{
			"url":     "http://example.com/hook",
			"top_n":   3,
			"headers": map[string]any{"Authorization": "Bearer x"},
		},
	})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if w.url != "http://example.com/hook" {
		t.Errorf("expected url, got %s", w.url)
	}
	if w.topN != 3 {
		t.Errorf("expected top_n 3, got %d", w.topN)
	}
	if w.headers["Authorization"] != "Bearer x" {
		t.Errorf("expected header, got %v", w.headers)
	}
}

func TestWebhook_NotifyScan(t *testing.T) {
	var received ScanPayload
	var auth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("X-Token")
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	w := New(server.URL, map[string]string{"X-Token": "secret"})

	res := &core.ScanResult{
		ID:        "scan-1",
		Date:      "2025-03-10",
		Trigger:   core.TriggerSchedule,
		ScannedAt: time.Now(),
		Attempted: 3,
		Succeeded: 2,
		Qualified: 2,
		Results: []core.SymbolResult{
			{Symbol: "NVDA", Score: &core.ScoreBreakdown{Total: 9, Grade: core.GradeA}},
			{Symbol: "AMD", Score: &core.ScoreBreakdown{Total: 4, Grade: core.GradeC}},
		},
		Failed: []core.SymbolResult{{Symbol: "XYZ", Error: &core.ErrorInfo{Code: "SYMBOL_NOT_FOUND"}}},
	}

	if err := w.NotifyScan(context.Background(), res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if received.Type != "scan" || received.ScanID != "scan-1" {
		t.Errorf("unexpected payload: %+v", received)
	}
	if received.Failed != 1 {
		t.Errorf("expected 1 failed, got %d", received.Failed)
	}
	if len(received.Picks) != 1 || received.Picks[0].Symbol != "NVDA" {
		t.Errorf("expected NVDA as the only pick, got %+v", received.Picks)
	}
	if auth != "secret" {
		t.Errorf("expected custom header, got %q", auth)
	}
}

func TestWebhook_NotifyFailure(t *testing.T) {
	var received map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	w := New(server.URL, nil)
	err := w.NotifyFailure(context.Background(), notifier.Failure{
		Trigger: core.TriggerManual,
		Date:    "2025-03-10",
		At:      time.Now(),
		Error:   &core.ErrorInfo{Code: "PROVIDER_UNREACHABLE", Message: "down"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if received["type"] != "scan_failed" {
		t.Errorf("expected type scan_failed, got %v", received["type"])
	}
	errInfo, _ := received["error"].(map[string]any)
	if errInfo["code"] != "PROVIDER_UNREACHABLE" {
		t.Errorf("expected error code, got %v", received["error"])
	}
}

func TestWebhook_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	w := New(server.URL, nil)
	if err := w.NotifyScan(context.Background(), &core.ScanResult{}); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestWebhook_NilResult(t *testing.T) {
	w := New("http://127.0.0.1:1/hook", nil)
	if err := w.NotifyScan(context.Background(), nil); err != nil {
		t.Errorf("expected nil result to be skipped, got %v", err)
	}
}
