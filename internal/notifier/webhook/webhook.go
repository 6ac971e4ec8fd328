// Package webhook implements an HTTP webhook notifier
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/notifier"
)

// Webhook implements the Notifier interface for HTTP webhooks
type Webhook struct {
	url     string
	headers map[string]string
	topN    int
	client  *http.Client
}

// New creates a new Webhook notifier
func New(url string, headers map[string]string) *Webhook {
	return &Webhook{
		url:     url,
		headers: headers,
		topN:    notifier.DefaultTopN,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Init(cfg notifier.Config) error {
	if url, ok := cfg.Params["url"].(string); ok {
		w.url = url
	}
	if headers := notifier.StringMapParam(cfg.Params, "headers"); headers != nil {
		w.headers = headers
	}
	if n, ok := notifier.IntParam(cfg.Params, "top_n"); ok && n > 0 {
		w.topN = n
	}

	if w.url == "" {
		return fmt.Errorf("webhook: url is required")
	}

	if w.topN <= 0 {
		w.topN = notifier.DefaultTopN
	}
	if w.client == nil {
		w.client = &http.Client{Timeout: 30 * time.Second}
	}

	return nil
}

// ScanPayload is the body posted after a completed scan
type ScanPayload struct {
	Type      string          `json:"type"`
	ScanID    string          `json:"scan_id"`
	Date      string          `json:"date"`
	Trigger   core.Trigger    `json:"trigger"`
	ScannedAt time.Time       `json:"scanned_at"`
	Attempted int             `json:"attempted"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Qualified int             `json:"qualified"`
	Picks     []notifier.Pick `json:"picks"`
}

// FailurePayload is the body posted when a scan aborts
type FailurePayload struct {
	Type string `json:"type"`
	notifier.Failure
}

func (w *Webhook) NotifyScan(ctx context.Context, res *core.ScanResult) error {
	if res == nil {
		return nil
	}
	return w.post(ctx, ScanPayload{
		Type:      "scan",
		ScanID:    res.ID,
		Date:      res.Date,
		Trigger:   res.Trigger,
		ScannedAt: res.ScannedAt,
		Attempted: res.Attempted,
		Succeeded: res.Succeeded,
		Failed:    res.FailedCount(),
		Qualified: res.Qualified,
		Picks:     notifier.TopPicks(res, w.topN),
	})
}

func (w *Webhook) NotifyFailure(ctx context.Context, f notifier.Failure) error {
	return w.post(ctx, FailurePayload{Type: "scan_failed", Failure: f})
}

func (w *Webhook) post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhook: failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: server returned %d", resp.StatusCode)
	}

	return nil
}
