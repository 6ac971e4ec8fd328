package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/analysis"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/notifier"
)

const defaultAPIBase = "https://api.telegram.org"

// Telegram implements the Notifier interface for Telegram Bot API
type Telegram struct {
	botToken string
	chatID   string
	apiBase  string
	topN     int
	client   *http.Client
}

// New creates a new Telegram notifier
func New(botToken, chatID string) *Telegram {
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  defaultAPIBase,
		topN:     notifier.DefaultTopN,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (t *Telegram) Name() string {
	return "telegram"
}

func (t *Telegram) Init(cfg notifier.Config) error {
	if token, ok := cfg.Params["bot_token"].(string); ok {
		t.botToken = token
	}
	if chatID, ok := cfg.Params["chat_id"].(string); ok {
		t.chatID = chatID
	}
	if base, ok := cfg.Params["api_base"].(string); ok && base != "" {
		t.apiBase = base
	}
	if n, ok := notifier.IntParam(cfg.Params, "top_n"); ok && n > 0 {
		t.topN = n
	}

	if t.botToken == "" {
		return fmt.Errorf("telegram: bot_token is required")
	}
	if t.chatID == "" {
		return fmt.Errorf("telegram: chat_id is required")
	}

	if t.apiBase == "" {
		t.apiBase = defaultAPIBase
	}
	if t.topN <= 0 {
		t.topN = notifier.DefaultTopN
	}
	if t.client == nil {
		t.client = &http.Client{Timeout: 30 * time.Second}
	}

	return nil
}

func (t *Telegram) NotifyScan(ctx context.Context, res *core.ScanResult) error {
	if res == nil {
		return nil
	}
	return t.sendMessage(ctx, FormatScan(res, t.topN))
}

func (t *Telegram) NotifyFailure(ctx context.Context, f notifier.Failure) error {
	return t.sendMessage(ctx, FormatFailure(f))
}

// FormatScan renders the top picks of a scan as a Markdown message.
func FormatScan(res *core.ScanResult, topN int) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("📊 *DayEdge scan* %s (%s)\n", res.Date, res.Trigger))
	sb.WriteString(fmt.Sprintf("Scanned %d, scored %d, failed %d\n\n", res.Attempted, res.Succeeded, res.FailedCount()))

	picks := notifier.TopPicks(res, topN)
	if len(picks) == 0 {
		sb.WriteString("No A or B setups today.")
		return sb.String()
	}

	for i, p := range picks {
		emoji := "📈"
		if p.GapPercent < 0 {
			emoji = "📉"
		}
		sb.WriteString(fmt.Sprintf("%s *%s* %s (%d/%d)\n", emoji, p.Symbol, p.Grade, p.Total, analysis.MaxTotal))
		sb.WriteString(fmt.Sprintf("Gap %+.2f%% · RVol %.1fx", p.GapPercent, p.RelativeVolume))
		if p.Catalyst {
			sb.WriteString(" · 📰 news")
		}
		if i < len(picks)-1 {
			sb.WriteString("\n\n")
		}
	}

	return sb.String()
}

// FormatFailure renders an aborted scan as a Markdown message.
func FormatFailure(f notifier.Failure) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("⚠️ *DayEdge scan failed* %s (%s)\n", f.Date, f.Trigger))
	if f.Error != nil {
		sb.WriteString(fmt.Sprintf("%s: %s\n", f.Error.Code, f.Error.Message))
	}
	sb.WriteString(fmt.Sprintf("⏰ Time: %s", f.At.Format("2006-01-02 15:04:05")))
	return sb.String()
}

func (t *Telegram) sendMessage(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.botToken)

	payload := map[string]any{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		// The request URL embeds the bot token; keep it out of the error.
		return fmt.Errorf("telegram: failed to send message")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result map[string]any
		json.NewDecoder(resp.Body).Decode(&result)
		return fmt.Errorf("telegram: API error (status %d): %v", resp.StatusCode, result["description"])
	}

	return nil
}
