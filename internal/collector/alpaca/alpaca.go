package alpaca

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/collector"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
)

const (
	defaultBaseURL = "https://data.alpaca.markets"
	barsPath       = "/v2/stocks/bars"
	pageLimit      = 10000

	headerKeyID     = "APCA-API-KEY-ID"
	headerSecretKey = "APCA-API-SECRET-KEY"
)

// Alpaca implements collector.BulkSource on the Alpaca market data v2 API.
// Credentials are the key id and secret key pair issued by Alpaca.
type Alpaca struct {
	client    *http.Client
	baseURL   string
	keyID     string
	secretKey string
	feed      string
	session   collector.Session
	params    collector.SnapshotParams
}

// New creates a new Alpaca source. Both credentials are required.
func New(cfg collector.Config) (*Alpaca, error) {
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("alpaca requires api key id and secret key"))
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	params := cfg.Params
	if params.MovingAverageDays <= 0 || params.AverageVolumeDays <= 0 {
		params = collector.DefaultSnapshotParams()
	}
	return &Alpaca{
		client:    &http.Client{Timeout: timeout},
		baseURL:   strings.TrimRight(base, "/"),
		keyID:     cfg.APIKey,
		secretKey: cfg.APISecret,
		feed:      "iex",
		session:   collector.NewSession(cfg.Location),
		params:    params,
	}, nil
}

// Factory adapts New to the collector registry.
func Factory(cfg collector.Config) (collector.Source, error) {
	return New(cfg)
}

func (a *Alpaca) Name() string {
	return "alpaca"
}

// Snapshot fetches a single symbol through the bulk path.
func (a *Alpaca) Snapshot(ctx context.Context, symbol string, date time.Time) (core.SymbolSnapshot, error) {
	snaps, err := a.Snapshots(ctx, []string{symbol}, date)
	if err != nil {
		return core.SymbolSnapshot{}, err
	}
	snap, ok := snaps[symbol]
	if !ok {
		return core.SymbolSnapshot{}, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("no bars for %s", symbol))
	}
	return snap, nil
}

// Snapshots fetches daily and hourly bars for all symbols in two paged
// requests. Symbols that cannot be reduced to a valid snapshot are omitted.
func (a *Alpaca) Snapshots(ctx context.Context, symbols []string, date time.Time) (map[string]core.SymbolSnapshot, error) {
	if len(symbols) == 0 {
		return map[string]core.SymbolSnapshot{}, nil
	}
	day := a.session.Day(date)

	daily, err := a.bars(ctx, symbols, "1Day", day.AddDate(0, 0, -a.params.HistoryDays()), day)
	if err != nil {
		return nil, err
	}

	// The prior session can differ per symbol after halts; use the widest window.
	var earliest time.Time
	for _, bars := range daily {
		if p := a.priorDay(bars, day); !p.IsZero() && (earliest.IsZero() || p.Before(earliest)) {
			earliest = p
		}
	}

	hourly := map[string][]core.Bar{}
	if !earliest.IsZero() {
		hourly, err = a.bars(ctx, symbols, "1Hour", a.session.Close(earliest), a.session.Open(day))
		if err != nil && core.IsFatal(err) {
			return nil, err
		}
	}

	out := make(map[string]core.SymbolSnapshot, len(symbols))
	for _, symbol := range symbols {
		bars := daily[symbol]
		prior := a.priorDay(bars, day)
		if prior.IsZero() {
			continue
		}
		extended := a.session.PreMarket(hourly[symbol], time.Hour, prior, day)
		snap, err := collector.BuildSnapshot(symbol, day, bars, extended, a.params)
		if err != nil {
			continue
		}
		out[symbol] = snap
	}
	return out, nil
}

func (a *Alpaca) priorDay(bars []core.Bar, day time.Time) time.Time {
	var prior time.Time
	for _, b := range bars {
		if b.Time.Before(day) {
			prior = a.session.Day(b.Time)
		}
	}
	return prior
}

func (a *Alpaca) bars(ctx context.Context, symbols []string, timeframe string, start, end time.Time) (map[string][]core.Bar, error) {
	out := make(map[string][]core.Bar, len(symbols))
	pageToken := ""
	for {
		q := url.Values{}
		q.Set("symbols", strings.Join(symbols, ","))
		q.Set("timeframe", timeframe)
		q.Set("start", start.UTC().Format(time.RFC3339))
		q.Set("end", end.UTC().Format(time.RFC3339))
		q.Set("limit", fmt.Sprint(pageLimit))
		q.Set("adjustment", "raw")
		q.Set("feed", a.feed)
		if pageToken != "" {
			q.Set("page_token", pageToken)
		}

		page, err := a.get(ctx, a.baseURL+barsPath+"?"+q.Encode())
		if err != nil {
			return nil, err
		}
		for symbol, bars := range page.Bars {
			for _, b := range bars {
				out[symbol] = append(out[symbol], core.Bar{
					Time:   b.Timestamp,
					Open:   b.Open,
					High:   b.High,
					Low:    b.Low,
					Close:  b.Close,
					Volume: int64(b.Volume),
				})
			}
		}
		if page.NextPageToken == nil || *page.NextPageToken == "" {
			return out, nil
		}
		pageToken = *page.NextPageToken
	}
}

func (a *Alpaca) get(ctx context.Context, reqURL string) (*barsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set(headerKeyID, a.keyID)
	req.Header.Set(headerSecretKey, a.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, collector.ClassifyTransport(ctx, fmt.Errorf("fetching bars: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, collector.ClassifyStatus("alpaca", resp.StatusCode)
	}

	var page barsResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("decoding response: %w", err))
	}
	return &page, nil
}

// Alpaca API response types
type barsResponse struct {
	Bars          map[string][]bar `json:"bars"`
	NextPageToken *string          `json:"next_page_token"`
}

type bar struct {
	Timestamp  time.Time `json:"t"`
	Open       float64   `json:"o"`
	High       float64   `json:"h"`
	Low        float64   `json:"l"`
	Close      float64   `json:"c"`
	Volume     float64   `json:"v"`
	TradeCount int64     `json:"n"`
	VWAP       float64   `json:"vw"`
}
