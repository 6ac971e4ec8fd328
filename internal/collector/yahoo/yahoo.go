package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/collector"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
)

const (
	defaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	userAgent      = "Mozilla/5.0 (compatible; dayedge-scanner)"
)

// validSymbol matches US tickers like AAPL, BRK-B, BRK.B
var validSymbol = regexp.MustCompile(`^[A-Za-z0-9]{1,10}([.\-][A-Za-z]{1,4})?$`)

// validateSymbol checks if a symbol has valid format
func validateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if !validSymbol.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}

// Yahoo implements collector.Source on the Yahoo Finance chart API.
// It needs no credentials.
type Yahoo struct {
	client  *http.Client
	baseURL string
	session collector.Session
	params  collector.SnapshotParams
}

// New creates a new Yahoo source
func New(cfg collector.Config) *Yahoo {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	params := cfg.Params
	if params.MovingAverageDays <= 0 || params.AverageVolumeDays <= 0 {
		params = collector.DefaultSnapshotParams()
	}
	return &Yahoo{
		client:  &http.Client{Timeout: timeout},
		baseURL: base,
		session: collector.NewSession(cfg.Location),
		params:  params,
	}
}

// Factory adapts New to the collector registry.
func Factory(cfg collector.Config) (collector.Source, error) {
	return New(cfg), nil
}

func (y *Yahoo) Name() string {
	return "yahoo"
}

// Snapshot fetches daily history before date plus the extended-hours bars
// between the prior close and the open on date.
func (y *Yahoo) Snapshot(ctx context.Context, symbol string, date time.Time) (core.SymbolSnapshot, error) {
	if err := validateSymbol(symbol); err != nil {
		return core.SymbolSnapshot{}, core.WrapError(core.ErrSymbolNotFound, err)
	}
	day := y.session.Day(date)

	from := day.AddDate(0, 0, -y.params.HistoryDays())
	daily, err := y.chart(ctx, symbol, "1d", from, day, false)
	if err != nil {
		return core.SymbolSnapshot{}, err
	}

	var prior time.Time
	for _, b := range daily {
		if b.Time.Before(day) {
			prior = y.session.Day(b.Time)
		}
	}

	var extended []core.Bar
	if !prior.IsZero() {
		intraday, err := y.chart(ctx, symbol, "1h", y.session.Close(prior), y.session.Open(day), true)
		if err != nil && core.IsFatal(err) {
			return core.SymbolSnapshot{}, err
		}
		// A missing pre-market series only lowers confidence.
		extended = y.session.PreMarket(intraday, time.Hour, prior, day)
	}

	return collector.BuildSnapshot(symbol, day, daily, extended, y.params)
}

func (y *Yahoo) chart(ctx context.Context, symbol, interval string, start, end time.Time, prePost bool) ([]core.Bar, error) {
	q := url.Values{}
	q.Set("interval", interval)
	q.Set("period1", fmt.Sprint(start.Unix()))
	q.Set("period2", fmt.Sprint(end.Unix()))
	if prePost {
		q.Set("includePrePost", "true")
	}
	reqURL := fmt.Sprintf("%s/%s?%s", y.baseURL, url.PathEscape(symbol), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, collector.ClassifyTransport(ctx, fmt.Errorf("fetching %s chart: %w", symbol, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, collector.ClassifyStatus("yahoo", resp.StatusCode)
	}

	var result chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, core.WrapError(core.ErrInvalidSnapshot, fmt.Errorf("decoding response: %w", err))
	}

	if result.Chart.Error != nil {
		return nil, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("yahoo error: %s", result.Chart.Error.Description))
	}

	if len(result.Chart.Result) == 0 {
		return nil, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("no data for symbol: %s", symbol))
	}

	return toBars(result.Chart.Result[0]), nil
}

func toBars(r chartResult) []core.Bar {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	quotes := r.Indicators.Quote[0]

	bars := make([]core.Bar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if i >= len(quotes.Close) || quotes.Close[i] == nil {
			continue // Skip missing data
		}
		bars = append(bars, core.Bar{
			Time:   time.Unix(ts, 0),
			Open:   value(quotes.Open, i),
			High:   value(quotes.High, i),
			Low:    value(quotes.Low, i),
			Close:  *quotes.Close[i],
			Volume: int64(value(quotes.Volume, i)),
		})
	}
	return bars
}

func value(series []*float64, i int) float64 {
	if i >= len(series) || series[i] == nil {
		return 0
	}
	return *series[i]
}

// Yahoo API response types
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta       chartMeta  `json:"meta"`
	Timestamp  []int64    `json:"timestamp"`
	Indicators indicators `json:"indicators"`
}

type chartMeta struct {
	Symbol       string `json:"symbol"`
	ExchangeName string `json:"exchangeName"`
	Timezone     string `json:"exchangeTimezoneName"`
}

type indicators struct {
	Quote []quoteIndicator `json:"quote"`
}

type quoteIndicator struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}
