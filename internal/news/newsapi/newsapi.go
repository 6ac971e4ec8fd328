package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/news"
)

const (
	defaultBaseURL = "https://newsapi.org"
	everythingPath = "/v2/everything"
	pageSize       = 5
)

// Client implements news.Source on the NewsAPI "everything" endpoint.
type Client struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	location *time.Location
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the API host.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithLocation sets the timezone that defines "today" for a zero window.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) {
		if loc != nil {
			c.location = loc
		}
	}
}

// New creates a NewsAPI client.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		client:   &http.Client{Timeout: 5 * time.Second},
		baseURL:  defaultBaseURL,
		apiKey:   apiKey,
		location: time.UTC,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string {
	return "newsapi"
}

// HasNews reports whether any article mentioning symbol was published
// inside w. A zero window means today in the client's timezone.
func (c *Client) HasNews(ctx context.Context, symbol string, w news.Window) (bool, error) {
	if w.IsZero() {
		w = news.DayWindow(time.Now().In(c.location))
	}

	q := url.Values{}
	q.Set("q", symbol)
	q.Set("from", w.From.UTC().Format(time.RFC3339))
	q.Set("to", w.To.UTC().Format(time.RFC3339))
	q.Set("sortBy", "publishedAt")
	q.Set("pageSize", fmt.Sprint(pageSize))
	q.Set("language", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+everythingPath+"?"+q.Encode(), nil)
	if err != nil {
		return false, core.WrapError(core.ErrNewsUnavailable, err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return false, core.WrapError(core.ErrNewsUnavailable, err)
	}
	defer resp.Body.Close()

	var result everythingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, core.WrapError(core.ErrNewsUnavailable, fmt.Errorf("decoding response: %w", err))
	}

	if resp.StatusCode != http.StatusOK || result.Status != "ok" {
		return false, core.WrapError(core.ErrNewsUnavailable,
			fmt.Errorf("newsapi %d %s: %s", resp.StatusCode, result.Code, result.Message))
	}

	for _, a := range result.Articles {
		if w.Contains(a.PublishedAt) {
			return true, nil
		}
	}
	return false, nil
}

type everythingResponse struct {
	Status       string    `json:"status"`
	Code         string    `json:"code"`
	Message      string    `json:"message"`
	TotalResults int       `json:"totalResults"`
	Articles     []article `json:"articles"`
}

type article struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
}
