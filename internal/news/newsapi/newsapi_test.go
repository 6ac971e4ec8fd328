package newsapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/news"
)

func TestClient_ImplementsSource(t *testing.T) {
	var _ news.Source = (*Client)(nil)
}

func newTestClient(t *testing.T, body string, status int) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, everythingPath, r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "NVDA", r.URL.Query().Get("q"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return New("test-key", WithBaseURL(srv.URL))
}

func TestClient_HasNews(t *testing.T) {
	w := news.DayWindow(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		name string
		body string
		want bool
	}{
		{
			name: "article today",
			body: `{"status":"ok","totalResults":1,"articles":[{"title":"NVDA beats","publishedAt":"2024-03-05T12:00:00Z"}]}`,
			want: true,
		},
		{
			name: "only older articles",
			body: `{"status":"ok","totalResults":1,"articles":[{"title":"old","publishedAt":"2024-03-04T23:59:00Z"}]}`,
			want: false,
		},
		{
			name: "no articles",
			body: `{"status":"ok","totalResults":0,"articles":[]}`,
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.body, http.StatusOK)
			got, err := c.HasNews(context.Background(), "NVDA", w)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_APIError(t *testing.T) {
	c := newTestClient(t, `{"status":"error","code":"apiKeyInvalid","message":"Your API key is invalid"}`, http.StatusUnauthorized)

	_, err := c.HasNews(context.Background(), "NVDA", news.Window{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrNewsUnavailable))
	assert.Contains(t, err.Error(), "apiKeyInvalid")
}

func TestClient_MalformedBody(t *testing.T) {
	c := newTestClient(t, `not json`, http.StatusOK)

	_, err := c.HasNews(context.Background(), "NVDA", news.Window{})
	assert.True(t, errors.Is(err, core.ErrNewsUnavailable))
}

func TestClient_QueriesWindow(t *testing.T) {
	ny := time.FixedZone("EDT", -4*3600)
	w := news.Window{
		From: time.Date(2026, 10, 19, 0, 0, 0, 0, ny),
		To:   time.Date(2026, 10, 19, 18, 0, 0, 0, ny),
	}

	var from, to string
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		from, to = r.URL.Query().Get("from"), r.URL.Query().Get("to")
		_, _ = rw.Write([]byte(`{"status":"ok","articles":[{"publishedAt":"2026-10-19T19:00:00Z"}]}`))
	}))
	t.Cleanup(srv.Close)

	got, err := New("k", WithBaseURL(srv.URL)).HasNews(context.Background(), "NVDA", w)
	require.NoError(t, err)
	assert.True(t, got)
	assert.Equal(t, "2026-10-19T04:00:00Z", from)
	assert.Equal(t, "2026-10-19T22:00:00Z", to)
}
