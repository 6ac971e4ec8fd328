package news

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
)

type countingSource struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *countingSource) Name() string { return "counting" }

func (s *countingSource) HasNews(ctx context.Context, symbol string, w Window) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	return symbol == "NVDA", nil
}

func TestNone(t *testing.T) {
	var src Source = None{}
	has, err := src.HasNews(context.Background(), "AAPL", DayWindow(time.Now()))
	require.NoError(t, err)
	assert.False(t, has)
	assert.Equal(t, "none", src.Name())
}

func TestCached_HitAndExpiry(t *testing.T) {
	src := &countingSource{}
	c := NewCached(src, time.Minute)
	now := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	w := DayWindow(now)

	for i := 0; i < 3; i++ {
		has, err := c.HasNews(context.Background(), "NVDA", w)
		require.NoError(t, err)
		assert.True(t, has)
	}
	assert.Equal(t, 1, src.calls)

	// A later window end alone reuses the entry.
	_, _ = c.HasNews(context.Background(), "NVDA", Window{From: w.From, To: w.To.Add(time.Hour)})
	assert.Equal(t, 1, src.calls)

	// A different start is a different key.
	_, _ = c.HasNews(context.Background(), "NVDA", DayWindow(now.AddDate(0, 0, 1)))
	assert.Equal(t, 2, src.calls)

	now = now.Add(2 * time.Minute)
	_, _ = c.HasNews(context.Background(), "NVDA", w)
	assert.Equal(t, 3, src.calls)
}

func TestCached_ErrorsNotCached(t *testing.T) {
	src := &countingSource{err: core.WrapError(core.ErrNewsUnavailable, errors.New("rate limited"))}
	c := NewCached(src, time.Hour)

	for i := 0; i < 2; i++ {
		_, err := c.HasNews(context.Background(), "AAPL", DayWindow(time.Now()))
		assert.True(t, errors.Is(err, core.ErrNewsUnavailable))
	}
	assert.Equal(t, 2, src.calls)
}

func TestCached_Prune(t *testing.T) {
	c := NewCached(&countingSource{}, time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	_, _ = c.HasNews(context.Background(), "AAPL", DayWindow(now))
	_, _ = c.HasNews(context.Background(), "MSFT", DayWindow(now))

	now = now.Add(time.Hour)
	assert.Equal(t, 2, c.Prune())
	assert.Equal(t, 0, c.Prune())
}

func TestCached_Concurrent(t *testing.T) {
	c := NewCached(&countingSource{}, time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.HasNews(context.Background(), "NVDA", DayWindow(time.Now()))
		}()
	}
	wg.Wait()
}

func TestWindow(t *testing.T) {
	ny := time.FixedZone("EDT", -4*3600)
	w := DayWindow(time.Date(2026, 10, 19, 18, 0, 0, 0, ny))

	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, ny), w.From)
	assert.Equal(t, time.Date(2026, 10, 20, 0, 0, 0, 0, ny), w.To)
	assert.True(t, w.Contains(w.From))
	assert.False(t, w.Contains(w.To))
	assert.True(t, Window{}.IsZero())
	assert.False(t, w.IsZero())
}
