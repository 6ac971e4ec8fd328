// Package news answers whether a symbol has a fresh news catalyst.
package news

import (
	"context"
	"time"
)

// Window is the half-open publication interval [From, To) that counts as
// fresh news for one scan.
type Window struct {
	From time.Time
	To   time.Time
}

// DayWindow covers the calendar day of date in date's location.
func DayWindow(date time.Time) Window {
	from := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return Window{From: from, To: from.AddDate(0, 0, 1)}
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.To)
}

// IsZero reports whether the window is unset.
func (w Window) IsZero() bool {
	return w.From.IsZero() && w.To.IsZero()
}

// Source reports whether symbol had news published inside the window.
// Errors wrap core.ErrNewsUnavailable; callers treat any error as "no
// catalyst".
type Source interface {
	Name() string
	HasNews(ctx context.Context, symbol string, w Window) (bool, error)
}

// None is the null Source used when no news provider is configured.
type None struct{}

func (None) Name() string {
	return "none"
}

func (None) HasNews(ctx context.Context, symbol string, w Window) (bool, error) {
	return false, nil
}
