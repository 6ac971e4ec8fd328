package collector

import (
	"time"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
)

// US equity regular session, exchange local time.
const (
	openHour, openMinute   = 9, 30
	closeHour, closeMinute = 16, 0
)

// Session answers session-boundary questions in the exchange's timezone.
// Exchange holidays are not modelled; a holiday simply has no bars.
type Session struct {
	Location *time.Location
}

// NewSession returns a Session for loc, defaulting to America/New_York and
// falling back to UTC when tzdata is unavailable.
func NewSession(loc *time.Location) Session {
	if loc == nil {
		var err error
		loc, err = time.LoadLocation("America/New_York")
		if err != nil {
			loc = time.UTC
		}
	}
	return Session{Location: loc}
}

// Day truncates t to midnight of its exchange-local date.
func (s Session) Day(t time.Time) time.Time {
	t = t.In(s.Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.Location)
}

// Open returns the regular-session open on date.
func (s Session) Open(date time.Time) time.Time {
	d := s.Day(date)
	return time.Date(d.Year(), d.Month(), d.Day(), openHour, openMinute, 0, 0, s.Location)
}

// Close returns the regular-session close on date.
func (s Session) Close(date time.Time) time.Time {
	d := s.Day(date)
	return time.Date(d.Year(), d.Month(), d.Day(), closeHour, closeMinute, 0, 0, s.Location)
}

// IsWeekday reports whether date falls Monday to Friday.
func (s Session) IsWeekday(date time.Time) bool {
	wd := date.In(s.Location).Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// NextTradingDate returns the session a scan at now should target: today
// when now is a weekday before the open, otherwise the next weekday. An
// evening scan therefore scores the following morning's setup.
func (s Session) NextTradingDate(now time.Time) time.Time {
	day := s.Day(now)
	if s.IsWeekday(day) && now.Before(s.Open(day)) {
		return day
	}
	for {
		day = day.AddDate(0, 0, 1)
		if s.IsWeekday(day) {
			return day
		}
	}
}

// PriorTradingDate returns the weekday before date.
func (s Session) PriorTradingDate(date time.Time) time.Time {
	day := s.Day(date)
	for {
		day = day.AddDate(0, 0, -1)
		if s.IsWeekday(day) {
			return day
		}
	}
}

// PreMarket filters bars to the extended-hours window after the close of
// priorDay and before the open on date. Bars are stamped with their start
// time, so a bar is kept only when it also ends by the open.
func (s Session) PreMarket(bars []core.Bar, interval time.Duration, priorDay, date time.Time) []core.Bar {
	from := s.Close(priorDay)
	to := s.Open(date)
	var out []core.Bar
	for _, b := range bars {
		if !b.Time.Before(from) && !b.Time.Add(interval).After(to) {
			out = append(out, b)
		}
	}
	return out
}
