// Package cycle computes effective dates and weekly cycle windows.
//
// All functions are pure calendar math: events landing between midnight and
// the rollover hour belong to the previous day, and every date maps to
// exactly one 7-day window anchored on a configured weekday.
package cycle

import (
	"fmt"
	"time"
)

// DefaultRolloverHour treats midnight up to 3am as the previous day.
const DefaultRolloverHour = 3

// Clock supplies the current time in the configured zone. Injectable so the
// engine can be tested deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock returns wall-clock time in a fixed location.
type SystemClock struct {
	Loc *time.Location
}

// Now implements Clock.
func (c SystemClock) Now() time.Time {
	return time.Now().In(c.Loc)
}

// EffectiveDate returns the calendar date an event belongs to, applying the
// rollover-hour buffer: hours before rolloverHour count as the previous day.
// The result is truncated to midnight in t's location.
func EffectiveDate(t time.Time, rolloverHour int) time.Time {
	if t.Hour() < rolloverHour {
		t = t.AddDate(0, 0, -1)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayName returns the effective weekday name ("Wednesday", ...) for t.
func DayName(t time.Time, rolloverHour int) string {
	return EffectiveDate(t, rolloverHour).Weekday().String()
}

// Window is a 7-day cycle: Start and End are inclusive midnight-truncated
// dates with End = Start + 6 days.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether the midnight-truncated date d falls inside w.
func (w Window) Contains(d time.Time) bool {
	d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
	return !d.Before(w.Start) && !d.After(w.End)
}

// CurrentWindow computes the cycle window containing t's effective date.
// The window starts on the most recent occurrence of anchor on or before the
// effective date (distance 0-6 days back; an effective date falling exactly
// on the anchor weekday starts its own window). With previous set, both
// bounds shift back 7 days.
func CurrentWindow(t time.Time, rolloverHour int, anchor time.Weekday, previous bool) Window {
	eff := EffectiveDate(t, rolloverHour)
	back := (int(eff.Weekday()) - int(anchor) + 7) % 7
	start := eff.AddDate(0, 0, -back)
	if previous {
		start = start.AddDate(0, 0, -7)
	}
	return Window{Start: start, End: start.AddDate(0, 0, 6)}
}

// FormatRange renders the window as the token embedded in weekly note file
// names, e.g. "(Jan. 07 - Jan. 13, 2026)".
func FormatRange(w Window) string {
	return fmt.Sprintf("(%s. %02d - %s. %02d, %d)",
		w.Start.Month().String()[:3], w.Start.Day(),
		w.End.Month().String()[:3], w.End.Day(), w.End.Year())
}
