// Package timewindow holds the calendar-date arithmetic shared by the status
// engine, ingestion and device sync. Every date in the system is a plain
// YYYY-MM-DD string; comparisons never look at a time of day.
package timewindow

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for every calendar date.
const DateLayout = "2006-01-02"

// Clock supplies the current instant. Tests swap in a Fixed clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns the wall clock.
func System() Clock { return systemClock{} }

// Fixed always reports the same instant.
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f) }

// ParseDate parses a YYYY-MM-DD string into a UTC midnight value.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q is not in YYYY-MM-DD format", s)
	}
	return d, nil
}

// MustDate is ParseDate for literals in tests and seed data.
func MustDate(s string) time.Time {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FormatDate renders d as YYYY-MM-DD.
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// AddDays shifts a calendar date by n days.
func AddDays(d time.Time, n int) time.Time {
	return d.AddDate(0, 0, n)
}

// GraceEnd is the last date still accepted after end. Grace only ever
// extends the upper bound; negative values are treated as zero.
func GraceEnd(end time.Time, graceDays int) time.Time {
	if graceDays < 0 {
		graceDays = 0
	}
	return AddDays(end, graceDays)
}

// Within reports start <= d <= end, inclusive on both sides.
func Within(d, start, end time.Time) bool {
	return !d.Before(start) && !d.After(end)
}

// Location resolves an IANA zone name, falling back to UTC when the name is
// empty or unknown.
func Location(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DateIn truncates an instant to its calendar date as seen in tz.
func DateIn(t time.Time, tz string) time.Time {
	local := t.In(Location(tz))
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// Today is the current calendar date in tz.
func Today(c Clock, tz string) time.Time {
	return DateIn(c.Now(), tz)
}

// InRange reports whether a YYYY-MM-DD string falls inside an optional
// inclusive range. Empty bounds are open. Bounds are compared as strings,
// which is exact for the fixed-width layout.
func InRange(date, start, end string) bool {
	if start != "" && date < start {
		return false
	}
	if end != "" && date > end {
		return false
	}
	return true
}
