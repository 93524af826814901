// Package dates normalises the session timestamps returned by the upstream
// LMS. The upstream format has drifted over the years, so parsing tries a
// fixed list of known layouts and the first match wins.
package dates

import (
	"strings"
	"time"
)

// Canonical is the display layout used everywhere a timestamp reaches the
// caller: day-month-year, 24-hour clock, zero padded.
const Canonical = "02-01-2006 15:04:05"

// Day is the calendar-date layout used for request filters.
const Day = "2006-01-02"

// layouts is ordered: more specific separators first so the slash and dash
// variants cannot shadow each other.
var layouts = []string{
	"02/01/2006, 15:04:05",
	Canonical,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
	"02/01/2006",
	Day,
}

// Parse attempts each known layout in order. It reports false when no
// layout matches; that is missing data, not an error.
func Parse(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Format renders an instant in the canonical display layout.
func Format(t time.Time) string {
	return t.Format(Canonical)
}

// End derives a session end from its start plus a duration in whole
// minutes. Negative durations are treated as zero.
func End(start time.Time, minutes int) time.Time {
	if minutes < 0 {
		minutes = 0
	}
	return start.Add(time.Duration(minutes) * time.Minute)
}

// SameDay reports whether the instant falls on the given YYYY-MM-DD
// calendar date. Time of day is ignored.
func SameDay(t time.Time, day string) bool {
	return t.Format(Day) == day
}

// ValidDay reports whether the raw value is a well-formed YYYY-MM-DD date.
func ValidDay(raw string) bool {
	_, err := time.Parse(Day, raw)
	return err == nil
}
