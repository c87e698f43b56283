// Package window computes scrape window boundaries and identifiers.
package window

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Granularity selects the size of one fetch window.
type Granularity string

const (
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
)

// ErrInvalidGranularity is returned for any value other than day, week, or
// month.
var ErrInvalidGranularity = errors.New("granularity must be day, week, or month")

// Parse converts a config string to a Granularity.
func Parse(s string) (Granularity, error) {
	g := Granularity(strings.ToLower(strings.TrimSpace(s)))
	switch g {
	case Day, Week, Month:
		return g, nil
	}
	return "", fmt.Errorf("%w: got %q", ErrInvalidGranularity, s)
}

// Next returns the window boundary following cursor. The hour and minute
// are cleared so a window always begins at midnight in cursor's location.
func Next(cursor time.Time, g Granularity) (time.Time, error) {
	year, month, day := cursor.Date()
	loc := cursor.Location()
	switch g {
	case Month:
		return time.Date(year, month+1, 1, 0, 0, 0, 0, loc), nil
	case Week:
		return time.Date(year, month, day+7, 0, 0, 0, 0, loc), nil
	case Day:
		return time.Date(year, month, day+1, 0, 0, 0, 0, loc), nil
	}
	return time.Time{}, fmt.Errorf("%w: got %q", ErrInvalidGranularity, g)
}

// IsComplete reports whether the window starting at cursor lies wholly in
// the past: its next boundary is at or before now.
func IsComplete(cursor time.Time, g Granularity, now time.Time) (bool, error) {
	next, err := Next(cursor, g)
	if err != nil {
		return false, err
	}
	return !next.After(now), nil
}

// Token formats the compact window identifier used in fetch URLs:
// "jan.2007" for a month, "jan1.2007" for a week or day.
func Token(cursor time.Time, g Granularity) (string, error) {
	month := strings.ToLower(cursor.Format("Jan"))
	switch g {
	case Month:
		return fmt.Sprintf("%s.%d", month, cursor.Year()), nil
	case Week, Day:
		return fmt.Sprintf("%s%d.%d", month, cursor.Day(), cursor.Year()), nil
	}
	return "", fmt.Errorf("%w: got %q", ErrInvalidGranularity, g)
}

// DateAfter reports whether a's calendar date falls after b's, each read
// in its own location.
func DateAfter(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay > by
	}
	if am != bm {
		return am > bm
	}
	return ad > bd
}
