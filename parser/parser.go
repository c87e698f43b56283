// Package parser extracts event records from rendered calendar table rows.
//
// Extraction is pure: each row maps to zero or one record plus an updated
// date-tracking state, and the caller decides what to persist.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-scrape-forex/models"
	"github.com/aluiziolira/go-scrape-forex/window"
)

// TimeKind tags the interpretation of a row's time cell.
type TimeKind int

const (
	// TimeMissing means the cell was empty; the row inherits the previous
	// row's time-of-day.
	TimeMissing TimeKind = iota
	// TimeExplicit is a concrete 12-hour clock reading.
	TimeExplicit
	// TimeAllDay covers the whole day. It resolves to 23:59:59 so the event
	// sorts no earlier than any other same-day event.
	TimeAllDay
	// TimeTentative has no scheduled moment yet. It resolves to 00:00:01.
	TimeTentative
)

// TimeOfDay is the classified value of a time cell.
type TimeOfDay struct {
	Kind   TimeKind
	Hour   int
	Minute int
}

var clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})(am|pm)$`)

// ClassifyTime resolves the text of a time cell into a tagged value.
func ClassifyTime(token string) (TimeOfDay, error) {
	token = strings.TrimSpace(token)
	switch {
	case token == "":
		return TimeOfDay{Kind: TimeMissing}, nil
	case strings.Contains(token, "Day"):
		return TimeOfDay{Kind: TimeAllDay}, nil
	case strings.Contains(token, "Data"), strings.Contains(token, "Tentative"):
		return TimeOfDay{Kind: TimeTentative}, nil
	}

	match := clockPattern.FindStringSubmatch(strings.ToLower(token))
	if match == nil {
		return TimeOfDay{}, fmt.Errorf("unrecognized time token %q", token)
	}
	hour, _ := strconv.Atoi(match[1])
	minute, _ := strconv.Atoi(match[2])
	if hour < 1 || hour > 12 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("clock out of range in %q", token)
	}
	hour = hour % 12
	if match[3] == "pm" {
		hour += 12
	}
	return TimeOfDay{Kind: TimeExplicit, Hour: hour, Minute: minute}, nil
}

// State carries the date context shared between consecutive rows of a
// window. Only the first row of each day carries a date header; later rows
// inherit it, along with the last resolved time-of-day.
type State struct {
	LastDate time.Time // zero until the first dated row is seen
}

// Session fixes the per-run parameters the extractor needs.
type Session struct {
	StartCursor time.Time      // records at or before this are already persisted
	Now         time.Time      // cutoff reference
	WindowStart time.Time      // supplies the year for the window's first date header
	DisplayZone *time.Location // zone the site renders dates in
	TargetZone  *time.Location // zone records are emitted in
}

// Action tells the driver what to do after extracting a row.
type Action int

const (
	// Skip drops the row and continues with the next one.
	Skip Action = iota
	// Emit persists the returned record.
	Emit
	// Stop ends the current window: the row is dated in the future and so
	// is everything after it.
	Stop
)

// dateLayout parses headers like "Sun Jan 1" once a year is prefixed.
const dateLayout = "2006,Mon Jan 2"

// ExtractRow reads one calendar table row. Errors are row-scoped: the
// returned state is still valid and the caller should log and move on.
func ExtractRow(row *goquery.Selection, st State, session Session) (*models.EventRecord, Action, State, error) {
	if label := cellText(row.Find("span.date")); label != "" {
		label = strings.ReplaceAll(label, "\n", "")
		year := session.WindowStart.Year()
		if !st.LastDate.IsZero() {
			// A day rollover from the previous date decides whether the
			// header crossed into a new year.
			next, err := window.Next(st.LastDate, window.Day)
			if err != nil {
				return nil, Skip, st, err
			}
			year = next.Year()
		}
		parsed, err := time.ParseInLocation(dateLayout, fmt.Sprintf("%d,%s", year, label), session.DisplayZone)
		if err != nil {
			return nil, Skip, st, fmt.Errorf("parse date header %q with year %d: %w", label, year, err)
		}
		st.LastDate = parsed
	}

	if token := fieldText(row, "time"); token != "" && !st.LastDate.IsZero() {
		resolved, err := ClassifyTime(token)
		if err != nil {
			return nil, Skip, st, err
		}
		switch resolved.Kind {
		case TimeAllDay:
			st.LastDate = withTime(st.LastDate, 23, 59, 59)
		case TimeTentative:
			st.LastDate = withTime(st.LastDate, 0, 0, 1)
		case TimeExplicit:
			st.LastDate = withTime(st.LastDate, resolved.Hour, resolved.Minute, 0)
		}
	}

	if st.LastDate.IsZero() {
		// No header seen yet and nothing inherited; the row cannot be dated.
		return nil, Skip, st, nil
	}
	if !st.LastDate.After(session.StartCursor) {
		return nil, Skip, st, nil
	}

	timestamp := st.LastDate.In(session.TargetZone)
	if window.DateAfter(timestamp, session.Now.In(session.TargetZone)) {
		return nil, Stop, st, nil
	}

	rec := &models.EventRecord{
		Timestamp: timestamp,
		Country:   fieldText(row, "currency"),
		Impact:    impactText(row),
		Title:     fieldText(row, "event"),
		Actual:    fieldText(row, "actual"),
		Forecast:  fieldText(row, "forecast"),
		Previous:  fieldText(row, "previous"),
	}
	return rec, Emit, st, nil
}

// fieldText reads a cell by its specific selector, falling back to the
// permissive one. A missing cell yields the empty string.
func fieldText(row *goquery.Selection, field string) string {
	cell := row.Find(fmt.Sprintf("td.calendar__cell.calendar__%s.%s", field, field))
	if cell.Length() == 0 {
		cell = row.Find(fmt.Sprintf("td.calendar__cell.calendar__%s", field))
	}
	return cellText(cell)
}

// impactText prefers the descriptive attribute of the nested impact icon
// over the cell's visible text.
func impactText(row *goquery.Selection) string {
	cell := row.Find("td.calendar__cell.calendar__impact.impact")
	if cell.Length() == 0 {
		cell = row.Find("td.calendar__cell.calendar__impact")
	}
	if cell.Length() == 0 {
		return ""
	}
	span := cell.Find("span").First()
	if title, ok := span.Attr("title"); ok {
		return title
	}
	return cellText(cell)
}

func cellText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(sel.First().Text())
}

func withTime(t time.Time, hour, minute, second int) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, hour, minute, second, 0, t.Location())
}
