// Package models defines data structures for the scraper.
package models

import (
	"strings"
	"time"
)

// TimestampLayout is the layout of the leading catalog column. The encoded
// form is always 25 bytes, so the resume reader can slice it off a line
// without scanning for a delimiter.
const TimestampLayout = "2006-01-02 15:04:05-07:00"

// EventRecord represents one economic-calendar event. The timestamp is
// always concrete (never a bare date) and expressed in the target time
// zone; every other field defaults to the empty string.
type EventRecord struct {
	Timestamp time.Time `json:"date"`
	Country   string    `json:"country"`
	Impact    string    `json:"impact"`
	Title     string    `json:"title"`
	Actual    string    `json:"actual"`
	Forecast  string    `json:"forecast"`
	Previous  string    `json:"previous"`
}

// Fields returns the CSV field tuple in catalog column order.
func (e *EventRecord) Fields() []string {
	return []string{
		e.Timestamp.Format(TimestampLayout),
		e.Country,
		e.Impact,
		e.Title,
		e.Actual,
		e.Forecast,
		e.Previous,
	}
}

// Signature is a stable key for the exact field tuple, used by the
// in-session duplicate guard.
func (e *EventRecord) Signature() string {
	return strings.Join(e.Fields(), "\x1f")
}

// ScrapeResult holds the overall result of a scraping session.
type ScrapeResult struct {
	StartTime       time.Time
	EndTime         time.Time
	StartCursor     time.Time
	WindowsFetched  int
	WindowsSkipped  int
	RowsSeen        int
	RecordsAppended int
	ErrorCount      int
	ErrorsByType    map[string]int
}
