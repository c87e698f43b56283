package scraper

import (
	"errors"
	"fmt"

	"github.com/aluiziolira/go-scrape-forex/catalog"
)

// TransientFetchError indicates a page load failure. The window is skipped
// and the session continues.
type TransientFetchError struct {
	URL string
	Err error
}

func (e TransientFetchError) Error() string {
	return fmt.Sprintf("transient fetch %s: %v", e.URL, e.Err)
}

func (e TransientFetchError) Unwrap() error {
	return e.Err
}

// StructuralAbsenceError indicates the calendar table (or another expected
// element) was missing from a fetched page.
type StructuralAbsenceError struct {
	Window  string
	Missing string
}

func (e StructuralAbsenceError) Error() string {
	return fmt.Sprintf("no %s found for %s", e.Missing, e.Window)
}

// RowParseError indicates a row- or date-level parse failure. The row is
// skipped and the session continues.
type RowParseError struct {
	Window string
	Err    error
}

func (e RowParseError) Error() string {
	return fmt.Sprintf("parse row in %s: %v", e.Window, e.Err)
}

func (e RowParseError) Unwrap() error {
	return e.Err
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var fetch TransientFetchError
	if errors.As(err, &fetch) {
		return "transient_fetch"
	}
	var absence StructuralAbsenceError
	if errors.As(err, &absence) {
		return "structural_absence"
	}
	var parse RowParseError
	if errors.As(err, &parse) {
		return "parse"
	}
	var ioFault catalog.IOFaultError
	if errors.As(err, &ioFault) {
		return "io"
	}
	return "other"
}
