// Package catalog persists the append-only event dataset, computes resume
// points over it, and removes duplicate rows after a session.
package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aluiziolira/go-scrape-forex/models"
)

// IOFaultError wraps a read or write failure on the catalog with the
// operation that hit it.
type IOFaultError struct {
	Op  string
	Err error
}

func (e IOFaultError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e IOFaultError) Unwrap() error {
	return e.Err
}

// Appender writes event records to the catalog in append mode. Rows are
// flushed per record so a crash loses at most the line being written.
type Appender struct {
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
}

// NewAppender opens (or creates) the catalog file for appending.
func NewAppender(filename string) (*Appender, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, IOFaultError{Op: "open catalog", Err: err}
	}

	return &Appender{
		file:   f,
		writer: csv.NewWriter(f),
	}, nil
}

// Append writes one record and flushes it to disk.
func (a *Appender) Append(rec *models.EventRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.writer.Write(rec.Fields()); err != nil {
		return IOFaultError{Op: "write catalog record", Err: err}
	}
	a.writer.Flush()
	if err := a.writer.Error(); err != nil {
		return IOFaultError{Op: "flush catalog record", Err: err}
	}
	return nil
}

// Close flushes and closes the file handle.
func (a *Appender) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.writer.Flush()
	if err := a.writer.Error(); err != nil {
		a.file.Close()
		return IOFaultError{Op: "flush catalog", Err: err}
	}
	if err := a.file.Close(); err != nil {
		return IOFaultError{Op: "close catalog", Err: err}
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return IOFaultError{Op: fmt.Sprintf("create directory %q", dir), Err: err}
	}
	return nil
}
