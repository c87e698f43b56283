package scraper

import (
	"bufio"
	"fmt"
	"os"
	"sync"
)

// snippetLimit caps the markup snapshot stored per entry.
const snippetLimit = 2000

// ErrorLog is the append-only error side-channel. Each entry records a
// context, a message, and optionally a capped markup snapshot for
// diagnosis. A nil *ErrorLog discards everything.
type ErrorLog struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
}

// NewErrorLog opens (or creates) the side-channel file for appending.
func NewErrorLog(path string) (*ErrorLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open error log: %w", err)
	}
	return &ErrorLog{
		file:   f,
		writer: bufio.NewWriter(f),
	}, nil
}

// Record appends one entry.
func (l *ErrorLog) Record(context, message, snippet string) error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.writer, "%s: %s\n", context, message)
	if snippet != "" {
		if len(snippet) > snippetLimit {
			snippet = snippet[:snippetLimit]
		}
		fmt.Fprintf(l.writer, "snapshot:\n%s\n---\n", snippet)
	}
	return l.writer.Flush()
}

// Close flushes and closes the underlying file.
func (l *ErrorLog) Close() error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.writer.Flush(); err != nil {
		l.file.Close()
		return fmt.Errorf("flush error log: %w", err)
	}
	return l.file.Close()
}
