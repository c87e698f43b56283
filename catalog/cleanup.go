package catalog

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Cleanup removes exact-duplicate lines (first occurrence kept) and lines
// that are blank except for the leading date. Surviving lines are copied
// verbatim to a temporary neighbor which atomically replaces the original;
// when nothing is marked the original file is left untouched. Returns the
// number of lines removed.
//
// Cleanup must not run concurrently with an active scrape session against
// the same catalog.
func Cleanup(path string) (int, error) {
	in, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open catalog: %w", err)
	}
	defer in.Close()

	tmpPath := path + ".bak"
	out, err := os.Create(tmpPath)
	if err != nil {
		return 0, IOFaultError{Op: "create cleanup temp file", Err: err}
	}

	var (
		writer  = bufio.NewWriter(out)
		reader  = bufio.NewReader(in)
		seen    = make(map[string]struct{})
		removed = 0
	)

	for {
		line, readErr := reader.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			out.Close()
			os.Remove(tmpPath)
			return 0, IOFaultError{Op: "read catalog", Err: readErr}
		}
		if line != "" {
			content := strings.TrimSuffix(line, "\n")
			if _, dup := seen[content]; dup || dateOnly(content) {
				removed++
			} else {
				seen[content] = struct{}{}
				if _, err := writer.WriteString(line); err != nil {
					out.Close()
					os.Remove(tmpPath)
					return 0, IOFaultError{Op: "write cleanup temp file", Err: err}
				}
			}
		}
		if readErr == io.EOF {
			break
		}
	}

	if err := writer.Flush(); err != nil {
		out.Close()
		os.Remove(tmpPath)
		return 0, IOFaultError{Op: "flush cleanup temp file", Err: err}
	}
	if err := out.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, IOFaultError{Op: "close cleanup temp file", Err: err}
	}

	if removed == 0 {
		os.Remove(tmpPath)
		return 0, nil
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return 0, IOFaultError{Op: "replace catalog", Err: err}
	}
	return removed, nil
}

// dateOnly reports whether the line carries a leading date and nothing
// else.
func dateOnly(line string) bool {
	fields, err := csv.NewReader(strings.NewReader(line)).Read()
	if err != nil || len(fields) < 2 || fields[0] == "" {
		return false
	}
	for _, field := range fields[1:] {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
