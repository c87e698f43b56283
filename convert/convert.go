// Package convert turns the catalog CSV into a JSON event array.
package convert

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const columnCount = 7

// Event is one converted record. Field order fixes the key order in the
// serialized objects.
type Event struct {
	Date     string `json:"date"`
	Country  string `json:"country"`
	Impact   string `json:"impact"`
	Title    string `json:"title"`
	Actual   string `json:"actual"`
	Forecast string `json:"forecast"`
	Previous string `json:"previous"`
}

// Stats summarizes a completed conversion for the CLI.
type Stats struct {
	Records     int
	OutputPath  string
	InputBytes  int64
	OutputBytes int64
}

// DefaultOutputPath swaps the input extension for .json.
func DefaultOutputPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".json"
}

// Convert reads the catalog CSV at inputPath and writes a JSON array to
// outputPath (derived from inputPath when empty). Short rows are padded to
// seven columns, cells are trimmed, and fully-blank rows are dropped. The
// conversion is stateless: it never modifies the input and creates no
// output when the input cannot be read.
func Convert(inputPath, outputPath string, pretty bool) (*Stats, error) {
	in, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	if outputPath == "" {
		outputPath = DefaultOutputPath(inputPath)
	}

	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1

	events := make([]Event, 0)
	for rowNum := 1; ; rowNum++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read input at row %d: %w", rowNum, err)
		}

		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
		if blankRow(row) {
			continue
		}
		for len(row) < columnCount {
			row = append(row, "")
		}
		events = append(events, Event{
			Date:     row[0],
			Country:  row[1],
			Impact:   row[2],
			Title:    row[3],
			Actual:   row[4],
			Forecast: row[5],
			Previous: row[6],
		})
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	writer := bufio.NewWriter(out)

	encoder := json.NewEncoder(writer)
	encoder.SetEscapeHTML(false)
	if pretty {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(events); err != nil {
		out.Close()
		return nil, fmt.Errorf("write output: %w", err)
	}
	if err := writer.Flush(); err != nil {
		out.Close()
		return nil, fmt.Errorf("flush output: %w", err)
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("close output: %w", err)
	}

	stats := &Stats{
		Records:    len(events),
		OutputPath: outputPath,
	}
	if info, err := os.Stat(inputPath); err == nil {
		stats.InputBytes = info.Size()
	}
	if info, err := os.Stat(outputPath); err == nil {
		stats.OutputBytes = info.Size()
	}
	return stats, nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
