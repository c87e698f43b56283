package catalog

import (
	"bufio"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aluiziolira/go-scrape-forex/models"
)

// EpochStart returns the first scrapeable datetime: the calendar source
// carries no data before January 1, 2007.
func EpochStart(loc *time.Location) time.Time {
	return time.Date(2007, time.January, 1, 0, 0, 0, 0, loc)
}

// ResumePoint returns the cursor a new session should resume from: the
// timestamp of the catalog's last complete record line, or the epoch start
// in fallback when the catalog is missing or holds no parseable record.
// Anything after the last parseable line (a truncated partial write, say)
// is cut off so the next append starts on a clean line.
//
// The physically-last line is trusted to carry the latest timestamp; the
// appender only ever writes forward of the session cursor, so this holds
// unless the file is edited externally.
func ResumePoint(path string, fallback *time.Location) (time.Time, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return EpochStart(fallback), nil
		}
		return time.Time{}, IOFaultError{Op: "open catalog", Err: err}
	}
	defer f.Close()

	var (
		offset   int64
		lastTS   time.Time
		lastEnd  int64 = -1
		tsLength       = len(models.TimestampLayout)
	)

	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadString('\n')
		if strings.HasSuffix(line, "\n") && len(line) > tsLength {
			if ts, perr := time.Parse(models.TimestampLayout, line[:tsLength]); perr == nil {
				lastTS = ts
				lastEnd = offset + int64(len(line))
			}
		}
		offset += int64(len(line))
		if err == io.EOF {
			break
		}
		if err != nil {
			return time.Time{}, IOFaultError{Op: "scan catalog", Err: err}
		}
	}

	if lastEnd == -1 {
		if err := f.Truncate(0); err != nil {
			return time.Time{}, IOFaultError{Op: "truncate malformed catalog", Err: err}
		}
		return EpochStart(fallback), nil
	}
	if lastEnd < offset {
		if err := f.Truncate(lastEnd); err != nil {
			return time.Time{}, IOFaultError{Op: "truncate catalog tail", Err: err}
		}
	}
	return lastTS, nil
}
