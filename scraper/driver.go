// Package scraper fetches calendar windows and drives record extraction.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-scrape-forex/catalog"
	"github.com/aluiziolira/go-scrape-forex/config"
	"github.com/aluiziolira/go-scrape-forex/models"
	"github.com/aluiziolira/go-scrape-forex/parser"
	"github.com/aluiziolira/go-scrape-forex/window"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Driver walks fetch windows from the resume point to the present,
// appending accepted records to the catalog. One window is fetched and
// fully processed before the next begins.
type Driver struct {
	cfg      *config.Config
	fetcher  Fetcher
	appender *catalog.Appender
	errlog   *ErrorLog
	metrics  *Metrics

	gran    window.Granularity
	display *time.Location
	target  *time.Location
	seen    *lru.Cache[string, struct{}]
	now     func() time.Time
}

// NewDriver builds a driver from cfg and its collaborators. errlog and
// metrics may be nil.
func NewDriver(cfg *config.Config, fetcher Fetcher, appender *catalog.Appender, errlog *ErrorLog, metrics *Metrics) (*Driver, error) {
	gran, err := window.Parse(cfg.Granularity)
	if err != nil {
		return nil, err
	}
	display, err := cfg.DisplayLocation()
	if err != nil {
		return nil, err
	}
	target, err := cfg.TargetLocation()
	if err != nil {
		return nil, err
	}
	seen, err := lru.New[string, struct{}](cfg.DedupeMaxSize)
	if err != nil {
		return nil, fmt.Errorf("build duplicate guard: %w", err)
	}

	return &Driver{
		cfg:      cfg,
		fetcher:  fetcher,
		appender: appender,
		errlog:   errlog,
		metrics:  metrics,
		gran:     gran,
		display:  display,
		target:   target,
		seen:     seen,
		now:      time.Now,
	}, nil
}

// Run executes one scrape session. Window-scoped failures are logged to
// the side-channel and skipped; only catalog write faults abort the run.
// Cancellation takes effect between windows: the current window finishes
// before the loop stops. The fetcher is always closed on exit.
func (d *Driver) Run(ctx context.Context) (*models.ScrapeResult, error) {
	result := &models.ScrapeResult{
		StartTime:    d.now(),
		ErrorsByType: make(map[string]int),
	}
	defer func() { result.EndTime = d.now() }()
	defer func() {
		if err := d.fetcher.Close(); err != nil {
			slog.Error("close fetcher", slog.Any("error", err))
		}
	}()

	display := d.display
	if d.cfg.DetectTimezone {
		if loc, err := DetectDisplayZone(ctx, d.fetcher, d.cfg.BaseURL); err != nil {
			slog.Warn("timezone detection failed, using configured display zone",
				slog.Any("error", err))
		} else {
			display = loc
		}
	}

	start, err := catalog.ResumePoint(d.cfg.OutputFile, display)
	if err != nil {
		return result, err
	}
	cursor := start.In(display)
	result.StartCursor = cursor
	slog.Info("starting scrape session",
		slog.Time("resume_point", cursor),
		slog.String("granularity", string(d.gran)),
	)

	for {
		if ctx.Err() != nil {
			slog.Info("cancelled, stopping before next window")
			break
		}
		if window.DateAfter(cursor.In(d.target), d.now().In(d.target)) {
			slog.Info("reached current date, stopping")
			break
		}

		if err := d.processWindow(ctx, cursor, start, display, result); err != nil {
			return result, err
		}

		next, err := window.Next(cursor, d.gran)
		if err != nil {
			return result, err
		}
		cursor = next
	}
	return result, nil
}

func (d *Driver) processWindow(ctx context.Context, cursor, start time.Time, display *time.Location, result *models.ScrapeResult) error {
	token, err := window.Token(cursor, d.gran)
	if err != nil {
		return err
	}
	pageURL := fmt.Sprintf("%s/calendar?%s=%s", strings.TrimSuffix(d.cfg.BaseURL, "/"), d.gran, token)
	slog.Debug("fetching window", slog.String("url", pageURL))

	fetchStart := time.Now()
	markup, err := d.fetcher.Fetch(ctx, pageURL)
	d.metrics.ObserveFetchDuration(time.Since(fetchStart))
	if err != nil {
		d.skipWindow(result, token, err, "")
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		d.skipWindow(result, token, RowParseError{Window: token, Err: err}, "")
		return nil
	}

	table := doc.Find("table.calendar__table").First()
	if table.Length() == 0 {
		d.skipWindow(result, token, StructuralAbsenceError{Window: token, Missing: "calendar table"}, markup)
		return nil
	}

	rows := table.Find(`tr[class*="calendar__row"]`)
	if rows.Length() == 0 {
		// The table can legitimately hold zero rows; note it and proceed.
		slog.Warn("no calendar rows found", slog.String("window", token))
		if err := d.errlog.Record(token, "no calendar rows found", outerHTML(table)); err != nil {
			slog.Error("error log write failed", slog.Any("error", err))
		}
	}

	session := parser.Session{
		StartCursor: start,
		Now:         d.now(),
		WindowStart: cursor,
		DisplayZone: display,
		TargetZone:  d.target,
	}
	state := parser.State{}
	var fatal error
	rows.EachWithBreak(func(_ int, row *goquery.Selection) bool {
		result.RowsSeen++
		d.metrics.IncRows()

		rec, action, next, err := parser.ExtractRow(row, state, session)
		state = next
		if err != nil {
			d.recordError(result, token, RowParseError{Window: token, Err: err}, "")
			return true
		}
		switch action {
		case parser.Stop:
			return false
		case parser.Emit:
			if found, _ := d.seen.ContainsOrAdd(rec.Signature(), struct{}{}); found {
				return true
			}
			if err := d.appender.Append(rec); err != nil {
				fatal = err
				return false
			}
			result.RecordsAppended++
			d.metrics.IncRecords()
		}
		return true
	})
	if fatal != nil {
		d.recordError(result, token, fatal, "")
		return fatal
	}

	d.metrics.IncWindow("fetched")
	result.WindowsFetched++
	return nil
}

func (d *Driver) skipWindow(result *models.ScrapeResult, token string, err error, snippet string) {
	d.recordError(result, token, err, snippet)
	d.metrics.IncWindow("skipped")
	result.WindowsSkipped++
}

func (d *Driver) recordError(result *models.ScrapeResult, token string, err error, snippet string) {
	label := errorTypeLabel(err)
	result.ErrorCount++
	result.ErrorsByType[label]++
	d.metrics.IncError(label)
	slog.Error("window error",
		slog.String("window", token),
		slog.String("category", label),
		slog.Any("error", err),
	)
	if logErr := d.errlog.Record(token, err.Error(), snippet); logErr != nil {
		slog.Error("error log write failed", slog.Any("error", logErr))
	}
}

func outerHTML(sel *goquery.Selection) string {
	html, err := goquery.OuterHtml(sel)
	if err != nil {
		return ""
	}
	return html
}
