package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scraper.
type Metrics struct {
	Registry        *prometheus.Registry
	WindowsTotal    *prometheus.CounterVec
	FetchDuration   prometheus.Histogram
	RowsTotal       prometheus.Counter
	RecordsAppended prometheus.Counter
	ErrorsTotal     *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	windows := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_windows_total",
			Help: "Total fetch windows processed by outcome.",
		},
		[]string{"status"},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_fetch_duration_seconds",
			Help:    "Page fetch latency per window.",
			Buckets: prometheus.DefBuckets,
		},
	)
	rows := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_rows_total",
			Help: "Total calendar rows fed to the extractor.",
		},
	)
	records := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_records_appended_total",
			Help: "Total event records appended to the catalog.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "Total scraper errors by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(windows, fetchDuration, rows, records, errorsTotal)

	return &Metrics{
		Registry:        registry,
		WindowsTotal:    windows,
		FetchDuration:   fetchDuration,
		RowsTotal:       rows,
		RecordsAppended: records,
		ErrorsTotal:     errorsTotal,
	}
}

// IncWindow increments the windows counter for a status label.
func (m *Metrics) IncWindow(status string) {
	if m == nil {
		return
	}
	m.WindowsTotal.WithLabelValues(status).Inc()
}

// ObserveFetchDuration records one page fetch latency.
func (m *Metrics) ObserveFetchDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

// IncRows increments the extracted rows counter.
func (m *Metrics) IncRows() {
	if m == nil {
		return
	}
	m.RowsTotal.Inc()
}

// IncRecords increments the appended records counter.
func (m *Metrics) IncRecords() {
	if m == nil {
		return
	}
	m.RecordsAppended.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
