// Package observability provides Prometheus metrics for the ingest and
// transformation passes.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the pipeline's Prometheus collectors. A nil *Metrics is valid
// and records nothing, so callers never need to guard instrumentation sites.
type Metrics struct {
	rowsLoaded   *prometheus.CounterVec
	rowsSkipped  *prometheus.CounterVec
	rowsFailed   *prometheus.CounterVec
	rowsEmitted  *prometheus.GaugeVec
	passDuration *prometheus.HistogramVec
	runsTotal    *prometheus.CounterVec
}

// NewMetrics creates the pipeline collectors and registers them with the
// provided registerer.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		rowsLoaded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medlake_ingest_documents_loaded_total",
				Help: "Raw documents loaded into the store, by source",
			},
			[]string{"source"},
		),
		rowsSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medlake_ingest_documents_skipped_total",
				Help: "Raw documents skipped as already-loaded duplicates, by source",
			},
			[]string{"source"},
		),
		rowsFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medlake_ingest_documents_failed_total",
				Help: "Raw documents that failed to parse or insert, by source",
			},
			[]string{"source"},
		),
		rowsEmitted: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "medlake_transform_rows",
				Help: "Rows written by the most recent rebuild of each derived table",
			},
			[]string{"table"},
		),
		passDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "medlake_pass_duration_seconds",
				Help:    "Duration of each transformation pass",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
			},
			[]string{"pass"},
		),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medlake_pipeline_runs_total",
				Help: "Completed pipeline runs, by outcome",
			},
			[]string{"outcome"},
		),
	}

	collectors := []prometheus.Collector{
		m.rowsLoaded, m.rowsSkipped, m.rowsFailed,
		m.rowsEmitted, m.passDuration, m.runsTotal,
	}
	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordLoaded counts documents loaded from a source ("messages" or "detections").
func (m *Metrics) RecordLoaded(source string, n int) {
	if m == nil {
		return
	}
	m.rowsLoaded.WithLabelValues(source).Add(float64(n))
}

// RecordSkipped counts duplicate documents skipped for a source.
func (m *Metrics) RecordSkipped(source string, n int) {
	if m == nil {
		return
	}
	m.rowsSkipped.WithLabelValues(source).Add(float64(n))
}

// RecordFailed counts documents that failed to load for a source.
func (m *Metrics) RecordFailed(source string, n int) {
	if m == nil {
		return
	}
	m.rowsFailed.WithLabelValues(source).Add(float64(n))
}

// RecordTableRows records the row count produced by a table rebuild.
func (m *Metrics) RecordTableRows(table string, n int) {
	if m == nil {
		return
	}
	m.rowsEmitted.WithLabelValues(table).Set(float64(n))
}

// RecordPassDuration records how long a transformation pass took.
func (m *Metrics) RecordPassDuration(pass string, seconds float64) {
	if m == nil {
		return
	}
	m.passDuration.WithLabelValues(pass).Observe(seconds)
}

// RecordRun counts a finished pipeline run with its outcome ("success" or "failure").
func (m *Metrics) RecordRun(outcome string) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(outcome).Inc()
}
