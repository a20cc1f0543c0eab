// Package metrics provides Prometheus metrics for bulletin extraction.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the collectors. A nil *Metrics records nothing, so callers
// need not check whether metrics are enabled.
type Metrics struct {
	ExtractionsTotal   *prometheus.CounterVec
	ExtractionDuration *prometheus.HistogramVec
	TablesTotal        *prometheus.CounterVec
	ObservationsTotal  *prometheus.CounterVec
	MissingLabelsTotal *prometheus.CounterVec
	SpecEventsTotal    *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ExtractionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kep_extractions_total",
				Help: "Total number of bulletin extractions",
			},
			[]string{"spec", "status"},
		),
		ExtractionDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kep_extraction_duration_seconds",
				Help:    "Time taken to extract one bulletin",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"spec"},
		),
		TablesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kep_tables_total",
				Help: "Tables found, by resolution outcome",
			},
			[]string{"spec", "definition", "outcome"},
		),
		ObservationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kep_observations_total",
				Help: "Observations emitted, by frequency",
			},
			[]string{"spec", "freq"},
		),
		MissingLabelsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kep_missing_labels_total",
				Help: "Required labels not found in a bulletin",
			},
			[]string{"spec"},
		),
		SpecEventsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kep_spec_events_total",
				Help: "Specification file changes seen by the watcher",
			},
			[]string{"event"},
		),
	}
}

// ObserveExtraction records one finished extraction.
func (m *Metrics) ObserveExtraction(spec string, err error, d time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ExtractionsTotal.WithLabelValues(spec, status).Inc()
	m.ExtractionDuration.WithLabelValues(spec).Observe(d.Seconds())
}

// ObserveTable records the outcome of one table.
func (m *Metrics) ObserveTable(spec, definition, outcome string) {
	if m == nil {
		return
	}
	m.TablesTotal.WithLabelValues(spec, definition, outcome).Inc()
}

// AddObservations counts emitted observations of one frequency.
func (m *Metrics) AddObservations(spec, freq string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.ObservationsTotal.WithLabelValues(spec, freq).Add(float64(n))
}

// AddMissingLabels counts required labels that were not found.
func (m *Metrics) AddMissingLabels(spec string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.MissingLabelsTotal.WithLabelValues(spec).Add(float64(n))
}

// ObserveSpecEvent counts a specification reload or removal.
func (m *Metrics) ObserveSpecEvent(event string) {
	if m == nil {
		return
	}
	m.SpecEventsTotal.WithLabelValues(event).Inc()
}
