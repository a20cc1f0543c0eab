package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveExtraction("kep", nil, 10*time.Millisecond)
	m.ObserveExtraction("kep", errors.New("boom"), time.Millisecond)
	m.ObserveTable("kep", "default", "resolved")
	m.AddObservations("kep", "q", 4)
	m.AddObservations("kep", "q", 0)
	m.AddMissingLabels("kep", 2)
	m.ObserveSpecEvent("modify")

	if got := testutil.ToFloat64(m.ExtractionsTotal.WithLabelValues("kep", "error")); got != 1 {
		t.Errorf("error extractions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ObservationsTotal.WithLabelValues("kep", "q")); got != 4 {
		t.Errorf("observations = %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.MissingLabelsTotal.WithLabelValues("kep")); got != 2 {
		t.Errorf("missing labels = %v, want 2", got)
	}
	if n := testutil.CollectAndCount(m.ExtractionDuration); n != 1 {
		t.Errorf("duration series = %d, want 1", n)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveExtraction("kep", nil, time.Second)
	m.ObserveTable("kep", "default", "resolved")
	m.AddObservations("kep", "a", 1)
	m.AddMissingLabels("kep", 1)
	m.ObserveSpecEvent("create")
}
