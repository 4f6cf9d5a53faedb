package prometheus

import (
	"strconv"
	"strings"
	"time"

	"github.com/turtacn/ibocheck/internal/application/diagnostics"
	"github.com/turtacn/ibocheck/internal/domain/orbital"
)

// ClassifierMetrics holds the toolkit's metrics.
type ClassifierMetrics struct {
	// Classification
	ClassificationsTotal   CounterVec
	ClassificationDuration HistogramVec
	OverflowOrbitals       GaugeVec
	OccupiedMarkedRydberg  GaugeVec

	// Synthesis
	SynthesisActionsTotal CounterVec

	// Diagnostics
	DiagnosticsRowsTotal CounterVec

	// Batch
	BatchFilesTotal CounterVec

	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec

	ErrorsTotal CounterVec
}

// Default buckets
var (
	DefaultClassifyDurationBuckets = []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1}
	DefaultHTTPDurationBuckets     = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
)

// NewClassifierMetrics registers every metric on collector.
func NewClassifierMetrics(collector MetricsCollector) *ClassifierMetrics {
	m := &ClassifierMetrics{}

	m.ClassificationsTotal = collector.RegisterCounter("classifications_total", "Orbital classifications by verdict", "verdict")
	m.ClassificationDuration = collector.RegisterHistogram("classification_duration_seconds", "Orbital classification duration", DefaultClassifyDurationBuckets)
	m.OverflowOrbitals = collector.RegisterGauge("overflow_orbitals", "Faithful Rydberg budget in excess of the virtual space", "element")
	m.OccupiedMarkedRydberg = collector.RegisterGauge("occupied_marked_rydberg", "Occupied orbitals selected as Rydberg by rank", "element")

	m.SynthesisActionsTotal = collector.RegisterCounter("synthesis_actions_total", "Heavy-element synthesis actions", "action")

	m.DiagnosticsRowsTotal = collector.RegisterCounter("diagnostics_rows_total", "Diagnostics rows recorded", "serenity_fails")

	m.BatchFilesTotal = collector.RegisterCounter("batch_files_total", "Orbital files processed in batch runs", "status")

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")

	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Errors by component and code", "component", "code")

	return m
}

// ObserveClassification records one classification of identifier.
func (m *ClassifierMetrics) ObserveClassification(identifier string, r *orbital.Result, d time.Duration) {
	m.ClassificationsTotal.WithLabelValues(r.Verdict()).Inc()
	m.ClassificationDuration.WithLabelValues().Observe(d.Seconds())
	id := strings.ToLower(identifier)
	m.OverflowOrbitals.WithLabelValues(id).Set(float64(r.Overflow))
	m.OccupiedMarkedRydberg.WithLabelValues(id).Set(float64(r.OccupiedMarkedRydberg))
}

// ObserveSynthesis counts one heavy-element action.
func (m *ClassifierMetrics) ObserveSynthesis(action string) {
	m.SynthesisActionsTotal.WithLabelValues(action).Inc()
}

// ObserveRow counts one stored diagnostics row.
func (m *ClassifierMetrics) ObserveRow(row diagnostics.Row) {
	m.DiagnosticsRowsTotal.WithLabelValues(strconv.FormatBool(row.SerenityFails)).Inc()
}

// ObserveBatchFile counts one batch input by outcome ("ok" or "failed").
func (m *ClassifierMetrics) ObserveBatchFile(status string) {
	m.BatchFilesTotal.WithLabelValues(status).Inc()
}

// RecordHTTPRequest records one served request.
func (m *ClassifierMetrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordError counts an error by component and error code.
func (m *ClassifierMetrics) RecordError(component, code string) {
	m.ErrorsTotal.WithLabelValues(component, code).Inc()
}
