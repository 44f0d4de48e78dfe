// Package metrics exposes Prometheus instruments for number issuance.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"policyhub/internal/domain/numbering"
)

// Compile-time check that Metrics implements numbering.Recorder.
var _ numbering.Recorder = (*Metrics)(nil)

// Metrics provides observability for the numbering module.
type Metrics struct {
	// Issued numbers by product and counter transition
	Issued *prometheus.CounterVec

	// Overflow wraps by product
	Wraps *prometheus.CounterVec

	// Failed issue requests by product and error code
	Failures *prometheus.CounterVec

	// Latency of one issue request, store round trip included
	IssueLatency *prometheus.HistogramVec
}

// New registers the numbering metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Issued: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "policyhub_numbers_issued_total",
			Help: "Policy numbers issued by product and counter transition",
		}, []string{"product", "transition"}), // transition: init, increment, reset, wrap

		Wraps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "policyhub_counter_wraps_total",
			Help: "Counters that reached maxValue and wrapped to 1",
		}, []string{"product"}),

		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "policyhub_issue_failures_total",
			Help: "Failed number requests by product and error code",
		}, []string{"product", "code"}),

		IssueLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "policyhub_issue_duration_seconds",
			Help:    "Duration of next-number requests including the counter store round trip",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}, []string{"product"}),
	}
}

// ObserveIssue implements numbering.Recorder.
func (m *Metrics) ObserveIssue(productCode string, inc numbering.Increment, seconds float64) {
	if m == nil {
		return
	}
	m.Issued.WithLabelValues(productCode, string(inc.Transition)).Inc()
	if inc.Overflowed() {
		m.Wraps.WithLabelValues(productCode).Inc()
	}
	m.IssueLatency.WithLabelValues(productCode).Observe(seconds)
}

// ObserveFailure implements numbering.Recorder.
func (m *Metrics) ObserveFailure(productCode, code string) {
	if m != nil {
		m.Failures.WithLabelValues(productCode, code).Inc()
	}
}
