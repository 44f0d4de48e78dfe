package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"policyhub/internal/domain/numbering"
)

func TestMetrics_ObserveIssue(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveIssue("POL", numbering.Increment{Value: 1, Transition: numbering.TransitionInit}, 0.001)
	m.ObserveIssue("POL", numbering.Increment{Value: 2, Transition: numbering.TransitionIncrement}, 0.001)
	m.ObserveIssue("POL", numbering.Increment{Value: 1, Transition: numbering.TransitionWrap, WrapCount: 1}, 0.002)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Issued.WithLabelValues("POL", "init")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Issued.WithLabelValues("POL", "increment")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Wraps.WithLabelValues("POL")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.IssueLatency))
}

func TestMetrics_ObserveFailure(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveFailure("POL", "STORE_UNAVAILABLE")
	m.ObserveFailure("POL", "STORE_UNAVAILABLE")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Failures.WithLabelValues("POL", "STORE_UNAVAILABLE")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveIssue("POL", numbering.Increment{}, 0)
		m.ObserveFailure("POL", "X")
	})
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
