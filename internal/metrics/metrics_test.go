package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue sums the samples of a counter family whose labels include want.
func counterValue(t *testing.T, m *Metrics, family string, want map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)

	var total float64
	for _, f := range families {
		if f.GetName() != family {
			continue
		}
	next:
		for _, metric := range f.GetMetric() {
			labels := map[string]string{}
			for _, l := range metric.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue next
				}
			}
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}

func TestMetrics_ObserveEffect(t *testing.T) {
	t.Parallel()
	m := New()

	m.ObserveEffect("detector", "auto_exposure", StatusOK, 10*time.Millisecond)
	m.ObserveEffect("detector", "auto_exposure", StatusOK, 20*time.Millisecond)
	m.ObserveEffect("detector", "dark_current", StatusSkipped, 0)
	m.ObserveEffect("detector", "quantization", StatusError, time.Millisecond)

	assert.Equal(t, 2.0, counterValue(t, m, "lightpath_effect_applied_total",
		map[string]string{"kind": "auto_exposure", "status": StatusOK}))
	assert.Equal(t, 1.0, counterValue(t, m, "lightpath_effect_applied_total",
		map[string]string{"status": StatusSkipped}))
	assert.Equal(t, 4.0, counterValue(t, m, "lightpath_effect_applied_total",
		map[string]string{"element": "detector"}))
}

func TestMetrics_ObserveRun(t *testing.T) {
	t.Parallel()
	m := New()
	m.ObserveRun(StatusOK, time.Second)
	m.ObserveRun(StatusError, time.Second)
	m.ObserveRun(StatusOK, time.Second)

	assert.Equal(t, 2.0, counterValue(t, m, "lightpath_pipeline_runs_total", map[string]string{"status": StatusOK}))
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()
	m := New()
	m.ObserveRun(StatusOK, time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `lightpath_pipeline_runs_total{status="ok"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	t.Parallel()
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveEffect("a", "b", StatusOK, time.Second)
		m.ObserveRun(StatusOK, time.Second)
	})
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNew_IndependentRegistries(t *testing.T) {
	t.Parallel()
	a, b := New(), New()
	a.ObserveRun(StatusOK, time.Second)
	assert.Equal(t, 0.0, counterValue(t, b, "lightpath_pipeline_runs_total", nil))
}
