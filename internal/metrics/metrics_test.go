package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.EvaluationCompleted(time.Second, false)
		m.EvaluationFailed()
		m.RuleFailed("delivery")
		m.SetActiveAlerts(map[string]int{"high": 1})
		m.Delivered("log", 1, 1)
		m.SessionTriggered("morning_start")
	})
	assert.Nil(t, m.Registry())
}

func TestCounters(t *testing.T) {
	m := New()

	m.RuleFailed("vaccination")
	m.RuleFailed("vaccination")
	m.EvaluationCompleted(10*time.Millisecond, true)
	m.EvaluationFailed()
	m.Delivered("whatsapp", 3, 1)
	m.Delivered("whatsapp", 0, 0)
	m.SessionTriggered("evening_end")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ruleFailures.WithLabelValues("vaccination")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.evaluations.WithLabelValues("partial")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.evaluations.WithLabelValues("failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.deliveries.WithLabelValues("whatsapp", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deliveries.WithLabelValues("whatsapp", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionTriggers.WithLabelValues("evening_end")))
}

func TestActiveAlertsReset(t *testing.T) {
	m := New()

	m.SetActiveAlerts(map[string]int{"high": 2, "medium": 1})
	assert.Equal(t, 2, testutil.CollectAndCount(m.activeAlerts))

	m.SetActiveAlerts(map[string]int{"low": 4})
	assert.Equal(t, 1, testutil.CollectAndCount(m.activeAlerts))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.activeAlerts.WithLabelValues("low")))
}

func TestHandlerExposesNamespace(t *testing.T) {
	m := New()
	m.RuleFailed("low_stock")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `dairy_rule_failures_total{rule="low_stock"} 1`))
}
