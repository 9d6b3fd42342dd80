// Package metrics exposes the service's Prometheus collectors. A nil *Metrics
// is valid and records nothing, so components can run without a registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dairy"

// Metrics groups the collectors registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	evaluations        *prometheus.CounterVec
	evaluationDuration prometheus.Histogram
	ruleFailures       *prometheus.CounterVec
	activeAlerts       *prometheus.GaugeVec
	deliveries         *prometheus.CounterVec
	sessionTriggers    *prometheus.CounterVec
}

// New builds the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Alert evaluation cycles by outcome.",
		}, []string{"outcome"}),
		evaluationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "Duration of alert evaluation cycles.",
			Buckets:   prometheus.DefBuckets,
		}),
		ruleFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_failures_total",
			Help:      "Rule evaluations that returned an error or panicked.",
		}, []string{"rule"}),
		activeAlerts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_alerts",
			Help:      "Alerts in the current feed by priority.",
		}, []string{"priority"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Notification deliveries per recipient by channel and status.",
		}, []string{"channel", "status"}),
		sessionTriggers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_triggers_total",
			Help:      "Milking session notifications fired.",
		}, []string{"trigger"}),
	}

	m.registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{Namespace: namespace}),
		m.evaluations,
		m.evaluationDuration,
		m.ruleFailures,
		m.activeAlerts,
		m.deliveries,
		m.sessionTriggers,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// EvaluationCompleted records one cycle. Partial cycles had at least one
// failing rule.
func (m *Metrics) EvaluationCompleted(elapsed time.Duration, partial bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if partial {
		outcome = "partial"
	}
	m.evaluations.WithLabelValues(outcome).Inc()
	m.evaluationDuration.Observe(elapsed.Seconds())
}

// EvaluationFailed records a cycle that produced no feed update.
func (m *Metrics) EvaluationFailed() {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues("failed").Inc()
}

// RuleFailed counts an isolated rule failure.
func (m *Metrics) RuleFailed(rule string) {
	if m == nil {
		return
	}
	m.ruleFailures.WithLabelValues(rule).Inc()
}

// SetActiveAlerts replaces the per-priority gauge values.
func (m *Metrics) SetActiveAlerts(byPriority map[string]int) {
	if m == nil {
		return
	}
	m.activeAlerts.Reset()
	for priority, n := range byPriority {
		m.activeAlerts.WithLabelValues(priority).Set(float64(n))
	}
}

// Delivered adds per-recipient delivery outcomes for a channel.
func (m *Metrics) Delivered(channel string, sent, failed int) {
	if m == nil {
		return
	}
	if sent > 0 {
		m.deliveries.WithLabelValues(channel, "sent").Add(float64(sent))
	}
	if failed > 0 {
		m.deliveries.WithLabelValues(channel, "failed").Add(float64(failed))
	}
}

// SessionTriggered counts a fired session notification.
func (m *Metrics) SessionTriggered(trigger string) {
	if m == nil {
		return
	}
	m.sessionTriggers.WithLabelValues(trigger).Inc()
}
