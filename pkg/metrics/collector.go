// Package metrics exposes Prometheus instrumentation for the SmartBudget server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	sessionOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_operations_total",
			Help: "Total session store operations labeled by operation and status",
		},
		[]string{"operation", "status"},
	)
	gateDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authgate_decisions_total",
			Help: "Auth gate decisions labeled by path and outcome",
		},
		[]string{"path", "decision"},
	)
	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Notifications emitted labeled by kind",
		},
		[]string{"kind"},
	)
	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "code"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by type and severity",
		},
		[]string{"type", "severity"},
	)
	sessionActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "session_active",
			Help: "1 while a session is active in this process, 0 when anonymous",
		},
	)
	changeEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "change_events_total",
			Help: "Change-notification events published labeled by topic",
		},
		[]string{"topic"},
	)
)

// RecordSessionOperation counts a restore/login/signup/logout outcome.
func RecordSessionOperation(operation, status string) {
	if operation == "" {
		operation = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	sessionOperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordGateDecision counts a render-or-redirect decision for a path.
func RecordGateDecision(path, decision string) {
	if path == "" {
		path = "unknown"
	}

	gateDecisionsTotal.WithLabelValues(path, decision).Inc()
}

// RecordNotification counts an emitted notification by kind.
func RecordNotification(kind string) {
	if kind == "" {
		kind = "unknown"
	}

	notificationsTotal.WithLabelValues(kind).Inc()
}

// RecordHTTPRequest observes one served request.
func RecordHTTPRequest(route, method, code string, duration time.Duration) {
	httpRequestDurationSeconds.WithLabelValues(route, method, code).Observe(duration.Seconds())
}

// RecordError increments error counters with metadata.
func RecordError(errType, severity string) {
	if errType == "" {
		errType = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(errType, severity).Inc()
}

// SetSessionActive flips the active-session gauge.
func SetSessionActive(active bool) {
	if active {
		sessionActive.Set(1)
		return
	}

	sessionActive.Set(0)
}

// RecordChangeEvent counts a published change event.
func RecordChangeEvent(topic string) {
	if topic == "" {
		topic = "unknown"
	}

	changeEventsTotal.WithLabelValues(topic).Inc()
}

// Handler returns the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
