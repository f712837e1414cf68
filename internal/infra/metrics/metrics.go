// Package metrics defines the Prometheus collectors of the gateway client and
// the static web server.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "underwritepro"

// GatewayMetrics counts backend calls made through the gateway client.
// A nil *GatewayMetrics records nothing.
type GatewayMetrics struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	unauthorized prometheus.Counter
}

// NewGatewayMetrics creates the gateway collectors and registers them with reg.
func NewGatewayMetrics(reg prometheus.Registerer) *GatewayMetrics {
	m := &GatewayMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Backend requests by method and status class.",
		}, []string{"method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Backend request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		unauthorized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "forced_logouts_total",
			Help:      "Responses with status 401 that cleared the session.",
		}),
	}

	reg.MustRegister(m.requests, m.duration, m.unauthorized)

	return m
}

// ObserveResponse records a completed request. A zero status marks a transport error.
func (m *GatewayMetrics) ObserveResponse(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}

	m.requests.WithLabelValues(method, statusClass(status)).Inc()
	m.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObserveForcedLogout records a 401 that cleared the session.
func (m *GatewayMetrics) ObserveForcedLogout() {
	if m == nil {
		return
	}

	m.unauthorized.Inc()
}

// WebMetrics counts responses of the static web server.
// A nil *WebMetrics records nothing.
type WebMetrics struct {
	responses *prometheus.CounterVec
}

// NewWebMetrics creates the web server collectors and registers them with reg.
func NewWebMetrics(reg prometheus.Registerer) *WebMetrics {
	m := &WebMetrics{
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webapp",
			Name:      "responses_total",
			Help:      "Static responses by kind (asset, index, not_found).",
		}, []string{"kind"}),
	}

	reg.MustRegister(m.responses)

	return m
}

// ObserveResponse records one response of the given kind.
func (m *WebMetrics) ObserveResponse(kind string) {
	if m == nil {
		return
	}

	m.responses.WithLabelValues(kind).Inc()
}

func statusClass(status int) string {
	if status <= 0 {
		return "error"
	}

	return strconv.Itoa(status/100) + "xx"
}
