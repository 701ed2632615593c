// Package prometheus registers the quark Prometheus collectors and provides
// the recorder wired into the HTTP adapter. Collectors register at import
// time via promauto; the metrics endpoint itself is started by the start
// command when enabled.
package prometheus

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quark",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Requests served, by method and final status code.",
	}, []string{"method", "status"})

	responseBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quark",
		Subsystem: "http",
		Name:      "response_body_bytes_total",
		Help:      "Total response body bytes written to clients.",
	})

	parseFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quark",
		Subsystem: "http",
		Name:      "request_parse_failures_total",
		Help:      "Requests rejected before a request value was produced, by failure kind.",
	}, []string{"kind"})

	connectionsAcceptedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quark",
		Subsystem: "http",
		Name:      "connections_accepted_total",
		Help:      "Client connections accepted.",
	})

	connectionsClosedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quark",
		Subsystem: "http",
		Name:      "connections_closed_total",
		Help:      "Client connections closed.",
	})

	activeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "quark",
		Subsystem: "http",
		Name:      "active_connections",
		Help:      "Currently active client connections.",
	})
)

// HTTPRecorder feeds the collectors above. It satisfies both
// adapter.MetricsRecorder and httpd.RequestMetrics.
type HTTPRecorder struct{}

func (HTTPRecorder) RecordConnectionAccepted() {
	connectionsAcceptedTotal.Inc()
}

func (HTTPRecorder) RecordConnectionClosed() {
	connectionsClosedTotal.Inc()
}

func (HTTPRecorder) SetActiveConnections(count int32) {
	activeConnections.Set(float64(count))
}

func (HTTPRecorder) RecordRequest(method string, status int) {
	requestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

func (HTTPRecorder) AddResponseBytes(n int64) {
	responseBytesTotal.Add(float64(n))
}

func (HTTPRecorder) RecordParseFailure(kind string) {
	parseFailuresTotal.WithLabelValues(kind).Inc()
}
