package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UnknownAction is the label recorded for ids that are not registered, so
// client-chosen strings never become label values.
const UnknownAction = "unknown"

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "actionwire",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"server", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "actionwire",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"server", "method", "path", "status"},
	)
	dispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "actionwire",
			Subsystem: "dispatch",
			Name:      "total",
			Help:      "Dispatched action requests by outcome.",
		},
		[]string{"action", "outcome"},
	)
	dispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "actionwire",
			Subsystem: "dispatch",
			Name:      "duration_seconds",
			Help:      "Time from request bytes to response bytes, in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"action", "outcome"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, dispatchTotal, dispatchDuration)
	})
}

func RecordHTTPRequest(server, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(server, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(server, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordDispatch counts one dispatch. action must already be a registered id
// or UnknownAction.
func RecordDispatch(action, outcome string, duration time.Duration) {
	RegisterMetrics()
	dispatchTotal.WithLabelValues(action, outcome).Inc()
	dispatchDuration.WithLabelValues(action, outcome).Observe(duration.Seconds())
}
