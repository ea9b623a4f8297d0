// Package metrics provides Prometheus instrumentation for the fraudwatch agent.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraudwatch",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fraudwatch",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// TransactionsScored counts scored transactions by severity band.
	TransactionsScored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraudwatch",
			Name:      "transactions_scored_total",
			Help:      "Total transactions scored, by severity.",
		},
		[]string{"severity"},
	)

	// ScoringDuration observes end-to-end scoring latency per transaction.
	ScoringDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fraudwatch",
		Name:      "scoring_duration_seconds",
		Help:      "Time to extract, score, and classify one transaction.",
		Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
	})

	// AlertDeliveries counts alert dispatch attempts by result.
	AlertDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraudwatch",
			Name:      "alert_deliveries_total",
			Help:      "Total alert sink deliveries by result.",
		},
		[]string{"result"},
	)

	// StreamMessages counts ingested stream messages by outcome.
	StreamMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraudwatch",
			Name:      "stream_messages_total",
			Help:      "Stream messages received, by outcome (scored, skipped, malformed).",
		},
		[]string{"outcome"},
	)

	// StreamConnections tracks currently open event-feed connections.
	StreamConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fraudwatch",
		Name:      "stream_connections",
		Help:      "Number of currently open event stream connections.",
	})

	// FeedbackRecords counts appended ground-truth labels by label value.
	FeedbackRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraudwatch",
			Name:      "feedback_records_total",
			Help:      "Total feedback labels recorded, by label.",
		},
		[]string{"label"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		TransactionsScored,
		ScoringDuration,
		AlertDeliveries,
		StreamMessages,
		StreamConnections,
		FeedbackRecords,
	)
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(), // Uses route pattern, not actual path (avoids cardinality explosion)
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus metrics HTTP handler for /metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// statusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
