package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// StreamClients tracks currently connected live-event clients (SSE + WS).
	StreamClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "stream_clients_connected",
		Help: "Currently connected live-event stream clients.",
	})

	// StreamEventsTotal counts events fanned out to stream clients.
	StreamEventsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stream_events_broadcast_total",
		Help: "Total events broadcast to stream clients.",
	})
)

// Init registers the metrics with the default registry. Call once at startup.
func Init() {
	prometheus.MustRegister(httpRequestsTotal, httpRequestDuration, StreamClients, StreamEventsTotal)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument records request totals and latency per route.
func Instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}
