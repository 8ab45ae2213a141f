package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "citydiscover",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "citydiscover",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "citydiscover",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Upstream metrics
	UpstreamAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "citydiscover",
		Subsystem: "upstream",
		Name:      "attempts_total",
		Help:      "Upstream geodata attempts by server and outcome",
	}, []string{"server", "outcome"})

	UpstreamAttemptDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "citydiscover",
		Subsystem: "upstream",
		Name:      "attempt_duration_seconds",
		Help:      "Duration of a single upstream geodata attempt",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
	}, []string{"server"})

	RouteRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "citydiscover",
		Subsystem: "upstream",
		Name:      "route_requests_total",
		Help:      "Routing requests by requested mode and result",
	}, []string{"mode", "result"})

	RouteFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "citydiscover",
		Subsystem: "upstream",
		Name:      "route_fallbacks_total",
		Help:      "Routing requests retried with the default mode",
	}, []string{"mode"})

	// Viewport controller metrics
	ViewportFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "citydiscover",
		Subsystem: "viewport",
		Name:      "fetches_total",
		Help:      "Viewport fetch cycles by result (applied, stale, failed, skipped, zoom_gated)",
	}, []string{"result"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "citydiscover",
		Subsystem: "ws",
		Name:      "active_sessions",
		Help:      "Current number of active map sessions",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "citydiscover",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "citydiscover",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
