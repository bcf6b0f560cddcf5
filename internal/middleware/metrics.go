package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Session metrics
	sessionLoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"status"}, // status: success/failure/blocked
	)

	sessionLoginDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "session_login_duration_seconds",
			Help:    "Login request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	sessionForcedLogoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "session_forced_logouts_total",
			Help: "Total number of server-triggered session invalidations",
		},
	)

	routeResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "route_resolutions_total",
			Help: "Total number of route resolutions by outcome",
		},
		[]string{"decision"},
	)

	rateLimitHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "session_rate_limit_hits_total",
			Help: "Total number of rate limited login attempts",
		},
	)
)

// Metrics creates a Prometheus metrics middleware
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
	}
}

// RecordLoginAttempt records a login attempt metric
func RecordLoginAttempt(status string, duration time.Duration) {
	sessionLoginAttemptsTotal.WithLabelValues(status).Inc()
	sessionLoginDuration.Observe(duration.Seconds())
}

// RecordForcedLogout records a server-triggered session invalidation
func RecordForcedLogout() {
	sessionForcedLogoutsTotal.Inc()
}

// RecordRouteResolution records a route resolution outcome
func RecordRouteResolution(decision string) {
	routeResolutionsTotal.WithLabelValues(decision).Inc()
}

// RecordRateLimitHit records a rate limited login attempt
func RecordRateLimitHit() {
	rateLimitHitsTotal.Inc()
}
