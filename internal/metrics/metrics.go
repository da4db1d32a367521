package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskify_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskify_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	ActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "taskify_http_active_requests",
			Help: "Current number of active HTTP requests",
		},
	)

	// Store
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskify_store_operation_duration_seconds",
			Help:    "Duration of data access operations",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation", "collection"},
	)

	// Trackable items
	MutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskify_item_mutations_total",
			Help: "Total number of trackable item mutations",
		},
		[]string{"action", "kind", "result"}, // complete/skip/update/delete/add, task/habit, ok/error
	)

	ReconcileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "taskify_reconcile_duration_seconds",
			Help:    "Duration of building the trackable item list",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	ReconcileFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taskify_reconcile_failures_total",
			Help: "Total number of failed trackable item loads",
		},
	)

	SnapshotEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskify_snapshot_events_total",
			Help: "Snapshot cache hits, misses and drops",
		},
		[]string{"event"},
	)

	// Auth
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskify_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"status", "type"}, // success/failure, login/register/token
	)
)

// Middleware 记录请求数、耗时以及并发请求数
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ActiveRequests.Inc()
		defer ActiveRequests.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// TrackStoreOperation returns a func that records the elapsed time when called.
//
//	defer metrics.TrackStoreOperation("update", "tasks")()
func TrackStoreOperation(operation, collection string) func() {
	start := time.Now()
	return func() {
		StoreOperationDuration.WithLabelValues(operation, collection).Observe(time.Since(start).Seconds())
	}
}

// RecordMutation counts one coordinator action.
func RecordMutation(action, kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	MutationsTotal.WithLabelValues(action, kind, result).Inc()
}

// Handler exposes the default registry for scraping.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
