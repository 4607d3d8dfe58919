package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HttpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	HttpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	// incremented after the mutation's DB transaction commits
	LedgerMutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_mutations_total",
		Help: "Committed ledger mutations by entity and action.",
	}, []string{"entity", "action"})

	OutboxPublish = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_publish_total",
		Help: "Ledger event publish attempts by result.",
	}, []string{"status"})
)

func init() {
	prometheus.MustRegister(HttpRequests, HttpDuration, LedgerMutations, OutboxPublish)
}

func RecordLedgerMutation(entity string, action string) {
	LedgerMutations.WithLabelValues(entity, action).Inc()
}

func RecordOutboxPublish(status string, n int) {
	if n <= 0 {
		return
	}
	OutboxPublish.WithLabelValues(status).Add(float64(n))
}

// GinMiddleware records request count and latency. Unmatched routes share one label.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		HttpRequests.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		HttpDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}
