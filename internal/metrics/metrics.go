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
	requests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signalpage_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"method", "route", "status"})

	latency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "signalpage_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	PagesGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signalpage_pages_generated_total",
		Help: "Signal pages generated.",
	})

	LLMFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signalpage_llm_failures_total",
		Help: "LLM calls that failed or returned unusable output, by task.",
	}, []string{"task"})

	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signalpage_billing_webhook_events_total",
		Help: "Payment webhook events by type and outcome.",
	}, []string{"type", "outcome"})

	NotificationDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signalpage_notification_deliveries_total",
		Help: "Out-of-app notification deliveries by channel and outcome.",
	}, []string{"channel", "outcome"})
)

// Gin records request count and latency per matched route.
func Gin() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		latency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
