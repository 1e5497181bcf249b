package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "talentflow_http_requests_total",
		Help: "HTTP requests by route template and status code",
	}, []string{"route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "talentflow_http_request_duration_seconds",
		Help:    "HTTP request latency by route template",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

// observe counts requests and logs them at debug level.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
		requestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
		s.log.Debug("request", "method", c.Request.Method, "route", route, "status", status, "elapsed", elapsed)
	}
}
