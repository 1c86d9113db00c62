package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filesort/pkg/metrics"
)

// PrometheusMiddleware Prometheus监控中间件.
// endpoint 标签使用路由模板，静态资源统一记为 static，避免标签基数膨胀.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		metrics.ActiveConnections.Inc()
		defer metrics.ActiveConnections.Dec()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "static"
		}

		metrics.RequestCounter.WithLabelValues(c.Request.Method, endpoint).Inc()
		metrics.RequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}
