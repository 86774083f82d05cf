package middleware

import (
	"strconv"
	"time"

	"github.com/SergeiKhy/shorturl/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics пишет длительность запроса в гистограмму по маршруту, методу и статусу
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		metrics.HTTPRequestDuration.WithLabelValues(
			routeName(c),
			c.Request.Method,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}
