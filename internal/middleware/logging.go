package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouteKey ключ контекста, под которым диспетчер сохраняет имя маршрута
const RouteKey = "route"

// unmatchedRoute имя маршрута для запросов, не попавших ни в один шаблон
const unmatchedRoute = "unmatched"

// RequestLogger логирует каждый запрос после обработки
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", routeName(c)),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Error("Request", fields...)
		case status >= 400:
			logger.Warn("Request", fields...)
		default:
			logger.Info("Request", fields...)
		}
	}
}

func routeName(c *gin.Context) string {
	if route := c.GetString(RouteKey); route != "" {
		return route
	}
	return unmatchedRoute
}
