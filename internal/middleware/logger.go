package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logger creates a logging middleware using zap
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		}
		if role, ok := c.Get(ContextKeyRole); ok {
			fields = append(fields, zap.String("role", role.(string)))
		}
		logger.Info("request", fields...)

		for _, e := range c.Errors {
			logger.Error("request error", zap.Error(e.Err), zap.String("path", path))
		}
	}
}
