package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medrec-api/pkg/logger"
)

// RequestLogger logs one line per request with method, path, status
// and latency.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Info("request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client", c.ClientIP(),
		)
	}
}
