package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"tourbook/internal/obs"
)

// Logger emits one access log line per request through the shared event
// logger, so HTTP traffic and application events share a shape.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		obs.LogEvent(GetRequestID(c), "http", "request",
			fmt.Sprintf("method=%s path=%s status=%d latency_ms=%.3f ip=%s",
				c.Request.Method,
				c.Request.URL.Path,
				c.Writer.Status(),
				float64(time.Since(start).Microseconds())/1000.0,
				c.ClientIP(),
			))
	}
}
