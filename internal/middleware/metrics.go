package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rhyrak/allston-schedule/internal/metrics"
)

// Metrics records one observation per request, labelled by route.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
