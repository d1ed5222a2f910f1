package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/metrics"
)

// unmatchedRoute labels requests that hit no registered route, keeping
// scanner traffic from minting a series per URL.
const unmatchedRoute = "unmatched"

// Metrics observes request latency by method, route template and status.
// Websocket upgrades are skipped since their duration is the session length.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.IsWebsocket() {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metrics.APILatency.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
