package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for metrics collection
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method

		c.Next()

		duration := time.Since(start)
		status := strconv.Itoa(c.Writer.Status())
		metrics.RecordHTTPRequest(method, path, status, duration)
	}
}

// Timer measures one editor operation
type Timer struct {
	start      time.Time
	metrics    *Metrics
	collection string
	operation  string
}

// NewTimer creates a new timer
func NewTimer(metrics *Metrics, collection, operation string) *Timer {
	return &Timer{
		start:      time.Now(),
		metrics:    metrics,
		collection: collection,
		operation:  operation,
	}
}

// Stop stops the timer and records the operation outcome
func (t *Timer) Stop(outcome string) {
	if t.metrics == nil {
		return
	}
	t.metrics.RecordEdit(t.collection, t.operation, outcome, time.Since(t.start))
}
