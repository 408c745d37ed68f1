package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tms-platform/tracking-service/pkg/metrics"
)

// MetricsMiddleware creates middleware that records HTTP metrics
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip metrics endpoint to avoid recursion
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		// Track in-flight requests
		m.IncrementHTTPRequestsInFlight()
		defer m.DecrementHTTPRequestsInFlight()

		start := time.Now()

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		method := c.Request.Method
		path := c.FullPath() // Use route pattern, not actual path

		// If no route matched, use the raw path
		if path == "" {
			path = c.Request.URL.Path
		}

		m.RecordHTTPRequest(method, path, status, duration)
	}
}

// MetricsEndpoint returns a handler for the /metrics endpoint
func MetricsEndpoint(m *metrics.Metrics) gin.HandlerFunc {
	handler := m.Handler()
	return func(c *gin.Context) {
		handler.ServeHTTP(c.Writer, c.Request)
	}
}

// BusinessMetrics provides helpers for recording business-specific metrics
type BusinessMetrics struct {
	metrics *metrics.Metrics
}

// NewBusinessMetrics creates a new BusinessMetrics helper
func NewBusinessMetrics(m *metrics.Metrics) *BusinessMetrics {
	return &BusinessMetrics{metrics: m}
}

// RecordEventIngested records an ingested scan event
func (b *BusinessMetrics) RecordEventIngested(eventType string) {
	b.metrics.RecordEventIngested(eventType)
}

// RecordEventRejected records a rejected scan event
func (b *BusinessMetrics) RecordEventRejected(eventType, reason string) {
	b.metrics.RecordEventRejected(eventType, reason)
}

// RecordLegAdvance records a route leg advancement
func (b *BusinessMetrics) RecordLegAdvance() {
	b.metrics.RecordLegAdvance()
}

// RecordMovementPosted records posted inventory movements
func (b *BusinessMetrics) RecordMovementPosted(direction string, count int) {
	b.metrics.RecordMovementPosted(direction, count)
}

// RecordTimelineProjection records a served timeline projection
func (b *BusinessMetrics) RecordTimelineProjection(status string) {
	b.metrics.RecordTimelineProjection(status)
}

// RecordCircuitBreakerState records circuit breaker state
func (b *BusinessMetrics) RecordCircuitBreakerState(name string, state int) {
	b.metrics.SetCircuitBreakerState(name, state)
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (b *BusinessMetrics) RecordCircuitBreakerTrip(name string) {
	b.metrics.RecordCircuitBreakerTrip(name)
}
