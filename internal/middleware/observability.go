package middleware

import (
	"strconv"
	"time"

	"github.com/copper-mobile/app-api/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDKey is the gin context key holding the request id
const RequestIDKey = "RequestID"

// RequestLogger logs request information and records request duration
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		// Query strings may carry phone numbers, so only the path is logged.
		observability.Logger().Info("request completed",
			zap.String("path", path),
			zap.String("route", c.FullPath()),
			zap.String("ip", c.ClientIP()),
			zap.String("method", c.Request.Method),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.String("request_id", c.GetString(RequestIDKey)),
		)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		observability.RequestDuration.WithLabelValues(
			route,
			c.Request.Method,
			strconv.Itoa(status),
		).Observe(latency.Seconds())
	}
}

// RequestTracker tracks active connections
func RequestTracker() gin.HandlerFunc {
	return func(c *gin.Context) {
		observability.ActiveConnections.Inc()
		defer observability.ActiveConnections.Dec()
		c.Next()
	}
}

// RequestID adds a unique request ID to the context
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}
