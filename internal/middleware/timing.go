package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
)

// RequestTiming wraps every request in a server span, continuing any trace
// context the caller propagated.
func RequestTiming() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set("request_start_time", start)

		parent := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := otel.Tracer("http").Start(parent, "http.request")
		defer span.End()

		span.SetAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", c.FullPath()),
			attribute.String("http.user_agent", c.Request.UserAgent()),
			attribute.String("http.client_ip", c.ClientIP()),
		)

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		span.SetAttributes(
			attribute.Int("http.status_code", status),
			attribute.Int64("http.duration_ms", latency.Milliseconds()),
			attribute.String("http.duration", latency.String()),
		)
		if v, ok := c.Get(RequestIDKey); ok {
			if id, ok := v.(string); ok {
				span.SetAttributes(attribute.String("http.request_id", id))
			}
		}

		if status >= 500 {
			span.SetStatus(codes.Error, "server error")
		} else if status >= 400 {
			span.SetAttributes(attribute.String("http.error", "true"))
		}
	}
}
