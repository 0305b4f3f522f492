package redisclient

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Client wraps a Redis client with OpenTelemetry tracing
type Client struct {
	cmdable redis.Cmdable
}

// NewClient creates a new traced Redis client for single Redis instance
func NewClient(client *redis.Client) *Client {
	return &Client{cmdable: client}
}

// traced starts a span for one command and returns a finisher that records
// duration and the command error. redis.Nil is a cache miss, not a failure.
func traced(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	attrs = append(attrs,
		attribute.String("redis.operation", operation),
		attribute.String("redis.client", "copper-mobile-api"),
	)
	ctx, span := otel.Tracer("redis").Start(ctx, "redis."+operation, trace.WithAttributes(attrs...))

	return ctx, func(err error) {
		duration := time.Since(start)
		span.SetAttributes(
			attribute.Int64("redis.duration_ms", duration.Milliseconds()),
			attribute.String("redis.duration", duration.String()),
		)
		switch {
		case err == nil:
			span.SetStatus(codes.Ok, "success")
		case errors.Is(err, redis.Nil):
			span.SetAttributes(attribute.Bool("redis.miss", true))
			span.SetStatus(codes.Ok, "miss")
		default:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// Get wraps Redis Get with tracing
func (c *Client) Get(ctx context.Context, key string) *redis.StringCmd {
	ctx, finish := traced(ctx, "get", attribute.String("redis.key", key))
	cmd := c.cmdable.Get(ctx, key)
	finish(cmd.Err())
	return cmd
}

// Set wraps Redis Set with tracing
func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	ctx, finish := traced(ctx, "set",
		attribute.String("redis.key", key),
		attribute.String("redis.expiration", expiration.String()),
	)
	cmd := c.cmdable.Set(ctx, key, value, expiration)
	finish(cmd.Err())
	return cmd
}

// Del wraps Redis Del with tracing
func (c *Client) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	ctx, finish := traced(ctx, "del", attribute.StringSlice("redis.keys", keys))
	cmd := c.cmdable.Del(ctx, keys...)
	finish(cmd.Err())
	return cmd
}

// Ping wraps Redis Ping with tracing
func (c *Client) Ping(ctx context.Context) *redis.StatusCmd {
	ctx, finish := traced(ctx, "ping")
	cmd := c.cmdable.Ping(ctx)
	finish(cmd.Err())
	return cmd
}
