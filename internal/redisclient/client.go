package redisclient

import (
	"context"
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

// NewClient creates a new traced Redis client for a single Redis instance
func NewClient(client *redis.Client) *Client {
	return &Client{cmdable: client}
}

// span starts a traced span for a Redis operation
func span(ctx context.Context, op, key string) (context.Context, trace.Span, time.Time) {
	ctx, s := otel.Tracer("redis").Start(ctx, "redis."+op,
		trace.WithAttributes(
			attribute.String("redis.key", key),
			attribute.String("redis.operation", op),
			attribute.String("redis.client", "likebot"),
		),
	)
	return ctx, s, time.Now()
}

// finish records duration and error state on the span
func finish(s trace.Span, start time.Time, err error) {
	s.SetAttributes(attribute.Int64("redis.duration_ms", time.Since(start).Milliseconds()))
	if err != nil && err != redis.Nil {
		s.RecordError(err)
		s.SetStatus(codes.Error, err.Error())
	} else {
		s.SetStatus(codes.Ok, "success")
	}
	s.End()
}

// Get wraps Redis GET with tracing
func (c *Client) Get(ctx context.Context, key string) *redis.StringCmd {
	ctx, s, start := span(ctx, "get", key)
	cmd := c.cmdable.Get(ctx, key)
	finish(s, start, cmd.Err())
	return cmd
}

// Set wraps Redis SET with tracing
func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	ctx, s, start := span(ctx, "set", key)
	cmd := c.cmdable.Set(ctx, key, value, expiration)
	finish(s, start, cmd.Err())
	return cmd
}

// SetNX wraps Redis SET NX with tracing
func (c *Client) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	ctx, s, start := span(ctx, "setnx", key)
	cmd := c.cmdable.SetNX(ctx, key, value, expiration)
	finish(s, start, cmd.Err())
	return cmd
}

// Del wraps Redis DEL with tracing
func (c *Client) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	key := ""
	if len(keys) > 0 {
		key = keys[0]
	}
	ctx, s, start := span(ctx, "del", key)
	cmd := c.cmdable.Del(ctx, keys...)
	finish(s, start, cmd.Err())
	return cmd
}

// TTL wraps Redis TTL with tracing
func (c *Client) TTL(ctx context.Context, key string) *redis.DurationCmd {
	ctx, s, start := span(ctx, "ttl", key)
	cmd := c.cmdable.TTL(ctx, key)
	finish(s, start, cmd.Err())
	return cmd
}

// Ping wraps Redis PING with tracing
func (c *Client) Ping(ctx context.Context) *redis.StatusCmd {
	ctx, s, start := span(ctx, "ping", "")
	cmd := c.cmdable.Ping(ctx)
	finish(s, start, cmd.Err())
	return cmd
}
