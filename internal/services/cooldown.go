package services

import (
	"context"
	"fmt"
	"time"

	"github.com/fftools/likebot/internal/logging"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CooldownStore is the Redis capability the cooldown uses.
type CooldownStore interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// Cooldown rate-limits the /like command per requesting user with a Redis
// SET NX + TTL marker. Redis failures fail open: a degraded limiter must not
// take the command surface down with it.
type Cooldown struct {
	redis  CooldownStore
	ttl    time.Duration
	logger *logging.SafeLogger
}

// NewCooldown creates a per-user command cooldown.
func NewCooldown(store CooldownStore, ttl time.Duration, logger *logging.SafeLogger) *Cooldown {
	return &Cooldown{
		redis:  store,
		ttl:    ttl,
		logger: logger.Named("cooldown"),
	}
}

// Allow reports whether the user may run the command now. When denied, the
// returned duration is the remaining wait.
func (c *Cooldown) Allow(ctx context.Context, userID int64) (bool, time.Duration) {
	if c == nil || c.redis == nil || c.ttl <= 0 {
		return true, 0
	}

	key := fmt.Sprintf("like:cooldown:%d", userID)
	ok, err := c.redis.SetNX(ctx, key, 1, c.ttl).Result()
	if err != nil {
		c.logger.Warn("cooldown check failed, allowing request",
			zap.Int64("user_id", userID), zap.Error(err))
		return true, 0
	}
	if ok {
		return true, 0
	}

	remaining := c.ttl
	if ttl, err := c.redis.TTL(ctx, key).Result(); err == nil && ttl > 0 {
		remaining = ttl
	}
	return false, remaining
}
