package service

import (
	"context"
	"fmt"
	"time"

	"github.com/auralearn/companion-api/pkg/database"
	"github.com/redis/go-redis/v9"
)

// RateLimiter implements a sliding-window log limiter over Redis. Used
// on the credential endpoints only.
type RateLimiter struct {
	redis *database.Redis
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(redis *database.Redis) *RateLimiter {
	return &RateLimiter{redis: redis}
}

// Allow reports whether a request under the key fits in the window.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	windowStart := now.Add(-window)
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	if err := r.redis.Client.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", windowStart.UnixNano())).Err(); err != nil {
		return false, fmt.Errorf("failed to trim rate-limit window: %w", err)
	}

	count, err := r.redis.Client.ZCard(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to count rate-limit entries: %w", err)
	}

	if count >= int64(limit) {
		return false, nil
	}

	member := fmt.Sprintf("%d", now.UnixNano())
	err = r.redis.Client.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: member,
	}).Err()
	if err != nil {
		return false, fmt.Errorf("failed to record rate-limit entry: %w", err)
	}

	// Best effort; trimming above keeps the window correct without the TTL.
	_ = r.redis.Client.Expire(ctx, redisKey, window+time.Minute).Err()

	return true, nil
}
