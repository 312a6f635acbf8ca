package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/auralearn/companion-api/internal/domain"
	"github.com/auralearn/companion-api/pkg/database"
	"github.com/redis/go-redis/v9"
)

// SessionCache is a short-TTL Redis cache in front of the sessions
// table. It only ever shortens the session lookup path; logout
// invalidates synchronously so a revoked token cannot be served from
// cache.
type SessionCache struct {
	redis *database.Redis
	ttl   time.Duration
}

// NewSessionCache creates a new session cache
func NewSessionCache(redis *database.Redis, ttl time.Duration) *SessionCache {
	return &SessionCache{redis: redis, ttl: ttl}
}

type cachedSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:token:%s", token)
}

// Get returns the cached session for a token, or nil on a miss.
func (c *SessionCache) Get(ctx context.Context, token string) (*domain.Session, error) {
	data, err := c.redis.Client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session cache: %w", err)
	}

	var cached cachedSession
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("failed to decode cached session: %w", err)
	}

	return &domain.Session{
		ID:        cached.ID,
		UserID:    cached.UserID,
		Token:     token,
		ExpiresAt: cached.ExpiresAt,
	}, nil
}

// Set caches a session. The entry never outlives the session itself.
func (c *SessionCache) Set(ctx context.Context, session *domain.Session) error {
	ttl := c.ttl
	if remaining := time.Until(session.ExpiresAt); remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(cachedSession{
		ID:        session.ID,
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode session for cache: %w", err)
	}

	if err := c.redis.Client.Set(ctx, sessionKey(session.Token), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write session cache: %w", err)
	}

	return nil
}

// Invalidate removes a token from the cache.
func (c *SessionCache) Invalidate(ctx context.Context, token string) error {
	if err := c.redis.Client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate session cache: %w", err)
	}
	return nil
}
