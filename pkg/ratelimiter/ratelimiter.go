package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"bonded.app/memories/pkg/apperror"
	"bonded.app/memories/pkg/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitError is returned when an action is still locked for the caller.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return e.Message
}

func (e *RateLimitError) Unwrap() error {
	return apperror.ErrRateLimitExceeded
}

// Limiter locks an action per user for a fixed window using SET NX.
// A nil redis client disables limiting.
type Limiter struct {
	rdb *redis.Client
	log *zap.Logger
}

func New(rdb *redis.Client, log *zap.Logger) *Limiter {
	return &Limiter{rdb: rdb, log: logger.OrNop(log)}
}

func key(userID uuid.UUID, action string) string {
	return fmt.Sprintf("rate_limit:user:%s:%s", userID.String(), action)
}

// CheckAndSet reports whether the action is allowed and, if so, locks it for limit.
func (l *Limiter) CheckAndSet(ctx context.Context, userID uuid.UUID, action string, limit time.Duration) (bool, error) {
	if l == nil || l.rdb == nil || limit <= 0 {
		return true, nil
	}

	wasSet, err := l.rdb.SetNX(ctx, key(userID, action), "locked", limit).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}
	return wasSet, nil
}

func (l *Limiter) TTL(ctx context.Context, userID uuid.UUID, action string) (time.Duration, error) {
	if l == nil || l.rdb == nil {
		return 0, nil
	}
	return l.rdb.TTL(ctx, key(userID, action)).Result()
}

func (l *Limiter) Clear(ctx context.Context, userID uuid.UUID, action string) error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Del(ctx, key(userID, action)).Err()
}

// Enforce wraps CheckAndSet and turns a rejection into a *RateLimitError.
// When redis fails the action is allowed.
func (l *Limiter) Enforce(ctx context.Context, userID uuid.UUID, action string, limit time.Duration) error {
	allowed, err := l.CheckAndSet(ctx, userID, action, limit)
	if err != nil {
		l.log.Warn("rate limit check failed, allowing request",
			zap.String("action", action),
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return nil
	}
	if allowed {
		return nil
	}

	ttl, err := l.TTL(ctx, userID, action)
	if err != nil || ttl < 0 {
		ttl = limit
	}
	return &RateLimitError{
		Message:    fmt.Sprintf("please wait %d seconds before trying %s again", int(ttl.Seconds()), action),
		RetryAfter: ttl,
	}
}
