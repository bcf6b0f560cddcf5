package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter throttles login attempts per email and client IP using Redis.
// The upstream portal API has no throttling of its own, so the gateway
// keeps credential stuffing off it.
type Limiter struct {
	client          *redis.Client
	window          time.Duration // time window for counting attempts
	maxAttempts     int           // maximum attempts allowed in window
	lockoutDuration time.Duration // how long to block after exceeding limit
}

// NewLimiter creates a login rate limiter
func NewLimiter(client *redis.Client, window time.Duration, maxAttempts int, lockoutDuration time.Duration) *Limiter {
	return &Limiter{
		client:          client,
		window:          window,
		maxAttempts:     maxAttempts,
		lockoutDuration: lockoutDuration,
	}
}

func (l *Limiter) attemptKey(email, ipAddress string) string {
	return fmt.Sprintf("ratelimit:login:%s:%s", ipAddress, email)
}

func (l *Limiter) lockoutKey(email, ipAddress string) string {
	return fmt.Sprintf("ratelimit:lockout:%s:%s", ipAddress, email)
}

// Check reports whether a login attempt is allowed.
// Returns: allowed, remaining attempts, lockout remaining.
func (l *Limiter) Check(ctx context.Context, email, ipAddress string) (bool, int, time.Duration, error) {
	lockoutKey := l.lockoutKey(email, ipAddress)

	ttl, err := l.client.TTL(ctx, lockoutKey).Result()
	if err != nil && err != redis.Nil {
		return false, 0, 0, fmt.Errorf("failed to check lockout status: %w", err)
	}
	if ttl > 0 {
		return false, 0, ttl, nil
	}

	attemptKey := l.attemptKey(email, ipAddress)
	count, err := l.client.Get(ctx, attemptKey).Int()
	if err != nil && err != redis.Nil {
		return false, 0, 0, fmt.Errorf("failed to get attempt count: %w", err)
	}

	remaining := l.maxAttempts - count
	if remaining <= 0 {
		if err := l.client.Set(ctx, lockoutKey, "1", l.lockoutDuration).Err(); err != nil {
			return false, 0, 0, fmt.Errorf("failed to set lockout: %w", err)
		}
		// Attempt counter restarts after the lockout expires
		_ = l.client.Del(ctx, attemptKey).Err()
		return false, 0, l.lockoutDuration, nil
	}

	return true, remaining, 0, nil
}

// RecordFailure records a failed login attempt
func (l *Limiter) RecordFailure(ctx context.Context, email, ipAddress string) error {
	attemptKey := l.attemptKey(email, ipAddress)

	count, err := l.client.Incr(ctx, attemptKey).Result()
	if err != nil {
		return fmt.Errorf("failed to increment attempt counter: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, attemptKey, l.window).Err(); err != nil {
			return fmt.Errorf("failed to set expiry: %w", err)
		}
	}
	return nil
}

// RecordSuccess clears the attempt counter after a successful login
func (l *Limiter) RecordSuccess(ctx context.Context, email, ipAddress string) error {
	if err := l.client.Del(ctx, l.attemptKey(email, ipAddress)).Err(); err != nil {
		return fmt.Errorf("failed to clear attempt counter: %w", err)
	}
	return nil
}
