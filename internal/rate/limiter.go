package rate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds OTP throttle tuning parameters.
type Config struct {
	Prefix      string
	MaxRequests int
	Window      time.Duration
}

// Limiter enforces a per-email OTP request budget using Redis counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	if cfg.Prefix == "" {
		cfg.Prefix = "gac:otp"
	}
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

func (l *Limiter) key(email string) string {
	return l.config.Prefix + ":" + strings.ToLower(strings.TrimSpace(email))
}

// AllowOTPRequest spends one unit of the email's budget and returns
// ErrRateLimited once more than MaxRequests were made in the window.
func (l *Limiter) AllowOTPRequest(ctx context.Context, email string) error {
	count, err := l.incrementWithTTL(ctx, l.key(email), l.config.Window)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxRequests) {
		return ErrRateLimited
	}
	return nil
}

// ResetOTPRequests clears the email's counter. Called after a successful
// exchange so the next login starts with a full budget.
func (l *Limiter) ResetOTPRequests(ctx context.Context, email string) error {
	if err := l.redis.Del(ctx, l.key(email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// OTPRequests returns the number of requests counted in the current window.
func (l *Limiter) OTPRequests(ctx context.Context, email string) (int, error) {
	count, err := l.redis.Get(ctx, l.key(email)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}
