package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goAuthClient/internal/watch"
	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every backend failure.
var ErrRedisUnavailable = errors.New("redis unavailable")

// Store is a Redis-backed session state store.
type Store struct {
	redis      redis.UniversalClient
	prefix     string
	onboarding *watch.Value[bool]
}

// NewStore creates a session [Store] backed by the given Redis client.
// prefix sets the Redis key namespace and defaults to "gac:s".
func NewStore(redis redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "gac:s"
	}
	return &Store{
		redis:      redis,
		prefix:     prefix,
		onboarding: watch.NewValue[bool](),
	}
}

func (s *Store) key() string {
	return s.prefix + ":state"
}

// SaveTokens replaces both tokens in one transaction. An empty argument
// deletes the stored value so no token outlives the authentication that
// issued it.
func (s *Store) SaveTokens(ctx context.Context, accessToken, refreshToken string) error {
	key := s.key()
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for field, value := range map[string]string{
			KeyAuthToken:    accessToken,
			KeyRefreshToken: refreshToken,
		} {
			if value == "" {
				pipe.HDel(ctx, key, field)
				continue
			}
			pipe.HSet(ctx, key, field, value)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// AccessToken returns the stored access token, or "" when none is stored.
func (s *Store) AccessToken(ctx context.Context) (string, error) {
	return s.get(ctx, KeyAuthToken)
}

// RefreshToken returns the stored refresh token, or "" when none is stored.
func (s *Store) RefreshToken(ctx context.Context) (string, error) {
	return s.get(ctx, KeyRefreshToken)
}

// SetUserEmail records the email of the last authenticated user.
func (s *Store) SetUserEmail(ctx context.Context, email string) error {
	return s.set(ctx, KeyUserEmail, email)
}

// UserEmail returns the email of the last authenticated user.
func (s *Store) UserEmail(ctx context.Context) (string, error) {
	return s.get(ctx, KeyUserEmail)
}

// SetSelectedLanguage stores the UI language tag.
func (s *Store) SetSelectedLanguage(ctx context.Context, lang string) error {
	return s.set(ctx, KeySelectedLanguage, lang)
}

// SelectedLanguage returns the stored UI language tag.
func (s *Store) SelectedLanguage(ctx context.Context) (string, error) {
	return s.get(ctx, KeySelectedLanguage)
}

// OnboardingComplete reports the onboarding flag.
func (s *Store) OnboardingComplete(ctx context.Context) (bool, error) {
	v, err := s.get(ctx, KeyOnboardingComplete)
	if err != nil {
		return false, err
	}
	return v == "1", nil
}

// MarkOnboardingComplete sets the onboarding flag. It is idempotent.
func (s *Store) MarkOnboardingComplete(ctx context.Context) error {
	if err := s.set(ctx, KeyOnboardingComplete, "1"); err != nil {
		return err
	}
	s.onboarding.Publish(true)
	return nil
}

// WatchOnboarding streams the onboarding flag, starting with its current
// value. The channel closes when ctx is done.
func (s *Store) WatchOnboarding(ctx context.Context) (<-chan bool, error) {
	if _, ok := s.onboarding.Current(); !ok {
		done, err := s.OnboardingComplete(ctx)
		if err != nil {
			return nil, err
		}
		s.onboarding.Publish(done)
	}
	return s.onboarding.Subscribe(ctx), nil
}

// ClearSession removes the tokens and the recorded email. The onboarding
// flag and the selected language survive.
func (s *Store) ClearSession(ctx context.Context) error {
	err := s.redis.HDel(ctx, s.key(), KeyAuthToken, KeyRefreshToken, KeyUserEmail).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// ClearAll removes every session key.
func (s *Store) ClearAll(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	s.onboarding.Publish(false)
	return nil
}

// State returns a snapshot of every session key.
func (s *Store) State(ctx context.Context) (*State, error) {
	m, err := s.redis.HGetAll(ctx, s.key()).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return stateFromHash(m), nil
}

// Ping checks backend availability.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, field string) (string, error) {
	v, err := s.redis.HGet(ctx, s.key(), field).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return v, nil
}

func (s *Store) set(ctx context.Context, field, value string) error {
	if err := s.redis.HSet(ctx, s.key(), field, value).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
