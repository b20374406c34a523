package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newLimiterTest(t *testing.T, max int, window time.Duration) (*Limiter, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	l := New(rdb, Config{MaxRequests: max, Window: window})
	return l, mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func TestAllowOTPRequestWithinBudget(t *testing.T) {
	l, _, done := newLimiterTest(t, 2, time.Minute)
	defer done()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := l.AllowOTPRequest(ctx, "a@b.com"); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}
	if err := l.AllowOTPRequest(ctx, "A@B.com "); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited for normalized email, got %v", err)
	}
	if err := l.AllowOTPRequest(ctx, "other@b.com"); err != nil {
		t.Fatalf("other email should have its own budget: %v", err)
	}
}

func TestWindowExpiryRestoresBudget(t *testing.T) {
	l, mr, done := newLimiterTest(t, 1, time.Minute)
	defer done()
	ctx := context.Background()

	_ = l.AllowOTPRequest(ctx, "a@b.com")
	if err := l.AllowOTPRequest(ctx, "a@b.com"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	mr.FastForward(2 * time.Minute)
	if err := l.AllowOTPRequest(ctx, "a@b.com"); err != nil {
		t.Fatalf("expected fresh window, got %v", err)
	}
}

func TestResetOTPRequests(t *testing.T) {
	l, _, done := newLimiterTest(t, 1, time.Minute)
	defer done()
	ctx := context.Background()

	_ = l.AllowOTPRequest(ctx, "a@b.com")
	if n, _ := l.OTPRequests(ctx, "a@b.com"); n != 1 {
		t.Fatalf("expected 1 request counted, got %d", n)
	}
	if err := l.ResetOTPRequests(ctx, "a@b.com"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if n, _ := l.OTPRequests(ctx, "a@b.com"); n != 0 {
		t.Fatalf("expected counter cleared, got %d", n)
	}
}
