package stores

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newChallengeStoreTest(t *testing.T) (*OTPChallengeStore, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewOTPChallengeStore(rdb, "tch"), mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func pendingChallenge() *OTPChallenge {
	now := time.Now()
	return &OTPChallenge{
		Email:     "a@b.com",
		Purpose:   "LOGIN",
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(10 * time.Minute).Unix(),
	}
}

func TestOTPChallengeSaveGetDelete(t *testing.T) {
	store, _, done := newChallengeStoreTest(t)
	defer done()
	ctx := context.Background()

	rec := pendingChallenge()
	if err := store.Save(ctx, rec, 10*time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if *got != *rec {
		t.Fatalf("expected %+v, got %+v", rec, got)
	}

	deleted, err := store.Delete(ctx)
	if err != nil || !deleted {
		t.Fatalf("expected delete true, got %v err=%v", deleted, err)
	}
	if _, err := store.Get(ctx); !errors.Is(err, ErrOTPChallengeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if deleted, _ := store.Delete(ctx); deleted {
		t.Fatal("second delete should report false")
	}
}

func TestOTPChallengeExpiredRecord(t *testing.T) {
	store, _, done := newChallengeStoreTest(t)
	defer done()
	ctx := context.Background()

	rec := pendingChallenge()
	rec.ExpiresAt = time.Now().Add(-time.Second).Unix()
	if err := store.Save(ctx, rec, time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := store.Get(ctx); !errors.Is(err, ErrOTPChallengeExpired) {
		t.Fatalf("expected expired, got %v", err)
	}
	if _, err := store.Get(ctx); !errors.Is(err, ErrOTPChallengeNotFound) {
		t.Fatalf("expected expired record removed, got %v", err)
	}
}

func TestOTPChallengeRecordFailureExceeds(t *testing.T) {
	store, _, done := newChallengeStoreTest(t)
	defer done()
	ctx := context.Background()

	_ = store.Save(ctx, pendingChallenge(), 10*time.Minute)

	exceeded, err := store.RecordFailure(ctx, 2)
	if err != nil || exceeded {
		t.Fatalf("first failure: exceeded=%v err=%v", exceeded, err)
	}
	got, _ := store.Get(ctx)
	if got == nil || got.Attempts != 1 {
		t.Fatalf("expected one attempt recorded, got %+v", got)
	}

	exceeded, err = store.RecordFailure(ctx, 2)
	if err != nil || !exceeded {
		t.Fatalf("second failure: exceeded=%v err=%v", exceeded, err)
	}
	if _, err := store.Get(ctx); !errors.Is(err, ErrOTPChallengeNotFound) {
		t.Fatalf("expected challenge dropped, got %v", err)
	}
}

func TestOTPChallengeRecordFailureWithoutChallenge(t *testing.T) {
	store, _, done := newChallengeStoreTest(t)
	defer done()

	if _, err := store.RecordFailure(context.Background(), 3); !errors.Is(err, ErrOTPChallengeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDecodeOTPChallengeRejectsUnknownVersion(t *testing.T) {
	if _, err := decodeOTPChallenge([]byte{9, 0, 0}); err == nil {
		t.Fatal("expected version error")
	}
}
