package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newSessionStoreTest(t *testing.T) (*Store, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewStore(rdb, "ts")
	return store, mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func TestEmptyStateReadsAsBlank(t *testing.T) {
	store, _, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	token, err := store.AccessToken(ctx)
	if err != nil || token != "" {
		t.Fatalf("expected empty token, got %q err=%v", token, err)
	}
	st, err := store.State(ctx)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if st.HasToken() || st.OnboardingComplete {
		t.Fatalf("expected blank state, got %+v", st)
	}
}

func TestSaveTokensReplacesBothTokens(t *testing.T) {
	store, _, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.SaveTokens(ctx, "access-1", "refresh-1"); err != nil {
		t.Fatalf("save tokens: %v", err)
	}
	if err := store.SaveTokens(ctx, "access-2", ""); err != nil {
		t.Fatalf("save access only: %v", err)
	}

	access, _ := store.AccessToken(ctx)
	refresh, _ := store.RefreshToken(ctx)
	if access != "access-2" || refresh != "" {
		t.Fatalf("unexpected tokens access=%q refresh=%q", access, refresh)
	}

	if err := store.SaveTokens(ctx, "", ""); err != nil {
		t.Fatalf("save no tokens: %v", err)
	}
	st, err := store.State(ctx)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if st.HasToken() || st.AuthToken != "" || st.RefreshToken != "" {
		t.Fatalf("expected tokens cleared, got %+v", st)
	}
}

func TestClearSessionKeepsOnboardingAndLanguage(t *testing.T) {
	store, _, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	_ = store.SaveTokens(ctx, "a", "r")
	_ = store.SetUserEmail(ctx, "a@b.com")
	_ = store.SetSelectedLanguage(ctx, "sw")
	_ = store.MarkOnboardingComplete(ctx)

	if err := store.ClearSession(ctx); err != nil {
		t.Fatalf("clear session: %v", err)
	}

	st, err := store.State(ctx)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	want := State{OnboardingComplete: true, SelectedLanguage: "sw"}
	if *st != want {
		t.Fatalf("expected %+v, got %+v", want, *st)
	}
}

func TestClearAllRemovesEverything(t *testing.T) {
	store, mr, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	_ = store.SaveTokens(ctx, "a", "r")
	_ = store.MarkOnboardingComplete(ctx)

	if err := store.ClearAll(ctx); err != nil {
		t.Fatalf("clear all: %v", err)
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("expected empty keyspace, got %v", keys)
	}
	if ok, _ := store.OnboardingComplete(ctx); ok {
		t.Fatal("expected onboarding cleared")
	}
}

func TestMarkOnboardingCompleteIsIdempotent(t *testing.T) {
	store, _, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := store.MarkOnboardingComplete(ctx); err != nil {
			t.Fatalf("mark %d: %v", i, err)
		}
	}
	if ok, err := store.OnboardingComplete(ctx); err != nil || !ok {
		t.Fatalf("expected onboarding complete, got %v err=%v", ok, err)
	}
}

func TestWatchOnboarding(t *testing.T) {
	store, _, done := newSessionStoreTest(t)
	defer done()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := store.WatchOnboarding(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if v := nextBool(t, ch); v {
		t.Fatal("expected initial false")
	}

	_ = store.MarkOnboardingComplete(ctx)
	if v := nextBool(t, ch); !v {
		t.Fatal("expected true after mark")
	}

	_ = store.ClearAll(ctx)
	if v := nextBool(t, ch); v {
		t.Fatal("expected false after clear all")
	}

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected channel closed after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
}

func TestBackendFailureWrapsRedisUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	store := NewStore(rdb, "ts")
	mr.Close()

	if err := store.MarkOnboardingComplete(context.Background()); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}

func nextBool(t *testing.T, ch <-chan bool) bool {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
	return false
}
