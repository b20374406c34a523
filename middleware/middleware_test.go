package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/api"
	"github.com/alicebob/miniredis/v2"
	gjwt "github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

type tokenGateway struct {
	token string
}

func (g tokenGateway) user() *api.UserResponseDTO {
	token := g.token
	return &api.UserResponseDTO{
		UUID:        "user-1",
		Email:       "ada@example.com",
		RoleName:    "INDIVIDUAL",
		Status:      "ACTIVE",
		AccessToken: &token,
		Account:     &api.AccountDTO{UUID: "acc-1", Type: "INDIVIDUAL"},
	}
}

func (g tokenGateway) RequestOTP(context.Context, string, string) (*api.Envelope[api.Empty], error) {
	return &api.Envelope[api.Empty]{Success: true}, nil
}

func (g tokenGateway) SignupIndividual(context.Context, api.SignupIndividualRequest) (*api.Envelope[api.UserResponseDTO], error) {
	return &api.Envelope[api.UserResponseDTO]{Success: true, Data: g.user()}, nil
}

func (g tokenGateway) SignupOrganization(context.Context, api.SignupOrganizationRequest) (*api.Envelope[api.UserResponseDTO], error) {
	return &api.Envelope[api.UserResponseDTO]{Success: false, Message: "unsupported"}, nil
}

func (g tokenGateway) Login(context.Context, string, string) (*api.Envelope[api.Empty], error) {
	return &api.Envelope[api.Empty]{Success: true}, nil
}

func (g tokenGateway) VerifyLoginOTP(context.Context, string, string) (*api.Envelope[api.UserResponseDTO], error) {
	return &api.Envelope[api.UserResponseDTO]{Success: true, Data: g.user()}, nil
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, gjwt.MapClaims{
		"uid": "user-1",
		"exp": exp.Unix(),
	}).SignedString([]byte("server-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func newEngine(t *testing.T, token string, mutate func(*goAuthClient.Config)) *goAuthClient.Engine {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := goAuthClient.DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	engine, err := goAuthClient.New().WithConfig(cfg).WithRedis(rdb).WithGateway(tokenGateway{token: token}).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func whoami(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "no user", http.StatusInternalServerError)
		return
	}
	_, _ = w.Write([]byte(u.ID))
}

func serve(h http.Handler) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	return rec
}

func TestRequireSession(t *testing.T) {
	engine := newEngine(t, signedToken(t, time.Now().Add(time.Hour)), nil)
	h := RequireSession(engine)(http.HandlerFunc(whoami))

	if rec := serve(h); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 before login, got %d", rec.Code)
	}

	if _, err := engine.LoginWithMFA(context.Background(), "ada@example.com", "123456"); err != nil {
		t.Fatalf("LoginWithMFA failed: %v", err)
	}
	rec := serve(h)
	if rec.Code != http.StatusOK || rec.Body.String() != "user-1" {
		t.Fatalf("expected user-1, got %d %q", rec.Code, rec.Body.String())
	}

	if err := engine.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if rec := serve(h); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", rec.Code)
	}
}

func TestRequireSessionRejectsExpiredToken(t *testing.T) {
	engine := newEngine(t, signedToken(t, time.Now().Add(-time.Minute)), nil)
	if _, err := engine.LoginWithMFA(context.Background(), "ada@example.com", "123456"); err != nil {
		t.Fatalf("LoginWithMFA failed: %v", err)
	}
	if rec := serve(RequireSession(engine)(http.HandlerFunc(whoami))); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", rec.Code)
	}
}

func TestRequireSessionNilEngine(t *testing.T) {
	if rec := serve(RequireSession(nil)(http.HandlerFunc(whoami))); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireOnboarding(t *testing.T) {
	engine := newEngine(t, signedToken(t, time.Now().Add(time.Hour)), func(c *goAuthClient.Config) {
		c.Onboarding.CompleteOnAuthentication = false
	})
	ctx := context.Background()
	if _, err := engine.LoginWithMFA(ctx, "ada@example.com", "123456"); err != nil {
		t.Fatalf("LoginWithMFA failed: %v", err)
	}

	h := RequireOnboarding(engine)(http.HandlerFunc(whoami))
	if rec := serve(h); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 before onboarding, got %d", rec.Code)
	}
	if err := engine.CompleteOnboarding(ctx); err != nil {
		t.Fatalf("CompleteOnboarding failed: %v", err)
	}
	if rec := serve(h); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after onboarding, got %d", rec.Code)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = api.RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "req-7")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != "req-7" || rec.Header().Get(HeaderRequestID) != "req-7" {
		t.Fatalf("expected caller id to be reused, got ctx=%q header=%q", seen, rec.Header().Get(HeaderRequestID))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "bad id\n"+strings.Repeat("x", 10))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen == "" || strings.Contains(seen, " ") || rec.Header().Get(HeaderRequestID) != seen {
		t.Fatalf("expected generated id, got %q", seen)
	}
}
