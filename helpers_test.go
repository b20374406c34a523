package goAuthClient

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goAuthClient/api"
	"github.com/MrEthical07/goAuthClient/model"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func strPtr(s string) *string { return &s }

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, rdb
}

// fakeGateway scripts the auth module. Nil hooks fall back to accepting
// the request and returning the configured user payload.
type fakeGateway struct {
	mu    sync.Mutex
	calls []string

	user *api.UserResponseDTO

	requestOTP func(email, purpose string) (*api.Envelope[api.Empty], error)
	login      func(email, password string) (*api.Envelope[api.Empty], error)
	signupInd  func(req api.SignupIndividualRequest) (*api.Envelope[api.UserResponseDTO], error)
	signupOrg  func(req api.SignupOrganizationRequest) (*api.Envelope[api.UserResponseDTO], error)
	verify     func(email, code string) (*api.Envelope[api.UserResponseDTO], error)
}

func newFakeGateway(user *api.UserResponseDTO) *fakeGateway {
	return &fakeGateway{user: user}
}

func (g *fakeGateway) record(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, name)
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func (g *fakeGateway) userEnvelope() (*api.Envelope[api.UserResponseDTO], error) {
	return &api.Envelope[api.UserResponseDTO]{Success: true, Data: g.user}, nil
}

func (g *fakeGateway) RequestOTP(_ context.Context, email, purpose string) (*api.Envelope[api.Empty], error) {
	g.record("otp:" + purpose)
	if g.requestOTP != nil {
		return g.requestOTP(email, purpose)
	}
	return &api.Envelope[api.Empty]{Success: true, Message: "OTP sent"}, nil
}

func (g *fakeGateway) SignupIndividual(_ context.Context, req api.SignupIndividualRequest) (*api.Envelope[api.UserResponseDTO], error) {
	g.record("signup_individual")
	if g.signupInd != nil {
		return g.signupInd(req)
	}
	return g.userEnvelope()
}

func (g *fakeGateway) SignupOrganization(_ context.Context, req api.SignupOrganizationRequest) (*api.Envelope[api.UserResponseDTO], error) {
	g.record("signup_organization")
	if g.signupOrg != nil {
		return g.signupOrg(req)
	}
	return g.userEnvelope()
}

func (g *fakeGateway) Login(_ context.Context, email, password string) (*api.Envelope[api.Empty], error) {
	g.record("login")
	if g.login != nil {
		return g.login(email, password)
	}
	return &api.Envelope[api.Empty]{Success: true}, nil
}

func (g *fakeGateway) VerifyLoginOTP(_ context.Context, email, code string) (*api.Envelope[api.UserResponseDTO], error) {
	g.record("verify")
	if g.verify != nil {
		return g.verify(email, code)
	}
	return g.userEnvelope()
}

func rejected[T any](message, code string) (*api.Envelope[T], error) {
	return &api.Envelope[T]{Success: false, Message: message, Code: code}, nil
}

var errNetwork = errors.New("dial tcp 10.0.0.1:443: connect: connection refused")

func individualPayload() *api.UserResponseDTO {
	return &api.UserResponseDTO{
		UUID:         "user-1",
		UserCode:     "U-0001",
		Email:        "ada@example.com",
		FirstName:    strPtr("Ada"),
		LastName:     strPtr("Lovelace"),
		RoleName:     "INDIVIDUAL",
		Status:       "ACTIVE",
		AccessToken:  strPtr("access-1"),
		RefreshToken: strPtr("refresh-1"),
		Account:      &api.AccountDTO{UUID: "acc-1", Type: "INDIVIDUAL", AccountCode: "A-0001"},
	}
}

func organizationPayload() *api.UserResponseDTO {
	return &api.UserResponseDTO{
		UUID:         "user-2",
		UserCode:     "U-0002",
		Email:        "owner@acme.test",
		FirstName:    strPtr("Grace"),
		LastName:     strPtr("Hopper"),
		RoleName:     "ORGANIZATION_ADMIN",
		Status:       "ACTIVE",
		AccessToken:  strPtr("access-2"),
		RefreshToken: strPtr("refresh-2"),
		Account:      &api.AccountDTO{UUID: "acc-2", Type: "ORGANIZATION", AccountCode: "A-0002"},
		Organization: &api.OrganizationDTO{
			UUID:            "org-1",
			Name:            "Acme",
			OrgType:         "AGENCY",
			OfficialEmail:   "hello@acme.test",
			PhysicalAddress: "1 Main St",
			AdminFirstName:  "Grace",
			AdminLastName:   "Hopper",
		},
	}
}

func individualDraft() *model.User {
	return &model.User{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Email:       "ada@example.com",
		AccountType: model.Individual(),
	}
}

func organizationDraft() *model.User {
	return &model.User{
		Email: "owner@acme.test",
		Phone: "+15550100",
		AccountType: model.OrganizationAccount(model.Organization{
			ID:             "pending",
			Name:           "Acme",
			Type:           "AGENCY",
			Email:          "hello@acme.test",
			Address:        "1 Main St",
			AdminFirstName: "Grace",
			AdminLastName:  "Hopper",
		}),
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	return cfg
}

type testEngineOptions struct {
	sink AuditSink
}

func newTestEngine(t *testing.T, cfg Config, gw Gateway, opts ...func(*testEngineOptions)) (*Engine, *redis.Client, func()) {
	t.Helper()

	var o testEngineOptions
	for _, opt := range opts {
		opt(&o)
	}

	mr, rdb := newTestRedis(t)
	b := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithGateway(gw).
		WithClock(func() time.Time { return time.Now() })
	if o.sink != nil {
		b.WithAuditSink(o.sink)
	}
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	return engine, rdb, func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	}
}

func withSink(sink AuditSink) func(*testEngineOptions) {
	return func(o *testEngineOptions) { o.sink = sink }
}

func nextUser(t *testing.T, ch <-chan *model.User) *model.User {
	t.Helper()
	select {
	case u, ok := <-ch:
		if !ok {
			t.Fatal("user stream closed")
		}
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for user stream")
	}
	return nil
}
