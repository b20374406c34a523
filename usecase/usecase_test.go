package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/api"
	"github.com/MrEthical07/goAuthClient/model"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var _ AuthRepository = (*goAuthClient.Engine)(nil)

// --- Mock Repository ---

type mockRepo struct {
	email    string
	code     string
	password string
	purpose  model.OTPPurpose
	draft    *model.User
	seen     bool
	err      error
}

func (m *mockRepo) RequestOTP(_ context.Context, email string, purpose model.OTPPurpose) error {
	m.email, m.purpose = email, purpose
	return m.err
}

func (m *mockRepo) SignupIndividual(_ context.Context, user *model.User, code, password string) (*model.User, error) {
	m.draft, m.code, m.password = user, code, password
	return user, m.err
}

func (m *mockRepo) SignupOrganization(_ context.Context, user *model.User, code, password string) (*model.User, error) {
	m.draft, m.code, m.password = user, code, password
	return user, m.err
}

func (m *mockRepo) Login(_ context.Context, email, password string) error {
	m.email, m.password = email, password
	return m.err
}

func (m *mockRepo) LoginWithMFA(_ context.Context, email, code string) (*model.User, error) {
	m.email, m.code = email, code
	return &model.User{ID: "u1", Email: email}, m.err
}

func (m *mockRepo) HasSeenWelcomeScreen(context.Context) (bool, error) {
	return m.seen, m.err
}

func (m *mockRepo) SetWelcomeScreenSeen(context.Context) error {
	m.seen = true
	return m.err
}

func (m *mockRepo) Logout(context.Context) error {
	return m.err
}

func (m *mockRepo) ObserveLoggedInUser(ctx context.Context) (<-chan *model.User, error) {
	ch := make(chan *model.User, 1)
	ch <- nil
	close(ch)
	return ch, m.err
}

func TestInputsAreNormalized(t *testing.T) {
	repo := &mockRepo{}
	ctx := context.Background()

	if err := NewRequestOTP(repo).Execute(ctx, "  Ada@Example.COM ", model.PurposeSignup); err != nil {
		t.Fatalf("RequestOTP: %v", err)
	}
	if repo.email != "ada@example.com" || repo.purpose != model.PurposeSignup {
		t.Fatalf("unexpected delegation %q %q", repo.email, repo.purpose)
	}

	if err := NewLogin(repo).Execute(ctx, "ADA@example.com", " pass with spaces "); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if repo.email != "ada@example.com" || repo.password != " pass with spaces " {
		t.Fatalf("password must pass through untouched, got %q", repo.password)
	}

	if _, err := NewVerifyMFA(repo).Execute(ctx, "Ada@example.com", " 123456\n"); err != nil {
		t.Fatalf("VerifyMFA: %v", err)
	}
	if repo.code != "123456" {
		t.Fatalf("expected trimmed code, got %q", repo.code)
	}
}

func TestRegisterOrganizationCopiesDraft(t *testing.T) {
	repo := &mockRepo{}
	draft := &model.User{
		Email: " Owner@Acme.test ",
		AccountType: model.OrganizationAccount(model.Organization{
			ID:    "pending",
			Name:  " Acme ",
			Email: "HELLO@acme.test",
		}),
	}

	if _, err := NewRegisterOrganization(repo).Execute(context.Background(), draft, " 42 ", "pw"); err != nil {
		t.Fatalf("RegisterOrganization: %v", err)
	}
	if repo.draft.Email != "owner@acme.test" || repo.draft.AccountType.Organization.Name != "Acme" {
		t.Fatalf("unexpected normalized draft %+v", repo.draft)
	}
	if repo.draft.AccountType.Organization.Email != "hello@acme.test" || repo.code != "42" {
		t.Fatalf("unexpected normalized draft %+v code=%q", repo.draft.AccountType.Organization, repo.code)
	}
	if draft.Email != " Owner@Acme.test " || draft.AccountType.Organization.Name != " Acme " {
		t.Fatal("caller draft must not be modified")
	}
}

func TestRegisterIndividualNilDraft(t *testing.T) {
	repo := &mockRepo{}
	if _, err := NewRegisterIndividual(repo).Execute(context.Background(), nil, "1", "pw"); err != nil {
		t.Fatalf("RegisterIndividual: %v", err)
	}
	if repo.draft != nil {
		t.Fatal("nil draft should be delegated as nil")
	}
}

func TestErrorsPassThrough(t *testing.T) {
	boom := errors.New("boom")
	repo := &mockRepo{err: boom}
	ctx := context.Background()

	if err := NewLogout(repo).Execute(ctx); !errors.Is(err, boom) {
		t.Fatalf("Logout: expected boom, got %v", err)
	}
	if _, err := NewCheckWelcomeScreen(repo).Execute(ctx); !errors.Is(err, boom) {
		t.Fatalf("CheckWelcomeScreen: expected boom, got %v", err)
	}
	if err := NewMarkWelcomeScreenSeen(repo).Execute(ctx); !errors.Is(err, boom) {
		t.Fatalf("MarkWelcomeScreenSeen: expected boom, got %v", err)
	}
}

// fakeGateway accepts every request with the same user payload.
type fakeGateway struct {
	user *api.UserResponseDTO
}

func (g fakeGateway) RequestOTP(context.Context, string, string) (*api.Envelope[api.Empty], error) {
	return &api.Envelope[api.Empty]{Success: true}, nil
}

func (g fakeGateway) SignupIndividual(context.Context, api.SignupIndividualRequest) (*api.Envelope[api.UserResponseDTO], error) {
	return &api.Envelope[api.UserResponseDTO]{Success: true, Data: g.user}, nil
}

func (g fakeGateway) SignupOrganization(context.Context, api.SignupOrganizationRequest) (*api.Envelope[api.UserResponseDTO], error) {
	return &api.Envelope[api.UserResponseDTO]{Success: false, Message: "not here"}, nil
}

func (g fakeGateway) Login(context.Context, string, string) (*api.Envelope[api.Empty], error) {
	return &api.Envelope[api.Empty]{Success: true}, nil
}

func (g fakeGateway) VerifyLoginOTP(context.Context, string, string) (*api.Envelope[api.UserResponseDTO], error) {
	return &api.Envelope[api.UserResponseDTO]{Success: true, Data: g.user}, nil
}

func TestUseCasesAgainstEngine(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	token := "access"
	gw := fakeGateway{user: &api.UserResponseDTO{
		UUID:        "user-1",
		Email:       "ada@example.com",
		RoleName:    "INDIVIDUAL",
		Status:      "ACTIVE",
		AccessToken: &token,
		Account:     &api.AccountDTO{UUID: "acc-1", Type: "INDIVIDUAL"},
	}}
	engine, err := goAuthClient.New().WithRedis(rdb).WithGateway(gw).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer engine.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session, err := NewObserveSession(engine).Execute(ctx)
	if err != nil {
		t.Fatalf("ObserveSession: %v", err)
	}
	if u := <-session; u != nil {
		t.Fatalf("expected logged out, got %+v", u)
	}

	if seen, err := NewCheckWelcomeScreen(engine).Execute(ctx); err != nil || seen {
		t.Fatalf("expected welcome unseen, got %v err=%v", seen, err)
	}
	if err := NewRequestOTP(engine).Execute(ctx, "ADA@example.com", model.PurposeSignup); err != nil {
		t.Fatalf("RequestOTP: %v", err)
	}
	draft := &model.User{FirstName: "Ada", Email: "ADA@example.com", AccountType: model.Individual()}
	if _, err := NewRegisterIndividual(engine).Execute(ctx, draft, "123456", "pw"); err != nil {
		t.Fatalf("RegisterIndividual: %v", err)
	}

	select {
	case u := <-session:
		if u == nil || u.ID != "user-1" {
			t.Fatalf("expected user-1, got %+v", u)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session update")
	}

	if seen, _ := NewCheckWelcomeScreen(engine).Execute(ctx); !seen {
		t.Fatal("expected welcome seen after signup")
	}

	_, err = NewRegisterOrganization(engine).Execute(ctx, draft, "1", "pw")
	if !errors.Is(err, goAuthClient.ErrInvalidAccountType) {
		t.Fatalf("expected ErrInvalidAccountType, got %v", err)
	}

	if err := NewLogout(engine).Execute(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	select {
	case u := <-session:
		if u != nil {
			t.Fatalf("expected logged out, got %+v", u)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for logout")
	}
}
