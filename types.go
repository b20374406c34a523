package goAuthClient

import (
	"context"
	"time"

	"github.com/MrEthical07/goAuthClient/api"
	"github.com/MrEthical07/goAuthClient/cache"
	"github.com/MrEthical07/goAuthClient/session"
)

// Gateway is the remote auth service. *api.Client satisfies it.
type Gateway interface {
	RequestOTP(ctx context.Context, email, purpose string) (*api.Envelope[api.Empty], error)
	SignupIndividual(ctx context.Context, req api.SignupIndividualRequest) (*api.Envelope[api.UserResponseDTO], error)
	SignupOrganization(ctx context.Context, req api.SignupOrganizationRequest) (*api.Envelope[api.UserResponseDTO], error)
	Login(ctx context.Context, email, password string) (*api.Envelope[api.Empty], error)
	VerifyLoginOTP(ctx context.Context, email, code string) (*api.Envelope[api.UserResponseDTO], error)
}

// UserCache persists authenticated users and their organization
// memberships. *cache.Store satisfies it.
type UserCache interface {
	Get(ctx context.Context, id string) (*cache.UserRecord, error)
	Upsert(ctx context.Context, rec *cache.UserRecord) error
	DeleteAll(ctx context.Context) (int, error)
	Count(ctx context.Context) (int, error)
	LoggedIn(ctx context.Context) (*cache.UserRecord, error)
	Observe(ctx context.Context) (<-chan *cache.UserRecord, error)
	ReplaceMemberships(ctx context.Context, userID string, records []cache.MembershipRecord) error
	Memberships(ctx context.Context, userID string) ([]cache.MembershipRecord, error)
	OrganizationMembers(ctx context.Context, orgID string) ([]cache.MembershipRecord, error)
}

// SessionStore holds tokens and session flags. *session.Store satisfies it.
type SessionStore interface {
	SaveTokens(ctx context.Context, accessToken, refreshToken string) error
	AccessToken(ctx context.Context) (string, error)
	SetUserEmail(ctx context.Context, email string) error
	UserEmail(ctx context.Context) (string, error)
	SetSelectedLanguage(ctx context.Context, lang string) error
	SelectedLanguage(ctx context.Context) (string, error)
	OnboardingComplete(ctx context.Context) (bool, error)
	MarkOnboardingComplete(ctx context.Context) error
	WatchOnboarding(ctx context.Context) (<-chan bool, error)
	ClearSession(ctx context.Context) error
	ClearAll(ctx context.Context) error
	State(ctx context.Context) (*session.State, error)
}

// SessionStatus summarizes the locally stored session.
type SessionStatus struct {
	HasToken  bool
	Subject   string
	SessionID string
	ExpiresAt time.Time
	Expired   bool
	// Verified is true when the token signature was checked.
	Verified bool
	Email    string
}

// PendingChallenge is an OTP challenge the user has not completed yet.
type PendingChallenge struct {
	Email     string
	Purpose   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Attempts  int
}
