// Package usecase exposes one type per user-facing auth operation. Each
// normalizes its input and delegates to an AuthRepository.
package usecase

import (
	"context"
	"strings"

	"github.com/MrEthical07/goAuthClient/model"
)

// AuthRepository is the orchestrator surface the use cases depend on.
// *goAuthClient.Engine satisfies it.
type AuthRepository interface {
	RequestOTP(ctx context.Context, email string, purpose model.OTPPurpose) error
	SignupIndividual(ctx context.Context, user *model.User, code, password string) (*model.User, error)
	SignupOrganization(ctx context.Context, user *model.User, code, password string) (*model.User, error)
	Login(ctx context.Context, email, password string) error
	LoginWithMFA(ctx context.Context, email, code string) (*model.User, error)
	HasSeenWelcomeScreen(ctx context.Context) (bool, error)
	SetWelcomeScreenSeen(ctx context.Context) error
	Logout(ctx context.Context) error
	ObserveLoggedInUser(ctx context.Context) (<-chan *model.User, error)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizeDraft returns a trimmed copy of u. The caller's value is not
// modified.
func normalizeDraft(u *model.User) *model.User {
	if u == nil {
		return nil
	}
	out := *u
	out.FirstName = strings.TrimSpace(u.FirstName)
	out.LastName = strings.TrimSpace(u.LastName)
	out.Email = normalizeEmail(u.Email)
	out.Phone = strings.TrimSpace(u.Phone)
	if u.AccountType.Organization != nil {
		org := *u.AccountType.Organization
		org.Name = strings.TrimSpace(org.Name)
		org.Type = strings.TrimSpace(org.Type)
		org.Email = normalizeEmail(org.Email)
		org.Phone = strings.TrimSpace(org.Phone)
		org.Address = strings.TrimSpace(org.Address)
		org.AdminFirstName = strings.TrimSpace(org.AdminFirstName)
		org.AdminLastName = strings.TrimSpace(org.AdminLastName)
		out.AccountType.Organization = &org
	}
	return &out
}

// RequestOTP asks for a one-time code.
type RequestOTP struct {
	repo AuthRepository
}

// NewRequestOTP returns a RequestOTP backed by repo.
func NewRequestOTP(repo AuthRepository) *RequestOTP {
	return &RequestOTP{repo: repo}
}

// Execute trims and lowercases email before sending it.
func (uc *RequestOTP) Execute(ctx context.Context, email string, purpose model.OTPPurpose) error {
	return uc.repo.RequestOTP(ctx, normalizeEmail(email), purpose)
}

// RegisterIndividual completes an individual signup.
type RegisterIndividual struct {
	repo AuthRepository
}

// NewRegisterIndividual returns a RegisterIndividual backed by repo.
func NewRegisterIndividual(repo AuthRepository) *RegisterIndividual {
	return &RegisterIndividual{repo: repo}
}

// Execute trims the draft and code. user is not modified.
func (uc *RegisterIndividual) Execute(ctx context.Context, user *model.User, code, password string) (*model.User, error) {
	return uc.repo.SignupIndividual(ctx, normalizeDraft(user), strings.TrimSpace(code), password)
}

// RegisterOrganization completes an organization signup.
type RegisterOrganization struct {
	repo AuthRepository
}

// NewRegisterOrganization returns a RegisterOrganization backed by repo.
func NewRegisterOrganization(repo AuthRepository) *RegisterOrganization {
	return &RegisterOrganization{repo: repo}
}

// Execute trims the draft, including its organization fields, and the code.
func (uc *RegisterOrganization) Execute(ctx context.Context, user *model.User, code, password string) (*model.User, error) {
	return uc.repo.SignupOrganization(ctx, normalizeDraft(user), strings.TrimSpace(code), password)
}

// Login submits the password step. Passwords are passed through as typed.
type Login struct {
	repo AuthRepository
}

// NewLogin returns a Login backed by repo.
func NewLogin(repo AuthRepository) *Login {
	return &Login{repo: repo}
}

// Execute normalizes email and leaves password untouched.
func (uc *Login) Execute(ctx context.Context, email, password string) error {
	return uc.repo.Login(ctx, normalizeEmail(email), password)
}

// VerifyMFA completes a login with the emailed code.
type VerifyMFA struct {
	repo AuthRepository
}

// NewVerifyMFA returns a VerifyMFA backed by repo.
func NewVerifyMFA(repo AuthRepository) *VerifyMFA {
	return &VerifyMFA{repo: repo}
}

// Execute returns the logged-in user on success.
func (uc *VerifyMFA) Execute(ctx context.Context, email, code string) (*model.User, error) {
	return uc.repo.LoginWithMFA(ctx, normalizeEmail(email), strings.TrimSpace(code))
}

// CheckWelcomeScreen reports whether the welcome screen was already shown.
type CheckWelcomeScreen struct {
	repo AuthRepository
}

// NewCheckWelcomeScreen returns a CheckWelcomeScreen backed by repo.
func NewCheckWelcomeScreen(repo AuthRepository) *CheckWelcomeScreen {
	return &CheckWelcomeScreen{repo: repo}
}

// Execute returns false for a fresh install.
func (uc *CheckWelcomeScreen) Execute(ctx context.Context) (bool, error) {
	return uc.repo.HasSeenWelcomeScreen(ctx)
}

// MarkWelcomeScreenSeen records that the welcome screen was shown.
type MarkWelcomeScreenSeen struct {
	repo AuthRepository
}

// NewMarkWelcomeScreenSeen returns a MarkWelcomeScreenSeen backed by repo.
func NewMarkWelcomeScreenSeen(repo AuthRepository) *MarkWelcomeScreenSeen {
	return &MarkWelcomeScreenSeen{repo: repo}
}

// Execute is idempotent.
func (uc *MarkWelcomeScreenSeen) Execute(ctx context.Context) error {
	return uc.repo.SetWelcomeScreenSeen(ctx)
}

// Logout ends the local session. Onboarding and language survive.
type Logout struct {
	repo AuthRepository
}

// NewLogout returns a Logout backed by repo.
func NewLogout(repo AuthRepository) *Logout {
	return &Logout{repo: repo}
}

// Execute clears tokens and every cached user.
func (uc *Logout) Execute(ctx context.Context) error {
	return uc.repo.Logout(ctx)
}

// ObserveSession streams the logged-in user; nil means logged out.
type ObserveSession struct {
	repo AuthRepository
}

// NewObserveSession returns an ObserveSession backed by repo.
func NewObserveSession(repo AuthRepository) *ObserveSession {
	return &ObserveSession{repo: repo}
}

// Execute emits the current user first, then every change until ctx ends.
func (uc *ObserveSession) Execute(ctx context.Context) (<-chan *model.User, error) {
	return uc.repo.ObserveLoggedInUser(ctx)
}
