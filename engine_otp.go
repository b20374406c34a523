package goAuthClient

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goAuthClient/api"
	"github.com/MrEthical07/goAuthClient/internal/flows"
	"github.com/MrEthical07/goAuthClient/internal/rate"
	"github.com/MrEthical07/goAuthClient/internal/stores"
	"github.com/MrEthical07/goAuthClient/model"
)

// RequestOTP asks the server to send a one-time code to email. Success
// records a pending challenge so an interrupted OTP screen can resume.
func (e *Engine) RequestOTP(ctx context.Context, email string, purpose model.OTPPurpose) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return newError(ErrInvalidInput, "email is required", "", nil)
	}
	purpose, ok := model.ParsePurpose(string(purpose))
	if !ok {
		return newError(ErrInvalidInput, "unknown otp purpose", "", nil)
	}

	deps := e.envelopeDeps(flows.ExchangeEvents{
		Success:     auditEventOTPRequest,
		Failure:     auditEventOTPRequest,
		Rejected:    auditEventOTPRequest,
		RateLimited: auditEventOTPRateLimited,
	}, MetricOTPRequested)
	if e.throttle != nil {
		deps.Throttle = func(ctx context.Context) error {
			err := e.throttle.AllowOTPRequest(ctx, email)
			if errors.Is(err, rate.ErrRedisUnavailable) {
				e.warn("goAuthClient: otp throttle unavailable", "error", err)
				return nil
			}
			return err
		}
	}
	deps.OnSuccess = func(ctx context.Context) error {
		return e.saveChallenge(ctx, email, purpose)
	}

	err := flows.RunEnvelopeCall(ctx, "request_otp", func(ctx context.Context) (*api.Envelope[api.Empty], error) {
		return e.gateway.RequestOTP(ctx, email, string(purpose))
	}, deps)
	e.logOutcome("request_otp", nil, err)
	return err
}

// Login submits the password step. The caller continues with RequestOTP
// and LoginWithMFA; a pending LOGIN challenge is recorded on success.
func (e *Engine) Login(ctx context.Context, email, password string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return newError(ErrInvalidInput, "email and password are required", "", nil)
	}

	deps := e.envelopeDeps(flows.ExchangeEvents{
		Success:  auditEventLoginAccepted,
		Failure:  auditEventLoginFailure,
		Rejected: auditEventLoginFailure,
	}, MetricLoginAccepted)
	deps.OnSuccess = func(ctx context.Context) error {
		return e.saveChallenge(ctx, email, model.PurposeLogin)
	}

	err := flows.RunEnvelopeCall(ctx, "login", func(ctx context.Context) (*api.Envelope[api.Empty], error) {
		return e.gateway.Login(ctx, email, password)
	}, deps)
	e.logOutcome("login", nil, err)
	return err
}

// LoginWithMFA verifies the login code and, on success, persists the
// returned user and tokens. Rejected codes count against the pending
// challenge; once OTP.MaxVerifyAttempts is reached the challenge is dropped
// and the error also matches ErrOTPAttemptsExceeded.
func (e *Engine) LoginWithMFA(ctx context.Context, email, code string) (*model.User, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return nil, newError(ErrInvalidInput, "email and code are required", "", nil)
	}

	deps := e.exchangeDeps(ctx, flows.ExchangeEvents{
		Success:  auditEventMFASuccess,
		Failure:  auditEventMFAFailure,
		Rejected: auditEventMFARejected,
	}, MetricMFASuccess)

	var capped bool
	if e.challenges != nil {
		deps.OnRejected = func(ctx context.Context) error {
			exceeded, err := e.challenges.RecordFailure(ctx, e.config.OTP.MaxVerifyAttempts)
			if errors.Is(err, stores.ErrOTPChallengeNotFound) || errors.Is(err, stores.ErrOTPChallengeExpired) {
				return nil
			}
			capped = exceeded
			return err
		}
	}

	user, err := flows.RunAuthExchange(ctx, "verify_mfa", func(ctx context.Context) (*api.Envelope[api.UserResponseDTO], error) {
		return e.gateway.VerifyLoginOTP(ctx, email, code)
	}, deps)
	if err == nil {
		e.resetThrottle(ctx, email)
	}
	if err != nil && capped {
		e.metricInc(MetricMFAAttemptsExceeded)
		e.emitAudit(ctx, auditEventMFAAttemptsCapped, false, "", err, nil)
		err = newError(ErrOTPAttemptsExceeded, Message(err), Code(err), err)
	}
	e.logOutcome("verify_mfa", user, err)
	return user, err
}

// PendingChallenge returns the OTP step the user has not completed yet,
// or nil when there is none.
func (e *Engine) PendingChallenge(ctx context.Context) (*PendingChallenge, error) {
	if e == nil || e.challenges == nil {
		return nil, nil
	}
	rec, err := e.challenges.Get(ctx)
	if err != nil {
		if errors.Is(err, stores.ErrOTPChallengeNotFound) || errors.Is(err, stores.ErrOTPChallengeExpired) {
			return nil, nil
		}
		return nil, storeError(err)
	}
	return &PendingChallenge{
		Email:     rec.Email,
		Purpose:   rec.Purpose,
		IssuedAt:  time.Unix(rec.IssuedAt, 0),
		ExpiresAt: time.Unix(rec.ExpiresAt, 0),
		Attempts:  int(rec.Attempts),
	}, nil
}

// resetThrottle gives email a full OTP budget after it authenticated.
func (e *Engine) resetThrottle(ctx context.Context, email string) {
	if e.throttle == nil {
		return
	}
	if err := e.throttle.ResetOTPRequests(ctx, email); err != nil {
		e.warn("goAuthClient: otp throttle reset failed", "error", err)
	}
}

// saveChallenge uses wall-clock time because the challenge store expires
// records against it.
func (e *Engine) saveChallenge(ctx context.Context, email string, purpose model.OTPPurpose) error {
	if e.challenges == nil {
		return nil
	}
	now := time.Now()
	ttl := e.config.OTP.ChallengeTTL
	return e.challenges.Save(ctx, &stores.OTPChallenge{
		Email:     email,
		Purpose:   string(purpose),
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}, ttl)
}
