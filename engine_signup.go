package goAuthClient

import (
	"context"

	"github.com/MrEthical07/goAuthClient/api"
	"github.com/MrEthical07/goAuthClient/internal/flows"
	"github.com/MrEthical07/goAuthClient/mapper"
	"github.com/MrEthical07/goAuthClient/model"
)

var signupEvents = flows.ExchangeEvents{
	Success:  auditEventSignupSuccess,
	Failure:  auditEventSignupFailure,
	Rejected: auditEventSignupRejected,
}

// SignupIndividual registers an individual account with the OTP code the
// server sent for SIGNUP. user must be an Individual; otherwise
// ErrInvalidAccountType is returned without a network call.
func (e *Engine) SignupIndividual(ctx context.Context, user *model.User, code, password string) (*model.User, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	req, err := mapper.ToSignupIndividualRequest(user, code, password)
	if err != nil {
		return nil, e.invalidSignup(ctx, "signup_individual", err)
	}

	out, err := flows.RunAuthExchange(ctx, "signup_individual", func(ctx context.Context) (*api.Envelope[api.UserResponseDTO], error) {
		return e.gateway.SignupIndividual(ctx, req)
	}, e.exchangeDeps(ctx, signupEvents, MetricSignupSuccess))
	if err == nil {
		e.resetThrottle(ctx, out.Email)
	}
	e.logOutcome("signup_individual", out, err)
	return out, err
}

// SignupOrganization registers an organization account. user must be an
// Organization; otherwise ErrInvalidAccountType is returned without a
// network call.
func (e *Engine) SignupOrganization(ctx context.Context, user *model.User, code, password string) (*model.User, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	req, err := mapper.ToSignupOrganizationRequest(user, code, password)
	if err != nil {
		return nil, e.invalidSignup(ctx, "signup_organization", err)
	}

	out, err := flows.RunAuthExchange(ctx, "signup_organization", func(ctx context.Context) (*api.Envelope[api.UserResponseDTO], error) {
		return e.gateway.SignupOrganization(ctx, req)
	}, e.exchangeDeps(ctx, signupEvents, MetricSignupSuccess))
	if err == nil {
		e.resetThrottle(ctx, out.Email)
	}
	e.logOutcome("signup_organization", out, err)
	return out, err
}

func (e *Engine) invalidSignup(ctx context.Context, operation string, cause error) error {
	err := newError(ErrInvalidAccountType, "account type does not match signup operation", "", cause)
	e.emitAudit(ctx, auditEventSignupFailure, false, "", err, func() map[string]string {
		return map[string]string{"operation": operation}
	})
	e.logOutcome(operation, nil, err)
	return err
}
