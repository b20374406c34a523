package api

import "context"

const (
	pathRequestOTP         = "v1/auth-module/otp/request"
	pathSignupIndividual   = "v1/auth-module/signup"
	pathSignupOrganization = "v1/auth-module/auth/organisation-signup"
	pathLogin              = "v1/auth-module/login"
	pathVerifyLoginOTP     = "v1/auth-module/login/verify-mfa"

	purposeLogin = "LOGIN"
)

// RequestOTP asks the server to send a one-time code to email.
func (c *Client) RequestOTP(ctx context.Context, email, purpose string) (*Envelope[Empty], error) {
	return post[Empty](ctx, c, pathRequestOTP, RequestOTPRequest{
		Email:   email,
		Purpose: purpose,
	})
}

// SignupIndividual registers an individual account.
func (c *Client) SignupIndividual(ctx context.Context, req SignupIndividualRequest) (*Envelope[UserResponseDTO], error) {
	return post[UserResponseDTO](ctx, c, pathSignupIndividual, req)
}

// SignupOrganization registers an organization account and its admin user.
func (c *Client) SignupOrganization(ctx context.Context, req SignupOrganizationRequest) (*Envelope[UserResponseDTO], error) {
	return post[UserResponseDTO](ctx, c, pathSignupOrganization, req)
}

// Login checks email and password. A successful envelope carries no user;
// the flow continues with an OTP sent to the same email.
func (c *Client) Login(ctx context.Context, email, password string) (*Envelope[Empty], error) {
	return post[Empty](ctx, c, pathLogin, LoginRequest{
		Email:    email,
		Password: password,
	})
}

// VerifyLoginOTP completes an OTP-gated login.
func (c *Client) VerifyLoginOTP(ctx context.Context, email, code string) (*Envelope[UserResponseDTO], error) {
	return post[UserResponseDTO](ctx, c, pathVerifyLoginOTP, VerifyMFARequest{
		Email:   email,
		Code:    code,
		Purpose: purposeLogin,
	})
}
