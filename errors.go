package goAuthClient

import (
	"errors"

	"github.com/MrEthical07/goAuthClient/mapper"
)

var (
	// ErrTransport covers DNS, timeout, connection and decode failures.
	ErrTransport = errors.New("transport error")
	// ErrServerRejected is returned when the envelope reports success=false.
	ErrServerRejected = errors.New("server rejected request")
	// ErrMapping is returned when a server payload cannot be mapped to a User.
	ErrMapping = errors.New("mapping error")
	// ErrInvalidAccountType is returned when an account-type specific
	// conversion is used on the other variant.
	ErrInvalidAccountType = mapper.ErrInvalidAccountType
	// ErrMissingOrganizationData is wrapped by ErrMapping when an
	// organization account arrives without organization data.
	ErrMissingOrganizationData = mapper.ErrMissingOrganizationData
	// ErrPersistence is returned when a local store write or read fails.
	ErrPersistence = errors.New("persistence error")
	// ErrOTPRateLimited is returned when the local OTP request budget is spent.
	ErrOTPRateLimited = errors.New("otp requests rate limited")
	// ErrOTPAttemptsExceeded is returned when a pending challenge has seen
	// too many rejected codes.
	ErrOTPAttemptsExceeded = errors.New("otp attempts exceeded")
	// ErrInvalidInput is returned for blank or malformed caller input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotLoggedIn is returned by operations that need a cached user.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrEngineNotReady is returned when the engine is nil or half built.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// Error is the failure value returned by Engine operations. Kind is one of
// the sentinels above; Message is safe to show to end users.
type Error struct {
	Kind    error
	Message string
	Code    string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

func newError(kind error, message, code string, cause error) error {
	return &Error{Kind: kind, Message: message, Code: code, Err: cause}
}

// Message returns the human-readable text carried by err. Server
// rejections return the server message verbatim.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Message != "" {
			return e.Message
		}
		if e.Kind != nil {
			return e.Kind.Error()
		}
	}
	return err.Error()
}

// Code returns the machine-readable server code carried by err, if any.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
