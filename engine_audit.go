package goAuthClient

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	auditEventOTPRequest        = "otp_request"
	auditEventOTPRateLimited    = "otp_rate_limited"
	auditEventLoginAccepted     = "login_accepted"
	auditEventLoginFailure      = "login_failure"
	auditEventSignupSuccess     = "signup_success"
	auditEventSignupFailure     = "signup_failure"
	auditEventSignupRejected    = "signup_rejected"
	auditEventMFASuccess        = "mfa_success"
	auditEventMFAFailure        = "mfa_failure"
	auditEventMFARejected       = "mfa_rejected"
	auditEventMFAAttemptsCapped = "mfa_attempts_exceeded"
	auditEventUserSaved         = "user_saved"
	auditEventLogout            = "logout"
	auditEventClearAll          = "clear_all"
	auditEventOnboardingDone    = "onboarding_completed"
)

// AuditErrorCode is the coarse failure class recorded on audit events.
type AuditErrorCode string

const (
	auditErrTransport        AuditErrorCode = "transport"
	auditErrServerRejected   AuditErrorCode = "server_rejected"
	auditErrMapping          AuditErrorCode = "mapping"
	auditErrInvalidAccount   AuditErrorCode = "invalid_account_type"
	auditErrPersistence      AuditErrorCode = "persistence"
	auditErrRateLimited      AuditErrorCode = "rate_limited"
	auditErrAttemptsExceeded AuditErrorCode = "attempts_exceeded"
	auditErrInvalidInput     AuditErrorCode = "invalid_input"
	auditErrNotLoggedIn      AuditErrorCode = "not_logged_in"
	auditErrCanceled         AuditErrorCode = "canceled"
	auditErrInternal         AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: e.now().UTC(),
		EventType: eventType,
		UserID:    userID,
		RequestID: requestIDFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return auditErrCanceled
	case errors.Is(err, ErrTransport):
		return auditErrTransport
	case errors.Is(err, ErrServerRejected):
		return auditErrServerRejected
	case errors.Is(err, ErrInvalidAccountType):
		return auditErrInvalidAccount
	case errors.Is(err, ErrMapping):
		return auditErrMapping
	case errors.Is(err, ErrPersistence):
		return auditErrPersistence
	case errors.Is(err, ErrOTPRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrOTPAttemptsExceeded):
		return auditErrAttemptsExceeded
	case errors.Is(err, ErrInvalidInput):
		return auditErrInvalidInput
	case errors.Is(err, ErrNotLoggedIn):
		return auditErrNotLoggedIn
	default:
		return auditErrInternal
	}
}

func (e *Engine) now() time.Time {
	if e == nil || e.clock == nil {
		return time.Now()
	}
	return e.clock()
}
