package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	auditEventRegistration        = "registration"
	auditEventVerificationRequest = "email_verification_request"
	auditEventVerificationConfirm = "email_verification_confirm"
	auditEventLoginSuccess        = "login_success"
	auditEventLoginFailure        = "login_failure"
	auditEventMFARequired         = "mfa_required"
	auditEventMFASuccess          = "mfa_success"
	auditEventMFAFailure          = "mfa_failure"
	auditEventPasswordResetReq    = "password_reset_request"
	auditEventPasswordResetDone   = "password_reset_confirm"
	auditEventPasswordChange      = "password_change"
	auditEventRefreshSuccess      = "refresh_success"
	auditEventRefreshInvalid      = "refresh_invalid"
	auditEventLogout              = "logout"
	auditEventFederatedLogin      = "federated_login"
	auditEventAccountSuspended    = "account_suspended"
	auditEventAccountReinstated   = "account_reinstated"
)

// emitAudit builds and queues one audit event. metadata is evaluated lazily
// so disabled audit costs nothing beyond the nil check.
func (s *Service) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID int64,
	email string,
	err error,
	metadata func() map[string]string,
) {
	if s == nil || s.audit == nil {
		return
	}

	event := AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		EventType: eventType,
		UserID:    userID,
		Email:     email,
		IP:        clientIPFromContext(ctx),
		Success:   success,
	}
	if err != nil {
		event.Error = auditCodeForError(err)
	}
	if metadata != nil {
		event.Metadata = metadata()
	}

	s.audit.Emit(ctx, event)
}

func auditCodeForError(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, ErrEmailExists), errors.Is(err, ErrDuplicateEmail):
		return "duplicate_email"
	case errors.Is(err, ErrAccountUnverified):
		return "account_unverified"
	case errors.Is(err, ErrAccountSuspended):
		return "account_suspended"
	case errors.Is(err, ErrChallengeNotFound):
		return "challenge_not_found"
	case errors.Is(err, ErrChallengeInvalid):
		return "challenge_invalid"
	case errors.Is(err, ErrChallengeExpired):
		return "challenge_expired"
	case errors.Is(err, ErrChallengeAttempts):
		return "challenge_attempts_exceeded"
	case errors.Is(err, ErrPasswordMismatch):
		return "password_mismatch"
	case errors.Is(err, ErrPasswordPolicy):
		return "password_policy"
	case errors.Is(err, ErrRefreshInvalid):
		return "refresh_invalid"
	case errors.Is(err, ErrTokenInvalid):
		return "invalid_token"
	case errors.Is(err, ErrTokenRevoked):
		return "token_revoked"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrChallengeUnavailable), errors.Is(err, ErrRevocationUnavailable):
		return "backend_unavailable"
	default:
		return "internal_error"
	}
}
