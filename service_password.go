package authcore

import (
	"context"
	"errors"
	"fmt"
)

// MsgResetRequested is the uniform response message for ForgotPassword. The
// same text is returned whether or not the address is registered.
const MsgResetRequested = "If an account exists for that email, a reset code has been sent."

// ForgotPassword starts a password reset. It always succeeds with the same
// observable result regardless of whether the address is registered, so it
// cannot be used to probe for accounts. When the account exists a reset
// challenge is issued and, if the account accepts mail, a reset code is sent.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	if s == nil {
		return "", ErrServiceNotReady
	}

	email = normalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return MsgResetRequested, nil
		}
		return "", err
	}

	code, err := s.challenges.Issue(ctx, user.ID, PurposePasswordReset)
	if err != nil {
		return "", err
	}

	if user.NotifyByEmail {
		s.sendMail(ctx, Mail{
			To:   user.Email,
			Kind: MailPasswordReset,
			Params: map[string]string{
				"code": code,
			},
		})
	}

	s.metricInc(MetricPasswordResetRequest)
	s.emitAudit(ctx, auditEventPasswordResetReq, true, user.ID, email, nil, nil)
	return MsgResetRequested, nil
}

// ResetPassword completes a reset started by ForgotPassword. The new and
// confirmation passwords must match; an unknown email reports
// [ErrChallengeInvalid] rather than revealing whether the account exists.
func (s *Service) ResetPassword(
	ctx context.Context,
	email, code, newPassword, confirmPassword string,
) error {
	if s == nil {
		return ErrServiceNotReady
	}

	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}

	email = normalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.metricInc(MetricPasswordResetFailure)
			return ErrChallengeInvalid
		}
		return err
	}

	if err := s.challenges.Verify(ctx, user.ID, PurposePasswordReset, code); err != nil {
		s.metricInc(MetricPasswordResetFailure)
		s.emitAudit(ctx, auditEventPasswordResetDone, false, user.ID, email, err, nil)
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordPolicy, err)
	}

	if _, err := s.users.Update(ctx, user.ID, UserUpdate{PasswordHash: &hash}); err != nil {
		return err
	}

	s.metricInc(MetricPasswordResetSuccess)
	s.emitAudit(ctx, auditEventPasswordResetDone, true, user.ID, email, nil, nil)
	return nil
}

// ChangePassword replaces the password of an authenticated account after
// re-checking the current one.
func (s *Service) ChangePassword(
	ctx context.Context,
	userID int64,
	currentPassword, newPassword string,
) error {
	if s == nil {
		return ErrServiceNotReady
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		s.metricInc(MetricPasswordChangeFailure)
		s.emitAudit(ctx, auditEventPasswordChange, false, user.ID, user.Email, ErrInvalidCredentials, nil)
		return ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordPolicy, err)
	}

	if _, err := s.users.Update(ctx, user.ID, UserUpdate{PasswordHash: &hash}); err != nil {
		return err
	}

	s.metricInc(MetricPasswordChangeSuccess)
	s.emitAudit(ctx, auditEventPasswordChange, true, user.ID, user.Email, nil, nil)
	return nil
}
