package authcore

import (
	"context"
	"errors"
)

// VerifyEmail proves control of a registered address. On success the account
// moves to ACTIVE with EmailVerified set and the challenge is consumed. An
// already verified account short-circuits to success without touching the
// challenge store.
func (s *Service) VerifyEmail(ctx context.Context, email, code string) error {
	if s == nil {
		return ErrServiceNotReady
	}

	email = normalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.metricInc(MetricVerificationFailure)
			return ErrChallengeInvalid
		}
		return err
	}

	if user.EmailVerified {
		return nil
	}

	if err := s.challenges.Verify(ctx, user.ID, PurposeRegistration, code); err != nil {
		s.metricInc(MetricVerificationFailure)
		s.emitAudit(ctx, auditEventVerificationConfirm, false, user.ID, email, err, nil)
		return err
	}

	verified := true
	status := StatusActive
	if _, err := s.users.Update(ctx, user.ID, UserUpdate{
		EmailVerified: &verified,
		Status:        &status,
	}); err != nil {
		return err
	}

	s.sendMail(ctx, Mail{To: user.Email, Kind: MailWelcome})

	s.metricInc(MetricVerificationSuccess)
	s.emitAudit(ctx, auditEventVerificationConfirm, true, user.ID, email, nil, nil)
	return nil
}

// ResendVerification re-issues the registration challenge for a pending
// account. It is enumeration safe: an unknown or already verified email
// returns success without sending anything.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	if s == nil {
		return ErrServiceNotReady
	}

	email = normalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return err
	}
	if user.EmailVerified {
		return nil
	}

	code, err := s.challenges.Issue(ctx, user.ID, PurposeRegistration)
	if err != nil {
		return err
	}

	s.sendMail(ctx, Mail{
		To:   user.Email,
		Kind: MailVerification,
		Params: map[string]string{
			"code": code,
		},
	})

	s.metricInc(MetricVerificationRequest)
	s.emitAudit(ctx, auditEventVerificationRequest, true, user.ID, email, nil, nil)
	return nil
}
