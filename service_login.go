package authcore

import (
	"context"
	"errors"
)

// Login authenticates a local account by email and password.
//
// A federated-only account has no password hash and always fails the
// comparison. Accounts with MFA enabled get a one-time code by mail and a
// MFAPending result without tokens; the login completes in [Service.VerifyOTP].
func (s *Service) Login(ctx context.Context, email, plainPassword string) (*LoginResult, error) {
	if s == nil {
		return nil, ErrServiceNotReady
	}

	email = normalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.metricInc(MetricLoginFailure)
			s.emitAudit(ctx, auditEventLoginFailure, false, 0, email, ErrUserNotFound, nil)
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := loginEligibility(user); err != nil {
		s.metricInc(MetricLoginFailure)
		s.emitAudit(ctx, auditEventLoginFailure, false, user.ID, email, err, nil)
		return nil, err
	}

	if !s.hasher.Verify(plainPassword, user.PasswordHash) {
		s.metricInc(MetricLoginFailure)
		s.emitAudit(ctx, auditEventLoginFailure, false, user.ID, email, ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}

	s.maybeUpgradeHash(ctx, user, plainPassword)

	if user.MFAEnabled {
		code, err := s.challenges.Issue(ctx, user.ID, PurposeLoginMFA)
		if err != nil {
			return nil, err
		}

		s.sendMail(ctx, Mail{
			To:   user.Email,
			Kind: MailLoginOTP,
			Params: map[string]string{
				"code": code,
			},
		})

		s.metricInc(MetricMFARequired)
		s.emitAudit(ctx, auditEventMFARequired, true, user.ID, email, nil, nil)
		return &LoginResult{MFAPending: true}, nil
	}

	return s.completeLogin(ctx, user, auditEventLoginSuccess, MetricLoginSuccess)
}

// VerifyOTP completes an MFA-gated login by consuming the outstanding login
// challenge. A consumed or never-issued code returns [ErrChallengeNotFound].
func (s *Service) VerifyOTP(ctx context.Context, email, code string) (*LoginResult, error) {
	if s == nil {
		return nil, ErrServiceNotReady
	}

	email = normalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}

	if err := loginEligibility(user); err != nil {
		s.metricInc(MetricMFAFailure)
		s.emitAudit(ctx, auditEventMFAFailure, false, user.ID, email, err, nil)
		return nil, err
	}

	if err := s.challenges.Verify(ctx, user.ID, PurposeLoginMFA, code); err != nil {
		s.metricInc(MetricMFAFailure)
		s.emitAudit(ctx, auditEventMFAFailure, false, user.ID, email, err, nil)
		return nil, err
	}

	return s.completeLogin(ctx, user, auditEventMFASuccess, MetricMFASuccess)
}

// loginEligibility checks the account state gates shared by password login
// and OTP completion.
func loginEligibility(user User) error {
	switch user.Status {
	case StatusSuspended:
		return ErrAccountSuspended
	case StatusPendingVerification:
		return ErrAccountUnverified
	}
	if !user.EmailVerified {
		return ErrAccountUnverified
	}
	return nil
}

func (s *Service) completeLogin(
	ctx context.Context,
	user User,
	auditEvent string,
	metric MetricID,
) (*LoginResult, error) {
	tokens, err := s.issueTokenPair(user)
	if err != nil {
		return nil, err
	}

	s.stampLastLogin(ctx, user.ID)

	s.metricInc(metric)
	s.emitAudit(ctx, auditEvent, true, user.ID, user.Email, nil, nil)

	safe := user.Safe()
	return &LoginResult{Tokens: tokens, User: &safe}, nil
}

// maybeUpgradeHash rehashes the password when the stored hash was produced
// with weaker parameters than the current configuration. Best effort.
func (s *Service) maybeUpgradeHash(ctx context.Context, user User, plainPassword string) {
	if !s.config.Password.UpgradeOnLogin {
		return
	}

	upgrade, err := s.hasher.NeedsUpgrade(user.PasswordHash)
	if err != nil || !upgrade {
		return
	}

	hash, err := s.hasher.Hash(plainPassword)
	if err != nil {
		s.logger.Warn(ctx, "password hash upgrade failed", "user_id", user.ID, "error", err)
		return
	}
	if _, err := s.users.Update(ctx, user.ID, UserUpdate{PasswordHash: &hash}); err != nil {
		s.logger.Warn(ctx, "password hash upgrade store failed", "user_id", user.ID, "error", err)
	}
}
