package authcore

import (
	"context"
	"errors"
	"fmt"
)

// Register creates a local account in PENDING_VERIFICATION state, issues an
// email verification challenge, and dispatches the verification mail. The
// mail send is best effort; a delivery failure never rolls the account back.
//
// A duplicate email returns [ErrEmailExists]. The password must satisfy the
// minimum policy or [ErrPasswordPolicy] is returned.
func (s *Service) Register(ctx context.Context, email, plainPassword string) (*SafeUser, error) {
	if s == nil {
		return nil, ErrServiceNotReady
	}

	email = normalizeEmail(email)

	hash, err := s.hasher.Hash(plainPassword)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPasswordPolicy, err)
	}

	user, err := s.users.Create(ctx, CreateUserInput{
		Email:         email,
		PasswordHash:  hash,
		Status:        StatusPendingVerification,
		NotifyByEmail: true,
		Role:          s.config.Account.DefaultRole,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			s.metricInc(MetricRegistrationDuplicate)
			s.emitAudit(ctx, auditEventRegistration, false, 0, email, ErrEmailExists, nil)
			return nil, ErrEmailExists
		}
		return nil, err
	}

	code, err := s.challenges.Issue(ctx, user.ID, PurposeRegistration)
	if err != nil {
		// The account exists; the caller recovers via ResendVerification.
		s.logger.Error(ctx, "registration challenge issue failed",
			"user_id", user.ID, "error", err)
		s.emitAudit(ctx, auditEventRegistration, false, user.ID, email, err, nil)
		return nil, err
	}

	s.sendMail(ctx, Mail{
		To:   user.Email,
		Kind: MailVerification,
		Params: map[string]string{
			"code": code,
		},
	})

	s.metricInc(MetricRegistrationSuccess)
	s.emitAudit(ctx, auditEventRegistration, true, user.ID, email, nil, nil)

	safe := user.Safe()
	return &safe, nil
}
