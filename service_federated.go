package authcore

import (
	"context"
	"errors"
)

// FederatedLogin authenticates with a provider-issued identity token. A
// first-time subject gets an ACTIVE, pre-verified account with no local
// password; a returning one is reconciled (provider subject ID and picture
// refreshed when they changed) and logged in. The provider must assert the
// email as verified or the login is rejected.
func (s *Service) FederatedLogin(ctx context.Context, identityToken string) (*FederatedResult, error) {
	if s == nil {
		return nil, ErrServiceNotReady
	}
	if s.verifier == nil {
		return nil, ErrServiceNotReady
	}

	identity, err := s.verifier.Verify(ctx, identityToken)
	if err != nil {
		s.emitAudit(ctx, auditEventFederatedLogin, false, 0, "", ErrUnauthorized, nil)
		return nil, ErrUnauthorized
	}
	if identity.Email == "" || !identity.EmailVerified {
		s.emitAudit(ctx, auditEventFederatedLogin, false, 0, identity.Email, ErrUnauthorized, nil)
		return nil, ErrUnauthorized
	}

	email := normalizeEmail(identity.Email)

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		user, err = s.reconcileFederated(ctx, user, identity)
		if err != nil {
			return nil, err
		}
		return s.finishFederated(ctx, user, false)

	case errors.Is(err, ErrUserNotFound):
		user, err = s.users.Create(ctx, CreateUserInput{
			Email:         email,
			Status:        StatusActive,
			EmailVerified: true,
			NotifyByEmail: true,
			FederatedID:   identity.SubjectID,
			PictureURL:    identity.Picture,
			Role:          s.config.Account.DefaultRole,
		})
		if err != nil {
			return nil, err
		}
		s.metricInc(MetricFederatedSignup)
		return s.finishFederated(ctx, user, true)

	default:
		return nil, err
	}
}

// reconcileFederated refreshes the stored provider linkage when the provider
// reports different values than the record holds.
func (s *Service) reconcileFederated(ctx context.Context, user User, identity Identity) (User, error) {
	if user.Status == StatusSuspended {
		s.emitAudit(ctx, auditEventFederatedLogin, false, user.ID, user.Email, ErrAccountSuspended, nil)
		return User{}, ErrAccountSuspended
	}

	update := UserUpdate{}
	changed := false

	if user.FederatedID != identity.SubjectID {
		update.FederatedID = &identity.SubjectID
		changed = true
	}
	if identity.Picture != "" && user.PictureURL != identity.Picture {
		update.PictureURL = &identity.Picture
		changed = true
	}
	if !user.EmailVerified {
		// The provider vouched for the address; a pending local account
		// becomes active through it.
		verified := true
		status := StatusActive
		update.EmailVerified = &verified
		update.Status = &status
		changed = true
	}

	if !changed {
		return user, nil
	}
	return s.users.Update(ctx, user.ID, update)
}

func (s *Service) finishFederated(ctx context.Context, user User, isNew bool) (*FederatedResult, error) {
	tokens, err := s.issueTokenPair(user)
	if err != nil {
		return nil, err
	}

	s.stampLastLogin(ctx, user.ID)

	s.metricInc(MetricFederatedLogin)
	s.emitAudit(ctx, auditEventFederatedLogin, true, user.ID, user.Email, nil, func() map[string]string {
		if isNew {
			return map[string]string{"new_user": "true"}
		}
		return nil
	})

	safe := user.Safe()
	return &FederatedResult{Tokens: tokens, User: &safe, IsNewUser: isNew}, nil
}
