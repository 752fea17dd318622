package authcore

import "context"

// SuspendUser blocks an account from logging in, refreshing, and completing
// outstanding OTP challenges until it is reinstated. Already issued access
// tokens stay valid for their remaining lifetime unless revoked by Logout.
func (s *Service) SuspendUser(ctx context.Context, userID int64) error {
	if s == nil {
		return ErrServiceNotReady
	}

	status := StatusSuspended
	user, err := s.users.Update(ctx, userID, UserUpdate{Status: &status})
	if err != nil {
		return err
	}

	s.emitAudit(ctx, auditEventAccountSuspended, true, user.ID, user.Email, nil, nil)
	return nil
}

// ReinstateUser returns a suspended account to ACTIVE. An account that never
// verified its email goes back to PENDING_VERIFICATION instead.
func (s *Service) ReinstateUser(ctx context.Context, userID int64) error {
	if s == nil {
		return ErrServiceNotReady
	}

	current, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	status := StatusActive
	if !current.EmailVerified {
		status = StatusPendingVerification
	}

	user, err := s.users.Update(ctx, userID, UserUpdate{Status: &status})
	if err != nil {
		return err
	}

	s.emitAudit(ctx, auditEventAccountReinstated, true, user.ID, user.Email, nil, nil)
	return nil
}
