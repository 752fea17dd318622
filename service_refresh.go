package authcore

import (
	"context"
	"errors"
)

// Refresh exchanges a valid refresh token for a fresh token pair. Every
// verification failure collapses to the uniform [ErrRefreshInvalid] so the
// caller learns nothing about why a token was rejected.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if s == nil {
		return nil, ErrServiceNotReady
	}

	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		s.metricInc(MetricRefreshFailure)
		s.emitAudit(ctx, auditEventRefreshInvalid, false, 0, "", ErrRefreshInvalid, nil)
		return nil, ErrRefreshInvalid
	}

	userID, ok := parseUserID(claims.UID)
	if !ok {
		s.metricInc(MetricRefreshFailure)
		return nil, ErrRefreshInvalid
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.metricInc(MetricRefreshFailure)
			s.emitAudit(ctx, auditEventRefreshInvalid, false, userID, claims.Email, ErrRefreshInvalid, nil)
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}

	if user.Status == StatusSuspended {
		s.metricInc(MetricRefreshFailure)
		s.emitAudit(ctx, auditEventRefreshInvalid, false, user.ID, user.Email, ErrAccountSuspended, nil)
		return nil, ErrAccountSuspended
	}

	tokens, err := s.issueTokenPair(user)
	if err != nil {
		return nil, err
	}

	s.stampLastLogin(ctx, user.ID)

	s.metricInc(MetricRefreshSuccess)
	s.emitAudit(ctx, auditEventRefreshSuccess, true, user.ID, user.Email, nil, nil)
	return tokens, nil
}
