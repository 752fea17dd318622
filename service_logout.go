package authcore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// revocationKey derives the cache key for a raw access token. Only the
// digest of the token is ever stored.
func revocationKey(accessToken string) string {
	sum := sha256.Sum256([]byte(accessToken))
	return hex.EncodeToString(sum[:])
}

// Logout revokes an access token for the remainder of its own lifetime. The
// token must verify; an unparseable or expired token returns
// [ErrTokenInvalid]. The matching refresh token is not revocable, which is a
// documented gap of the token model.
func (s *Service) Logout(ctx context.Context, accessToken string) error {
	if s == nil {
		return ErrServiceNotReady
	}
	if accessToken == "" {
		return ErrTokenInvalid
	}

	claims, err := s.tokens.ParseAccess(accessToken)
	if err != nil {
		return ErrTokenInvalid
	}

	if claims.ExpiresAt == nil {
		return ErrTokenInvalid
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 {
		return ErrTokenInvalid
	}

	if err := s.revoked.Set(ctx, revocationKey(accessToken), "revoked", remaining); err != nil {
		return err
	}

	userID, _ := parseUserID(claims.UID)

	s.metricInc(MetricLogout)
	s.emitAudit(ctx, auditEventLogout, true, userID, claims.Email, nil, nil)
	return nil
}

// VerifyAccess verifies an access token and rejects it when it has been
// revoked by Logout. It is the guard external middleware calls per request.
func (s *Service) VerifyAccess(ctx context.Context, accessToken string) (*SafeUser, error) {
	if s == nil {
		return nil, ErrServiceNotReady
	}
	if accessToken == "" {
		return nil, ErrTokenInvalid
	}

	claims, err := s.tokens.ParseAccess(accessToken)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	_, revoked, err := s.revoked.Get(ctx, revocationKey(accessToken))
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	userID, ok := parseUserID(claims.UID)
	if !ok {
		return nil, ErrTokenInvalid
	}

	return &SafeUser{
		ID:    userID,
		Email: claims.Email,
		Role:  claims.Role,
	}, nil
}
