package authcore

import (
	"context"
	"testing"
)

func TestLogoutRevokesAccessToken(t *testing.T) {
	env := newTestService(t, nil)
	ctx := context.Background()

	env.registerActive(t, "logout@example.com", "correct-password-123")
	tokens := loginTokens(t, env, "logout@example.com", "correct-password-123")

	if _, err := env.svc.VerifyAccess(ctx, tokens.AccessToken); err != nil {
		t.Fatalf("VerifyAccess before logout: %v", err)
	}

	if err := env.svc.Logout(ctx, tokens.AccessToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	_, err := env.svc.VerifyAccess(ctx, tokens.AccessToken)
	mustBeErr(t, err, ErrTokenRevoked)

	// Logout does not touch other sessions' tokens.
	fresh := loginTokens(t, env, "logout@example.com", "correct-password-123")
	if _, err := env.svc.VerifyAccess(ctx, fresh.AccessToken); err != nil {
		t.Fatalf("unrelated token rejected after logout: %v", err)
	}
}

func TestLogoutRejectsGarbage(t *testing.T) {
	env := newTestService(t, nil)
	ctx := context.Background()

	mustBeErr(t, env.svc.Logout(ctx, ""), ErrTokenInvalid)
	mustBeErr(t, env.svc.Logout(ctx, "not.a.jwt"), ErrTokenInvalid)
}

func TestLogoutRejectsRefreshToken(t *testing.T) {
	env := newTestService(t, nil)

	env.registerActive(t, "refuse@example.com", "correct-password-123")
	tokens := loginTokens(t, env, "refuse@example.com", "correct-password-123")

	mustBeErr(t, env.svc.Logout(context.Background(), tokens.RefreshToken), ErrTokenInvalid)
}

func TestVerifyAccessReturnsClaimsProjection(t *testing.T) {
	env := newTestService(t, nil)
	ctx := context.Background()

	user := env.registerActive(t, "claims@example.com", "correct-password-123")
	tokens := loginTokens(t, env, "claims@example.com", "correct-password-123")

	safe, err := env.svc.VerifyAccess(ctx, tokens.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess failed: %v", err)
	}
	if safe.ID != user.ID || safe.Email != "claims@example.com" || safe.Role != "customer" {
		t.Fatalf("unexpected projection: %+v", safe)
	}
}

func TestVerifyAccessRejectsTamperedToken(t *testing.T) {
	env := newTestService(t, nil)

	env.registerActive(t, "tamper@example.com", "correct-password-123")
	tokens := loginTokens(t, env, "tamper@example.com", "correct-password-123")

	tampered := tokens.AccessToken[:len(tokens.AccessToken)-2] + "xx"
	_, err := env.svc.VerifyAccess(context.Background(), tampered)
	mustBeErr(t, err, ErrTokenInvalid)
}
