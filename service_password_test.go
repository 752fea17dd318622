package authcore

import (
	"context"
	"testing"
)

func TestForgotPasswordFlow(t *testing.T) {
	env := newTestService(t, nil)
	ctx := context.Background()

	env.registerActive(t, "reset@example.com", "correct-password-123")

	msg, err := env.svc.ForgotPassword(ctx, "reset@example.com")
	if err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}
	if msg != MsgResetRequested {
		t.Fatalf("unexpected message: %q", msg)
	}

	mail := env.waitMail(t)
	if mail.Kind != MailPasswordReset {
		t.Fatalf("expected reset mail, got %q", mail.Kind)
	}

	err = env.svc.ResetPassword(ctx, "reset@example.com", mail.Params["code"],
		"brand-new-password-456", "brand-new-password-456")
	if err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}

	// Old password is dead, new one works.
	_, err = env.svc.Login(ctx, "reset@example.com", "correct-password-123")
	mustBeErr(t, err, ErrInvalidCredentials)
	if _, err := env.svc.Login(ctx, "reset@example.com", "brand-new-password-456"); err != nil {
		t.Fatalf("Login with new password failed: %v", err)
	}
}

func TestForgotPasswordUnknownEmailIndistinguishable(t *testing.T) {
	env := newTestService(t, nil)

	msg, err := env.svc.ForgotPassword(context.Background(), "ghost@example.com")
	if err != nil {
		t.Fatalf("unknown email must not error: %v", err)
	}
	if msg != MsgResetRequested {
		t.Fatalf("message differs for unknown email: %q", msg)
	}

	select {
	case mail := <-env.mailer.Mails():
		t.Fatalf("no mail expected for unknown email, got %+v", mail)
	default:
	}
}

func TestForgotPasswordRespectsNotifyOptOut(t *testing.T) {
	env := newTestService(t, nil)
	ctx := context.Background()

	user := env.registerActive(t, "quiet@example.com", "correct-password-123")
	env.users.mu.Lock()
	u := env.users.byID[user.ID]
	u.NotifyByEmail = false
	env.users.byID[user.ID] = u
	env.users.mu.Unlock()

	if _, err := env.svc.ForgotPassword(ctx, "quiet@example.com"); err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}

	select {
	case mail := <-env.mailer.Mails():
		t.Fatalf("opted-out account must not be mailed, got %+v", mail)
	default:
	}
}

func TestResetPasswordConfirmationMismatch(t *testing.T) {
	env := newTestService(t, nil)

	err := env.svc.ResetPassword(context.Background(), "reset@example.com",
		"123456", "new-password-one", "new-password-two")
	mustBeErr(t, err, ErrPasswordMismatch)
}

func TestResetPasswordUnknownEmail(t *testing.T) {
	env := newTestService(t, nil)

	err := env.svc.ResetPassword(context.Background(), "ghost@example.com",
		"123456", "new-password-456", "new-password-456")
	mustBeErr(t, err, ErrChallengeInvalid)
}

func TestResetPasswordCodeSingleUse(t *testing.T) {
	env := newTestService(t, nil)
	ctx := context.Background()

	env.registerActive(t, "single@example.com", "correct-password-123")
	if _, err := env.svc.ForgotPassword(ctx, "single@example.com"); err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}
	mail := env.waitMail(t)

	if err := env.svc.ResetPassword(ctx, "single@example.com", mail.Params["code"],
		"new-password-456", "new-password-456"); err != nil {
		t.Fatalf("first ResetPassword failed: %v", err)
	}

	err := env.svc.ResetPassword(ctx, "single@example.com", mail.Params["code"],
		"other-password-789", "other-password-789")
	mustBeErr(t, err, ErrChallengeNotFound)
}

func TestChangePassword(t *testing.T) {
	env := newTestService(t, nil)
	ctx := context.Background()

	user := env.registerActive(t, "change@example.com", "correct-password-123")

	mustBeErr(t,
		env.svc.ChangePassword(ctx, user.ID, "not-the-password", "new-password-456"),
		ErrInvalidCredentials)

	if err := env.svc.ChangePassword(ctx, user.ID, "correct-password-123", "new-password-456"); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}
	if _, err := env.svc.Login(ctx, "change@example.com", "new-password-456"); err != nil {
		t.Fatalf("Login with changed password failed: %v", err)
	}
}
