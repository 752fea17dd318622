package authcore

import (
	"context"
	"errors"
	"testing"
)

func newFederatedService(t *testing.T, verifier IdentityVerifier) *testEnv {
	t.Helper()

	mr, rdb := newTestRedis(t)
	t.Cleanup(mr.Close)

	users := newFakeUserStore()
	mailer := NewChannelMailer(16)

	svc, err := New().
		WithConfig(testConfig()).
		WithRedis(rdb).
		WithUserStore(users).
		WithMailer(mailer).
		WithIdentityVerifier(verifier).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(svc.Close)

	return &testEnv{svc: svc, users: users, mailer: mailer, mr: mr}
}

func TestFederatedLoginCreatesActiveUser(t *testing.T) {
	env := newFederatedService(t, &fakeVerifier{identity: Identity{
		SubjectID:     "google-oauth2|42",
		Email:         "Fed@Example.com",
		EmailVerified: true,
		Picture:       "https://img.example.com/p.png",
	}})
	ctx := context.Background()

	result, err := env.svc.FederatedLogin(ctx, "provider-token")
	if err != nil {
		t.Fatalf("FederatedLogin failed: %v", err)
	}
	if !result.IsNewUser {
		t.Fatal("expected IsNewUser on first login")
	}
	if result.Tokens == nil || result.Tokens.AccessToken == "" {
		t.Fatal("no tokens issued")
	}

	user, err := env.users.GetByEmail(ctx, "fed@example.com")
	if err != nil {
		t.Fatalf("created user lookup: %v", err)
	}
	if user.Status != StatusActive || !user.EmailVerified {
		t.Fatalf("federated signup must be active and verified: %+v", user)
	}
	if user.PasswordHash != "" {
		t.Fatal("federated account must have no local password")
	}
	if user.FederatedID != "google-oauth2|42" {
		t.Fatalf("provider subject not stored: %q", user.FederatedID)
	}
}

func TestFederatedLoginReconcilesExistingUser(t *testing.T) {
	env := newFederatedService(t, &fakeVerifier{identity: Identity{
		SubjectID:     "google-oauth2|7",
		Email:         "known@example.com",
		EmailVerified: true,
		Picture:       "https://img.example.com/new.png",
	}})
	ctx := context.Background()

	seeded, err := env.users.Create(ctx, CreateUserInput{
		Email:         "known@example.com",
		PasswordHash:  "some-local-hash",
		Status:        StatusActive,
		EmailVerified: true,
		PictureURL:    "https://img.example.com/old.png",
		Role:          "customer",
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	result, err := env.svc.FederatedLogin(ctx, "provider-token")
	if err != nil {
		t.Fatalf("FederatedLogin failed: %v", err)
	}
	if result.IsNewUser {
		t.Fatal("existing account must not report IsNewUser")
	}

	user, _ := env.users.GetByID(ctx, seeded.ID)
	if user.FederatedID != "google-oauth2|7" {
		t.Fatalf("subject not reconciled: %q", user.FederatedID)
	}
	if user.PictureURL != "https://img.example.com/new.png" {
		t.Fatalf("picture not refreshed: %q", user.PictureURL)
	}
	if user.PasswordHash != "some-local-hash" {
		t.Fatal("local password must survive federated reconciliation")
	}
}

func TestFederatedLoginActivatesPendingAccount(t *testing.T) {
	env := newFederatedService(t, &fakeVerifier{identity: Identity{
		SubjectID:     "google-oauth2|9",
		Email:         "pendingfed@example.com",
		EmailVerified: true,
	}})
	ctx := context.Background()

	if _, err := env.users.Create(ctx, CreateUserInput{
		Email:        "pendingfed@example.com",
		PasswordHash: "hash",
		Status:       StatusPendingVerification,
		Role:         "customer",
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	if _, err := env.svc.FederatedLogin(ctx, "provider-token"); err != nil {
		t.Fatalf("FederatedLogin failed: %v", err)
	}

	user, _ := env.users.GetByEmail(ctx, "pendingfed@example.com")
	if user.Status != StatusActive || !user.EmailVerified {
		t.Fatalf("provider-verified email must activate the account: %+v", user)
	}
}

func TestFederatedLoginRejectsUnverifiedProviderEmail(t *testing.T) {
	env := newFederatedService(t, &fakeVerifier{identity: Identity{
		SubjectID: "google-oauth2|3",
		Email:     "shady@example.com",
	}})

	_, err := env.svc.FederatedLogin(context.Background(), "provider-token")
	mustBeErr(t, err, ErrUnauthorized)
}

func TestFederatedLoginProviderFailure(t *testing.T) {
	env := newFederatedService(t, &fakeVerifier{err: errors.New("provider says no")})

	_, err := env.svc.FederatedLogin(context.Background(), "provider-token")
	mustBeErr(t, err, ErrUnauthorized)
}

func TestFederatedLoginSuspendedAccount(t *testing.T) {
	env := newFederatedService(t, &fakeVerifier{identity: Identity{
		SubjectID:     "google-oauth2|5",
		Email:         "fedfrozen@example.com",
		EmailVerified: true,
	}})
	ctx := context.Background()

	if _, err := env.users.Create(ctx, CreateUserInput{
		Email:         "fedfrozen@example.com",
		Status:        StatusSuspended,
		EmailVerified: true,
		Role:          "customer",
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	_, err := env.svc.FederatedLogin(ctx, "provider-token")
	mustBeErr(t, err, ErrAccountSuspended)
}

func TestFederatedLoginWithoutVerifier(t *testing.T) {
	mr, rdb := newTestRedis(t)
	t.Cleanup(mr.Close)

	svc, err := New().
		WithConfig(testConfig()).
		WithRedis(rdb).
		WithUserStore(newFakeUserStore()).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(svc.Close)

	_, err = svc.FederatedLogin(context.Background(), "provider-token")
	mustBeErr(t, err, ErrServiceNotReady)
}
