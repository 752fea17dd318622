package authcore

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

// fakeUserStore is an in-memory UserStore with failure injection for tests.
type fakeUserStore struct {
	mu      sync.Mutex
	seq     int64
	byID    map[int64]User
	byEmail map[string]int64

	updateErr error
	createErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byID:    make(map[int64]User),
		byEmail: make(map[string]int64),
	}
}

func (f *fakeUserStore) GetByID(_ context.Context, id int64) (User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.byID[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id, ok := f.byEmail[strings.ToLower(email)]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return f.byID[id], nil
}

func (f *fakeUserStore) Create(_ context.Context, input CreateUserInput) (User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return User{}, f.createErr
	}

	email := strings.ToLower(input.Email)
	if _, exists := f.byEmail[email]; exists {
		return User{}, ErrDuplicateEmail
	}

	f.seq++
	now := time.Now()
	user := User{
		ID:            f.seq,
		Email:         email,
		PasswordHash:  input.PasswordHash,
		EmailVerified: input.EmailVerified,
		Status:        input.Status,
		MFAEnabled:    input.MFAEnabled,
		NotifyByEmail: input.NotifyByEmail,
		FederatedID:   input.FederatedID,
		PictureURL:    input.PictureURL,
		Role:          input.Role,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	f.byID[user.ID] = user
	f.byEmail[email] = user.ID
	return user, nil
}

func (f *fakeUserStore) Update(_ context.Context, id int64, update UserUpdate) (User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return User{}, f.updateErr
	}

	user, ok := f.byID[id]
	if !ok {
		return User{}, ErrUserNotFound
	}

	if update.PasswordHash != nil {
		user.PasswordHash = *update.PasswordHash
	}
	if update.EmailVerified != nil {
		user.EmailVerified = *update.EmailVerified
	}
	if update.Status != nil {
		user.Status = *update.Status
	}
	if update.MFAEnabled != nil {
		user.MFAEnabled = *update.MFAEnabled
	}
	if update.FederatedID != nil {
		user.FederatedID = *update.FederatedID
	}
	if update.PictureURL != nil {
		user.PictureURL = *update.PictureURL
	}
	if update.LastLoginAt != nil {
		t := *update.LastLoginAt
		user.LastLoginAt = &t
	}
	user.UpdatedAt = time.Now()

	f.byID[id] = user
	return user, nil
}

func (f *fakeUserStore) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	delete(f.byEmail, user.Email)
	delete(f.byID, id)
	return nil
}

func (f *fakeUserStore) setMFA(id int64, enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if user, ok := f.byID[id]; ok {
		user.MFAEnabled = enabled
		f.byID[id] = user
	}
}

// fakeVerifier returns a canned identity or error.
type fakeVerifier struct {
	identity Identity
	err      error
}

func (f *fakeVerifier) Verify(context.Context, string) (Identity, error) {
	if f.err != nil {
		return Identity{}, f.err
	}
	return f.identity, nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.AccessSecret = []byte("test-access-secret-0123456789abcdef")
	cfg.JWT.RefreshSecret = []byte("test-refresh-secret-0123456789abcdef")
	// Cheap hashing keeps the suite fast.
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}

type testEnv struct {
	svc    *Service
	users  *fakeUserStore
	mailer *ChannelMailer
	mr     *miniredis.Miniredis
}

func newTestService(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()

	mr, rdb := newTestRedis(t)
	t.Cleanup(mr.Close)

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	users := newFakeUserStore()
	mailer := NewChannelMailer(16)

	svc, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserStore(users).
		WithMailer(mailer).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(svc.Close)

	return &testEnv{svc: svc, users: users, mailer: mailer, mr: mr}
}

// waitMail blocks until the async mail goroutine delivers, or fails the test.
func (e *testEnv) waitMail(t *testing.T) Mail {
	t.Helper()

	select {
	case mail := <-e.mailer.Mails():
		return mail
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for mail")
		return Mail{}
	}
}

// registerActive registers and verifies a user, returning it in ACTIVE state.
func (e *testEnv) registerActive(t *testing.T, email, password string) User {
	t.Helper()
	ctx := context.Background()

	if _, err := e.svc.Register(ctx, email, password); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	mail := e.waitMail(t)
	if mail.Kind != MailVerification {
		t.Fatalf("expected verification mail, got %q", mail.Kind)
	}

	if err := e.svc.VerifyEmail(ctx, email, mail.Params["code"]); err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}

	// Drain the welcome mail so later waits see fresh messages.
	welcome := e.waitMail(t)
	if welcome.Kind != MailWelcome {
		t.Fatalf("expected welcome mail, got %q", welcome.Kind)
	}

	user, err := e.users.GetByEmail(ctx, email)
	if err != nil {
		t.Fatalf("GetByEmail after verify: %v", err)
	}
	return user
}

func mustBeErr(t *testing.T, got, want error) {
	t.Helper()
	if !errors.Is(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
