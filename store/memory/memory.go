// Package memory provides an in-process authcore.UserStore backed by maps.
// It is intended for examples and tests; production deployments use the
// postgres store.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hauldesk/authcore"
)

// Store is a mutex-guarded in-memory user store. The zero value is not
// usable; construct with New.
type Store struct {
	mu      sync.RWMutex
	seq     int64
	byID    map[int64]authcore.User
	byEmail map[string]int64
}

func New() *Store {
	return &Store{
		byID:    make(map[int64]authcore.User),
		byEmail: make(map[string]int64),
	}
}

var _ authcore.UserStore = (*Store)(nil)

func (s *Store) GetByID(_ context.Context, id int64) (authcore.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[id]
	if !ok {
		return authcore.User{}, authcore.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) GetByEmail(_ context.Context, email string) (authcore.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return authcore.User{}, authcore.ErrUserNotFound
	}
	return s.byID[id], nil
}

func (s *Store) Create(_ context.Context, input authcore.CreateUserInput) (authcore.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(input.Email)
	if _, exists := s.byEmail[email]; exists {
		return authcore.User{}, authcore.ErrDuplicateEmail
	}

	s.seq++
	now := time.Now()
	user := authcore.User{
		ID:            s.seq,
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

	s.byID[user.ID] = user
	s.byEmail[email] = user.ID
	return user, nil
}

func (s *Store) Update(_ context.Context, id int64, update authcore.UserUpdate) (authcore.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[id]
	if !ok {
		return authcore.User{}, authcore.ErrUserNotFound
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

	s.byID[id] = user
	return user, nil
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[id]
	if !ok {
		return authcore.ErrUserNotFound
	}

	delete(s.byEmail, user.Email)
	delete(s.byID, id)
	return nil
}

// SetMFA flips the MFA flag directly. Test helper.
func (s *Store) SetMFA(id int64, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user, ok := s.byID[id]; ok {
		user.MFAEnabled = enabled
		s.byID[id] = user
	}
}
