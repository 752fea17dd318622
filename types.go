package authcore

import (
	"context"
	"time"
)

// AccountStatus represents the lifecycle state of a user account.
type AccountStatus uint8

const (
	// StatusPendingVerification is the state of a freshly registered local
	// account before its email address is proven.
	StatusPendingVerification AccountStatus = iota
	// StatusActive is the normal state of a verified account.
	StatusActive
	// StatusSuspended blocks login, refresh, and OTP completion until the
	// account is reinstated.
	StatusSuspended
)

func (s AccountStatus) String() string {
	switch s {
	case StatusPendingVerification:
		return "PENDING_VERIFICATION"
	case StatusActive:
		return "ACTIVE"
	case StatusSuspended:
		return "SUSPENDED"
	default:
		return "UNKNOWN"
	}
}

// User is the full account record held by the persistent store. Email is
// always stored lowercase and unique. PasswordHash is empty only for
// federated-only accounts, which can never pass a local password check.
type User struct {
	ID            int64
	Email         string
	PasswordHash  string
	EmailVerified bool
	Status        AccountStatus
	MFAEnabled    bool
	NotifyByEmail bool
	FederatedID   string
	PictureURL    string
	Role          string
	LastLoginAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SafeUser is the projection of a User that may leave the module. It never
// carries the password hash.
type SafeUser struct {
	ID            int64      `json:"id"`
	Email         string     `json:"email"`
	EmailVerified bool       `json:"emailVerified"`
	Status        string     `json:"status"`
	Role          string     `json:"role"`
	PictureURL    string     `json:"pictureUrl,omitempty"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
}

// Safe returns the externally shareable projection of u.
func (u User) Safe() SafeUser {
	return SafeUser{
		ID:            u.ID,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		Status:        u.Status.String(),
		Role:          u.Role,
		PictureURL:    u.PictureURL,
		LastLoginAt:   u.LastLoginAt,
	}
}

// CreateUserInput is the input for [UserStore.Create].
type CreateUserInput struct {
	Email         string
	PasswordHash  string
	Status        AccountStatus
	EmailVerified bool
	MFAEnabled    bool
	NotifyByEmail bool
	FederatedID   string
	PictureURL    string
	Role          string
}

// UserUpdate is a partial field set for [UserStore.Update]. Nil fields are
// left untouched.
type UserUpdate struct {
	PasswordHash  *string
	EmailVerified *bool
	Status        *AccountStatus
	MFAEnabled    *bool
	FederatedID   *string
	PictureURL    *string
	LastLoginAt   *time.Time
}

// UserStore is the persistent-store contract that callers must implement to
// integrate authcore with their user database. GetByEmail must match
// case-insensitively; Create must enforce a unique email and signal a
// duplicate with [ErrDuplicateEmail].
type UserStore interface {
	GetByID(ctx context.Context, id int64) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	Create(ctx context.Context, input CreateUserInput) (User, error)
	Update(ctx context.Context, id int64, update UserUpdate) (User, error)
	Delete(ctx context.Context, id int64) error
}

// TokenPair is the access/refresh credential pair issued by successful
// authentication.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginResult is returned by [Service.Login] and [Service.VerifyOTP]. When
// the account requires a second factor, MFAPending is true and Tokens is
// nil; the caller completes the flow with [Service.VerifyOTP].
type LoginResult struct {
	MFAPending bool       `json:"mfaPending"`
	Tokens     *TokenPair `json:"tokens,omitempty"`
	User       *SafeUser  `json:"user,omitempty"`
}

// FederatedResult is returned by [Service.FederatedLogin].
type FederatedResult struct {
	Tokens    *TokenPair `json:"tokens"`
	User      *SafeUser  `json:"user"`
	IsNewUser bool       `json:"isNewUser"`
}

// ChallengePurpose names the flow a challenge code was minted for. A code
// only verifies for the purpose it was issued under.
type ChallengePurpose string

const (
	// PurposeRegistration proves control of the email given at registration.
	PurposeRegistration ChallengePurpose = "register"
	// PurposeLoginMFA completes a password login on an MFA-enabled account.
	PurposeLoginMFA ChallengePurpose = "login_mfa"
	// PurposePasswordReset authorizes a password reset.
	PurposePasswordReset ChallengePurpose = "password_reset"
)

// Identity is the provider-asserted identity returned by an
// [IdentityVerifier].
type Identity struct {
	SubjectID     string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// IdentityVerifier validates a third-party identity token (e.g. a Google ID
// token) with its provider. Verification failure must be reported as
// [ErrUnauthorized].
type IdentityVerifier interface {
	Verify(ctx context.Context, identityToken string) (Identity, error)
}

// Envelope is the uniform success payload handed to transport layers.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// OK wraps a message and optional data in a success envelope.
func OK(message string, data any) Envelope {
	return Envelope{Status: "success", Message: message, Data: data}
}
