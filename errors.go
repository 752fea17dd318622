package authcore

import "errors"

var (
	// ErrServiceNotReady is returned when a Service method is invoked before
	// the required collaborators were wired through the Builder.
	ErrServiceNotReady = errors.New("service not initialized")
	// ErrUnauthorized is the generic authentication failure.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials is returned when a password comparison fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned when no account matches the identifier.
	// It is internal vocabulary: boundaries translate it per Classify.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailExists is returned when registration hits an existing email.
	ErrEmailExists = errors.New("email already registered")
	// ErrDuplicateEmail is the store-level duplicate signal mapped to
	// ErrEmailExists by the Service.
	ErrDuplicateEmail = errors.New("store duplicate email")
	// ErrAccountUnverified is returned when a pending account attempts to
	// log in before verifying its email.
	ErrAccountUnverified = errors.New("account unverified")
	// ErrAccountSuspended is returned for any authentication attempt on a
	// suspended account.
	ErrAccountSuspended = errors.New("account suspended")
	// ErrChallengeNotFound is returned when no outstanding challenge exists
	// for the user and purpose, including a challenge already consumed.
	ErrChallengeNotFound = errors.New("challenge not found")
	// ErrChallengeInvalid is returned when the supplied code does not match
	// the outstanding challenge.
	ErrChallengeInvalid = errors.New("challenge code invalid")
	// ErrChallengeExpired is returned when the correct code arrives after
	// the validity window. The challenge is not cleared; re-issue is the
	// only recovery.
	ErrChallengeExpired = errors.New("challenge code expired")
	// ErrChallengeAttempts is returned once too many wrong codes consumed
	// the challenge.
	ErrChallengeAttempts = errors.New("challenge attempts exceeded")
	// ErrChallengeUnavailable is returned when the challenge backend cannot
	// be reached.
	ErrChallengeUnavailable = errors.New("challenge backend unavailable")
	// ErrPasswordMismatch is returned when new and confirm passwords differ.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrPasswordPolicy is returned when a new password fails the minimum
	// policy enforced by the hasher.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrRefreshInvalid is the uniform refresh failure: signature, expiry,
	// and malformed-payload errors are indistinguishable to callers.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrTokenInvalid is returned for an unverifiable access token.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenRevoked is returned when an otherwise valid access token was
	// blacklisted by logout.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrRevocationUnavailable is returned when the revocation cache cannot
	// be reached.
	ErrRevocationUnavailable = errors.New("revocation cache unavailable")
)

// Kind is the boundary-level error taxonomy. Transport layers map kinds to
// status codes; ErrUserNotFound deliberately classifies as KindUnauthorized
// so account existence never leaks through authentication endpoints.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindUnauthorized
	KindBadRequest
	KindConflict
	KindNotFound
	KindUnavailable
)

// Classify maps err to its boundary Kind.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrAccountUnverified),
		errors.Is(err, ErrAccountSuspended),
		errors.Is(err, ErrRefreshInvalid),
		errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrTokenRevoked):
		return KindUnauthorized
	case errors.Is(err, ErrChallengeNotFound),
		errors.Is(err, ErrChallengeInvalid),
		errors.Is(err, ErrChallengeExpired),
		errors.Is(err, ErrChallengeAttempts),
		errors.Is(err, ErrPasswordMismatch),
		errors.Is(err, ErrPasswordPolicy):
		return KindBadRequest
	case errors.Is(err, ErrEmailExists),
		errors.Is(err, ErrDuplicateEmail):
		return KindConflict
	case errors.Is(err, ErrChallengeUnavailable),
		errors.Is(err, ErrRevocationUnavailable),
		errors.Is(err, ErrServiceNotReady):
		return KindUnavailable
	default:
		return KindUnknown
	}
}
