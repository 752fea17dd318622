package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hauldesk/authcore/internal"
)

const challengeCodeDigits = 6

// challengeEngine issues and verifies the one-time codes behind email
// verification, login MFA and password reset. It owns the mapping from
// purposes to validity windows and from store failures to the exported
// challenge errors.
type challengeEngine struct {
	store       *challengeStore
	cfg         ChallengeConfig
	maxAttempts int
}

func newChallengeEngine(store *challengeStore, cfg ChallengeConfig) *challengeEngine {
	return &challengeEngine{
		store:       store,
		cfg:         cfg,
		maxAttempts: cfg.MaxAttempts,
	}
}

func (e *challengeEngine) ttlFor(purpose ChallengePurpose) time.Duration {
	switch purpose {
	case PurposeRegistration:
		return e.cfg.RegistrationTTL
	case PurposeLoginMFA:
		return e.cfg.LoginTTL
	case PurposePasswordReset:
		return e.cfg.ResetTTL
	default:
		return e.cfg.LoginTTL
	}
}

// Issue creates a fresh code for (user, purpose), replacing any outstanding
// one, and returns the plaintext code for delivery. The store only ever sees
// the digest.
func (e *challengeEngine) Issue(
	ctx context.Context,
	userID int64,
	purpose ChallengePurpose,
) (string, error) {
	code, err := internal.NewOTP(challengeCodeDigits)
	if err != nil {
		return "", fmt.Errorf("generate challenge code: %w", err)
	}

	record := &challengeRecord{
		UserID:    userID,
		CodeHash:  internal.HashCode(code),
		ExpiresAt: time.Now().Add(e.ttlFor(purpose)).Unix(),
		Purpose:   purpose,
	}

	if err := e.store.Save(ctx, record, e.ttlFor(purpose)); err != nil {
		return "", mapChallengeStoreError(err)
	}

	return code, nil
}

// Verify consumes the outstanding challenge for (user, purpose) if code
// matches. Codes are rejected before touching the store unless they are
// exactly the expected width and numeric.
func (e *challengeEngine) Verify(
	ctx context.Context,
	userID int64,
	purpose ChallengePurpose,
	code string,
) error {
	if len(code) != challengeCodeDigits || !internal.IsNumericString(code) {
		return ErrChallengeInvalid
	}

	_, err := e.store.Consume(ctx, purpose, userID, internal.HashCode(code), e.maxAttempts)
	if err != nil {
		return mapChallengeStoreError(err)
	}

	return nil
}

func mapChallengeStoreError(err error) error {
	switch {
	case errors.Is(err, errChallengeNotFound),
		errors.Is(err, errChallengePurposeMismatched),
		errors.Is(err, errChallengeRecordMalformed):
		return ErrChallengeNotFound
	case errors.Is(err, errChallengeCodeMismatch):
		return ErrChallengeInvalid
	case errors.Is(err, errChallengeRecordExpired):
		return ErrChallengeExpired
	case errors.Is(err, errChallengeAttemptsExceeded):
		return ErrChallengeAttempts
	case errors.Is(err, errChallengeRedisUnavailable):
		return fmt.Errorf("%w: %v", ErrChallengeUnavailable, err)
	default:
		return fmt.Errorf("%w: %v", ErrChallengeUnavailable, err)
	}
}
