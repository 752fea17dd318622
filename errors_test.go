package authcore

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{ErrInvalidCredentials, KindUnauthorized},
		{ErrUnauthorized, KindUnauthorized},
		// Deliberate: existence of an account is not revealed by the kind.
		{ErrUserNotFound, KindUnauthorized},
		{ErrAccountUnverified, KindUnauthorized},
		{ErrAccountSuspended, KindUnauthorized},
		{ErrRefreshInvalid, KindUnauthorized},
		{ErrTokenInvalid, KindUnauthorized},
		{ErrTokenRevoked, KindUnauthorized},
		{ErrEmailExists, KindConflict},
		{ErrPasswordMismatch, KindBadRequest},
		{ErrPasswordPolicy, KindBadRequest},
		{ErrChallengeInvalid, KindBadRequest},
		{ErrChallengeNotFound, KindBadRequest},
		{ErrChallengeExpired, KindBadRequest},
		{ErrChallengeAttempts, KindBadRequest},
		{ErrChallengeUnavailable, KindUnavailable},
		{ErrRevocationUnavailable, KindUnavailable},
	}

	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Errorf("Classify(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestClassifyWrappedError(t *testing.T) {
	wrapped := mapChallengeStoreError(errChallengeRedisUnavailable)
	if Classify(wrapped) != KindUnavailable {
		t.Fatalf("wrapped backend error must classify unavailable, got %v", Classify(wrapped))
	}
}
