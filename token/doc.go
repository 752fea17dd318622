// Package token manages signed access/refresh token pairs using distinct
// signing secrets and strict validation semantics.
//
// Access tokens are short-lived and authorize individual requests; refresh
// tokens are long-lived and exchanged for a fresh pair. The two are signed
// with separate secrets so that possession of one never implies signing
// capability for the other. Every verification failure — bad signature,
// expiry, malformed payload — surfaces as the single [ErrInvalidToken] so
// callers cannot distinguish (or leak) which check failed.
package token
