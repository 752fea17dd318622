// Package authcore is the credential and session lifecycle core of the
// Hauldesk moving/storage booking platform: registration with email
// verification, password login with an optional email-OTP second factor,
// access/refresh token issuance and rotation, logout-time revocation,
// password reset challenges, and federated (provider ID-token) identity
// reconciliation.
//
// The package is designed for concurrent server workloads: Service methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build]. Each request is handled statelessly; the user record and
// the per-purpose challenge records are the only shared mutable state.
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Service], [Builder], [Config],
// the collaborator contracts ([UserStore], [Mailer], [RevocationCache],
// [IdentityVerifier]) and value types. HTTP routing, booking CRUD, dashboard
// aggregation, audit persistence, object storage, and mail template
// rendering live elsewhere and are consumed through those narrow contracts
// only.
//
// # Token model
//
// Access and refresh tokens are self-contained JWTs signed with distinct
// secrets. Logout blacklists the presented access token in a shared TTL
// store until its natural expiry. Refresh tokens are not revocable before
// their own expiry: a stolen refresh token remains usable after logout.
// This is a known, deliberate gap in the current token model — closing it
// requires server-side refresh state (opaque handles or a per-user
// generation counter) and is out of scope here.
//
// # Challenge model
//
// Challenges are 6-digit codes held per (user, purpose) in Redis with a TTL,
// stored as SHA-256 digests. Consumption is a single atomic
// compare-then-delete, so two concurrent verifications of the same code
// cannot both succeed. A code verified after its validity window reports
// expiry without being cleared; expired codes require re-issue, not retry.
package authcore
