// Package password implements password hashing and verification with Argon2id defaults.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// The [Argon2] hasher supports transparent parameter upgrades: if the stored
// hash was produced with weaker parameters, [Argon2.NeedsUpgrade] returns true
// so the caller can re-hash on the next successful login.
//
// Verification is total: [Argon2.Verify] returns false for malformed, empty,
// or foreign-format hashes instead of failing. Federated-only accounts store
// an empty hash, and password verification against them must always be a
// plain mismatch.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy beyond the
// minimum length is enforced by the Service.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords — callers supply plaintext and receive hashes.
//   - Import any other authcore package.
//   - Log plaintext passwords or hash parameters at runtime.
package password
