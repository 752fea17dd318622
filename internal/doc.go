// Package internal contains helper utilities that are intentionally private
// to authcore, currently secure random code generation and digest helpers
// shared by the challenge engine and its stores.
//
// # What this package must NOT do
//
//   - Export types that appear in the public authcore API.
//   - Be imported by any package outside the authcore module.
package internal
