// Package internal contains helper utilities that are intentionally private to goMFA:
// secure code generation, digest primitives, and constant-time comparison.
//
// # What this package must NOT do
//
//   - Export types that appear in the public goMFA API.
//   - Be imported by any package outside the goMFA module.
package internal
