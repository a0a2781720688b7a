// Package goMFA provides a single-use verification code engine for out-of-band
// multi-factor authentication (email/SMS), with Redis-backed per-record locking,
// hash-only persistence, and failure-count lockout.
//
// The package is designed for concurrent server workloads: Engine methods are safe to call
// from multiple goroutines after initialization through [Builder.Build]. The engine holds
// no in-memory session state — every lifecycle invariant is re-derived from the persisted
// record fields on each call, inside the store's per-key critical section.
//
// # Architecture boundaries
//
// goMFA is the public surface. It exposes [Engine], [Builder], [Config], and value types
// (IssueResult, RecordSnapshot, MetricsSnapshot, etc.). Code generation and digest
// primitives live under internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Expose Redis clients, record encodings, or digest internals in its public API.
//   - Persist, log, or re-derive a plaintext code after handing it to the
//     configured [DeliveryChannel].
//   - Implement message transport — delivery is a capability injected by the caller.
//
// # Correctness contract
//
// Validate is the critical path. For one record, concurrent Validate calls are serialized
// by the store's per-key lock: exactly one caller may consume a pending code, and every
// call that observes a pending record produces exactly one persisted mutation
// (success-clear or failure-increment) before returning.
package goMFA
