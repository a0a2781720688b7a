package goMFA

import (
	"context"
	"time"
)

// DeliveryChannel defines a public type used by goMFA APIs.
//
// DeliveryChannel is the out-of-band transport capability injected by the caller.
// Send is invoked exactly once per successful Issue, after the record has been
// durably saved, and is the only place a plaintext code ever leaves the engine.
// A non-nil error marks the delivery as failed and, depending on
// [CodeConfig].RollbackOnDeliveryFailure, rolls the record back to its pre-issue state.
type DeliveryChannel interface {
	Send(ctx context.Context, code, destination string) error
}

// Clock defines a public type used by goMFA APIs.
//
// Clock supplies the engine's notion of current time. Production builds use the
// system clock; tests inject a fake to exercise expiry boundaries deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// IssueResult defines a public type used by goMFA APIs.
//
// IssueResult instances are returned by [Engine.Issue] and carry everything the
// caller may surface to the user. The plaintext code is deliberately absent.
type IssueResult struct {
	ExpiresAt time.Time
}

// RecordState defines a public type used by goMFA APIs.
//
// RecordState is the lifecycle state derived from the persisted record fields
// at observation time. It is never stored; each access re-derives it.
type RecordState int

const (
	// StateEmpty is an exported constant or variable used by the code lifecycle engine.
	StateEmpty RecordState = iota
	// StatePending is an exported constant or variable used by the code lifecycle engine.
	StatePending
	// StateLocked is an exported constant or variable used by the code lifecycle engine.
	StateLocked
	// StateExpired is an exported constant or variable used by the code lifecycle engine.
	StateExpired
)

// String describes the string operation and its observable behavior.
func (s RecordState) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePending:
		return "pending"
	case StateLocked:
		return "locked"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// RecordSnapshot defines a public type used by goMFA APIs.
//
// RecordSnapshot is a read-only view of one method's record, exposed for
// reporting and tests. It never includes the stored digest.
type RecordSnapshot struct {
	State        RecordState
	ExpiresAt    time.Time
	FailureCount int
}
