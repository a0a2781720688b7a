package goMFA

import (
	"context"
	"errors"
	"time"
)

// InspectMethod reports the derived lifecycle state of one method's record
// without mutating it. An absent record (never issued, consumed, or fully
// aged out) is reported as [StateEmpty]. The stored digest is never exposed.
//
// InspectMethod may return an error when input validation, dependency calls, or security checks fail.
// InspectMethod does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) InspectMethod(ctx context.Context, methodID string) (RecordSnapshot, error) {
	if e == nil || e.tokenStore == nil {
		return RecordSnapshot{}, ErrEngineNotReady
	}
	if methodID == "" {
		return RecordSnapshot{}, ErrInvalidMethodID
	}

	record, err := e.tokenStore.Peek(ctx, tenantIDFromContext(ctx), methodID)
	if err != nil {
		if errors.Is(err, errRecordNotFound) {
			return RecordSnapshot{State: StateEmpty}, nil
		}
		return RecordSnapshot{}, ErrStoreUnavailable
	}

	snapshot := RecordSnapshot{
		ExpiresAt:    time.Unix(record.ExpiresAt, 0),
		FailureCount: int(record.FailureCount),
	}

	switch {
	case int(record.FailureCount) >= e.config.Code.MaxFailures:
		snapshot.State = StateLocked
	case !e.now().Before(snapshot.ExpiresAt):
		snapshot.State = StateExpired
	default:
		snapshot.State = StatePending
	}

	return snapshot, nil
}
