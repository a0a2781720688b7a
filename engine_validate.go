package goMFA

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goMFA/internal"
)

// Validate checks a presented code against the method's pending record and
// consumes it on success. Every call that observes a pending record commits
// exactly one mutation before returning: the success path clears the record,
// the mismatch path increments its failure count. Both happen inside the
// store's per-key critical section, so two concurrent calls can never both
// be told the same code matched.
//
// The outcome is one of the exported sentinels: nil on success, or
// [ErrNoActiveCode], [ErrCodeExpired], [ErrInvalidCode], [ErrTooManyAttempts],
// [ErrRecordBusy], [ErrStoreUnavailable]. Only ErrRecordBusy is transient and
// safe to retry; every other failure requires a new Issue.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Validate(ctx context.Context, methodID, code string) error {
	if e == nil || e.tokenStore == nil {
		return ErrEngineNotReady
	}

	start := time.Now()
	defer func() {
		e.metricObserve(MetricValidateLatency, time.Since(start))
	}()

	tenantID := tenantIDFromContext(ctx)

	if methodID == "" {
		e.emitAudit(ctx, auditEventCodeValidate, false, "", tenantID, ErrInvalidMethodID, nil)
		return ErrInvalidMethodID
	}

	now := e.now()
	maxFailures := uint16(e.config.Code.MaxFailures)

	err := e.tokenStore.WithLock(ctx, tenantID, methodID, func(record *tokenRecord) (tokenStoreOp, error) {
		// Lockout wins over every other check: once the failure budget is
		// exhausted the digest is never compared again, and the attempt is
		// not counted further.
		if record.FailureCount >= maxFailures {
			return opKeep, ErrTooManyAttempts
		}

		if !now.Before(time.Unix(record.ExpiresAt, 0)) {
			return opDelete, ErrCodeExpired
		}

		// Generated codes are all-numeric, so anything else can never match;
		// skip the digest cost but still count the attempt.
		if !internal.IsNumericString(code) {
			record.FailureCount++
			return opPersist, ErrInvalidCode
		}

		if !internal.DigestEqual(digestForRecord(code, record), record.Digest) {
			record.FailureCount++
			return opPersist, ErrInvalidCode
		}

		return opDelete, nil
	})

	switch {
	case err == nil:
		e.metricInc(MetricValidateSuccess)
		e.emitAudit(ctx, auditEventCodeValidate, true, methodID, tenantID, nil, nil)
		return nil

	case errors.Is(err, ErrTooManyAttempts):
		e.metricInc(MetricValidateLocked)
		e.emitAudit(ctx, auditEventCodeValidate, false, methodID, tenantID, err, nil)
		return ErrTooManyAttempts

	case errors.Is(err, ErrCodeExpired):
		e.metricInc(MetricValidateExpired)
		e.emitAudit(ctx, auditEventCodeValidate, false, methodID, tenantID, err, nil)
		return ErrCodeExpired

	case errors.Is(err, ErrInvalidCode):
		e.metricInc(MetricValidateInvalid)
		e.emitAudit(ctx, auditEventCodeValidate, false, methodID, tenantID, err, nil)
		return ErrInvalidCode

	case errors.Is(err, errRecordNotFound):
		e.metricInc(MetricValidateNoCode)
		e.emitAudit(ctx, auditEventCodeValidate, false, methodID, tenantID, ErrNoActiveCode, nil)
		return ErrNoActiveCode

	case errors.Is(err, errRecordContended):
		e.metricInc(MetricValidateBusy)
		e.emitAudit(ctx, auditEventCodeValidate, false, methodID, tenantID, ErrRecordBusy, nil)
		return ErrRecordBusy

	default:
		e.emitAudit(ctx, auditEventCodeValidate, false, methodID, tenantID, ErrStoreUnavailable, nil)
		return ErrStoreUnavailable
	}
}

func digestForRecord(code string, record *tokenRecord) [internal.CodeDigestSize]byte {
	if record.Algo == HashArgon2 {
		return internal.DigestArgon2(code, record.Salt)
	}
	return internal.DigestSHA256(code)
}
