package goMFA

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goMFA/internal"
)

// Issue generates a fresh single-use code for the given MFA method, persists
// only its digest with an expiry, and hands the plaintext to the configured
// [DeliveryChannel] exactly once. A new issuance always supersedes any prior
// pending code for the method and resets its failure count.
//
// Issue may return an error when input validation, dependency calls, or security checks fail.
// Issue does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Issue(ctx context.Context, methodID, destination string) (*IssueResult, error) {
	if e == nil || e.tokenStore == nil || e.delivery == nil {
		return nil, ErrEngineNotReady
	}

	tenantID := tenantIDFromContext(ctx)

	if methodID == "" {
		e.metricInc(MetricIssueFailure)
		e.emitAudit(ctx, auditEventCodeIssue, false, "", tenantID, ErrInvalidMethodID, nil)
		return nil, ErrInvalidMethodID
	}
	if destination == "" {
		e.metricInc(MetricIssueFailure)
		e.emitAudit(ctx, auditEventCodeIssue, false, methodID, tenantID, ErrInvalidDestination, nil)
		return nil, ErrInvalidDestination
	}

	if err := e.resendLimiter.CheckIssue(ctx, tenantID, methodID, clientIPFromContext(ctx)); err != nil {
		mapped := mapIssueLimiterError(err)
		if errors.Is(mapped, ErrIssueRateLimited) {
			e.metricInc(MetricIssueRateLimited)
			e.emitAudit(ctx, auditEventRateLimit, false, methodID, tenantID, mapped, nil)
		} else {
			e.metricInc(MetricIssueFailure)
			e.emitAudit(ctx, auditEventCodeIssue, false, methodID, tenantID, mapped, nil)
		}
		return nil, mapped
	}

	code, err := internal.NewCode(e.config.Code.Digits)
	if err != nil {
		e.metricInc(MetricIssueFailure)
		e.emitAudit(ctx, auditEventCodeIssue, false, methodID, tenantID, ErrStoreUnavailable, func() map[string]string {
			return map[string]string{
				"reason": "code_generation_failed",
			}
		})
		return nil, ErrStoreUnavailable
	}

	record := &tokenRecord{
		Algo:         e.config.Code.HashStrategy,
		FailureCount: 0,
		ExpiresAt:    e.now().Add(e.config.Code.Validity).Unix(),
	}
	switch e.config.Code.HashStrategy {
	case HashArgon2:
		salt, err := internal.NewCodeSalt()
		if err != nil {
			e.metricInc(MetricIssueFailure)
			e.emitAudit(ctx, auditEventCodeIssue, false, methodID, tenantID, ErrStoreUnavailable, func() map[string]string {
				return map[string]string{
					"reason": "salt_generation_failed",
				}
			})
			return nil, ErrStoreUnavailable
		}
		record.Salt = salt
		record.Digest = internal.DigestArgon2(code, salt)
	default:
		record.Digest = internal.DigestSHA256(code)
	}

	receipt, err := e.tokenStore.Swap(ctx, tenantID, methodID, record)
	if err != nil {
		mapped := mapTokenStoreError(err)
		e.metricInc(MetricIssueFailure)
		e.emitAudit(ctx, auditEventCodeIssue, false, methodID, tenantID, mapped, nil)
		return nil, mapped
	}

	if err := e.delivery.Send(ctx, code, destination); err != nil {
		e.metricInc(MetricDeliveryFailure)

		// The rollback is conditional on this issue's record still being
		// live; a concurrent issue that superseded it keeps its code.
		rolledBack := false
		if e.config.Code.RollbackOnDeliveryFailure {
			if restored, restoreErr := e.tokenStore.Restore(ctx, tenantID, methodID, receipt); restoreErr == nil && restored {
				rolledBack = true
				e.metricInc(MetricDeliveryRollback)
			}
		}

		e.emitAudit(ctx, auditEventCodeDelivery, false, methodID, tenantID, ErrDeliveryFailed, func() map[string]string {
			return map[string]string{
				"rolled_back": fmt.Sprintf("%t", rolledBack),
			}
		})
		return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	e.metricInc(MetricIssueSuccess)
	e.emitAudit(ctx, auditEventCodeIssue, true, methodID, tenantID, nil, nil)

	return &IssueResult{
		ExpiresAt: time.Unix(record.ExpiresAt, 0),
	}, nil
}

func mapIssueLimiterError(err error) error {
	switch {
	case errors.Is(err, errIssueRateLimited):
		return ErrIssueRateLimited
	default:
		return ErrStoreUnavailable
	}
}

func mapTokenStoreError(err error) error {
	switch {
	case errors.Is(err, errRecordNotFound):
		return ErrNoActiveCode
	case errors.Is(err, errRecordContended):
		return ErrRecordBusy
	default:
		return ErrStoreUnavailable
	}
}
