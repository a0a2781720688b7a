package goMFA

import "errors"

var (
	// ErrNoActiveCode is an exported constant or variable used by the code lifecycle engine.
	ErrNoActiveCode = errors.New("no active verification code")
	// ErrCodeExpired is an exported constant or variable used by the code lifecycle engine.
	ErrCodeExpired = errors.New("verification code expired")
	// ErrInvalidCode is an exported constant or variable used by the code lifecycle engine.
	ErrInvalidCode = errors.New("invalid verification code")
	// ErrTooManyAttempts is an exported constant or variable used by the code lifecycle engine.
	ErrTooManyAttempts = errors.New("verification attempts exceeded")
	// ErrRecordBusy is an exported constant or variable used by the code lifecycle engine.
	ErrRecordBusy = errors.New("verification record busy")
	// ErrDeliveryFailed is an exported constant or variable used by the code lifecycle engine.
	ErrDeliveryFailed = errors.New("code delivery failed")
	// ErrIssueRateLimited is an exported constant or variable used by the code lifecycle engine.
	ErrIssueRateLimited = errors.New("code issuance rate limited")
	// ErrStoreUnavailable is an exported constant or variable used by the code lifecycle engine.
	ErrStoreUnavailable = errors.New("token store unavailable")
	// ErrInvalidMethodID is an exported constant or variable used by the code lifecycle engine.
	ErrInvalidMethodID = errors.New("invalid mfa method id")
	// ErrInvalidDestination is an exported constant or variable used by the code lifecycle engine.
	ErrInvalidDestination = errors.New("invalid delivery destination")
	// ErrEngineNotReady is an exported constant or variable used by the code lifecycle engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
