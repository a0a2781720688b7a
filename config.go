package goMFA

import (
	"errors"
	"time"
)

// Config defines a public type used by goMFA APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Code    CodeConfig
	Store   StoreConfig
	Resend  ResendConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

// CodeHashStrategy defines a public type used by goMFA APIs.
//
// CodeHashStrategy instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CodeHashStrategy int

const (
	// HashSHA256 is an exported constant or variable used by the code lifecycle engine.
	HashSHA256 CodeHashStrategy = iota
	// HashArgon2 is an exported constant or variable used by the code lifecycle engine.
	HashArgon2
)

/*
====================================
CODE CONFIG
====================================
*/

// CodeConfig defines a public type used by goMFA APIs.
//
// CodeConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CodeConfig struct {
	Digits                    int
	Validity                  time.Duration
	MaxFailures               int
	HashStrategy              CodeHashStrategy
	RollbackOnDeliveryFailure bool
}

/*
====================================
STORE CONFIG
====================================
*/

// StoreConfig defines a public type used by goMFA APIs.
//
// StoreConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type StoreConfig struct {
	RedisPrefix string

	// ExpiredRetention is how long a logically expired record stays
	// observable so the first validate after expiry answers CodeExpired
	// rather than NoActiveCode. After validity + retention the Redis TTL
	// removes the key entirely.
	ExpiredRetention time.Duration

	// LockRetries bounds the optimistic-transaction retry loop before a
	// contended record is reported busy.
	LockRetries int
}

/*
====================================
RESEND CONFIG
====================================
*/

// ResendConfig defines a public type used by goMFA APIs.
//
// ResendConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ResendConfig struct {
	Enabled              bool
	EnableMethodThrottle bool
	EnableIPThrottle     bool
	MaxRequests          int
	Window               time.Duration
}

// AuditConfig defines a public type used by goMFA APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by goMFA APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		Code: CodeConfig{
			Digits:                    6,
			Validity:                  5 * time.Minute,
			MaxFailures:               5,
			HashStrategy:              HashSHA256,
			RollbackOnDeliveryFailure: true,
		},
		Store: StoreConfig{
			RedisPrefix:      "mft",
			ExpiredRetention: 10 * time.Minute,
			LockRetries:      4,
		},
		Resend: ResendConfig{
			Enabled:              false,
			EnableMethodThrottle: true,
			EnableIPThrottle:     true,
			MaxRequests:          3,
			Window:               10 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// Code
	if c.Code.Digits < 6 || c.Code.Digits > 10 {
		return errors.New("Code Digits must be between 6 and 10")
	}
	if c.Code.Validity <= 0 {
		return errors.New("Code Validity must be > 0")
	}
	if c.Code.Validity > time.Hour {
		return errors.New("Code Validity must be <= 1h")
	}
	if c.Code.MaxFailures <= 0 {
		return errors.New("Code MaxFailures must be > 0")
	}
	if c.Code.MaxFailures > 10 {
		return errors.New("Code MaxFailures must be <= 10")
	}
	switch c.Code.HashStrategy {
	case HashSHA256, HashArgon2:
		// valid
	default:
		return errors.New("Code HashStrategy is invalid")
	}

	// Store
	if c.Store.RedisPrefix == "" {
		return errors.New("Store RedisPrefix must not be empty")
	}
	if c.Store.ExpiredRetention < 0 {
		return errors.New("Store ExpiredRetention must be >= 0")
	}
	if c.Store.LockRetries < 1 || c.Store.LockRetries > 16 {
		return errors.New("Store LockRetries must be between 1 and 16")
	}

	// Resend
	if c.Resend.Enabled {
		if !c.Resend.EnableMethodThrottle && !c.Resend.EnableIPThrottle {
			return errors.New("Resend must enable at least one throttle when enabled")
		}
		if c.Resend.MaxRequests <= 0 {
			return errors.New("Resend MaxRequests must be > 0")
		}
		if c.Resend.Window <= 0 {
			return errors.New("Resend Window must be > 0")
		}
	}

	// Audit
	if c.Audit.Enabled {
		if c.Audit.BufferSize <= 0 {
			return errors.New("Audit BufferSize must be > 0 when audit is enabled")
		}
	}

	return nil
}
