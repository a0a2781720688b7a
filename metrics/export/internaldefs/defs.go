package internaldefs

import (
	goMFA "github.com/MrEthical07/goMFA"
)

// CounterDef defines a public type used by goMFA APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   goMFA.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by goMFA APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   goMFA.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the code lifecycle engine.
var CounterDefs = []CounterDef{
	{ID: goMFA.MetricIssueSuccess, Name: "gomfa_issue_success_total", Help: "Successfully issued and delivered codes."},
	{ID: goMFA.MetricIssueFailure, Name: "gomfa_issue_failure_total", Help: "Issue operations that failed before or during persistence."},
	{ID: goMFA.MetricIssueRateLimited, Name: "gomfa_issue_rate_limited_total", Help: "Issue operations denied by the resend throttle."},
	{ID: goMFA.MetricDeliveryFailure, Name: "gomfa_delivery_failure_total", Help: "Delivery channel send failures."},
	{ID: goMFA.MetricDeliveryRollback, Name: "gomfa_delivery_rollback_total", Help: "Records rolled back after a delivery failure."},
	{ID: goMFA.MetricValidateSuccess, Name: "gomfa_validate_success_total", Help: "Codes consumed successfully."},
	{ID: goMFA.MetricValidateInvalid, Name: "gomfa_validate_invalid_total", Help: "Validate attempts with a non-matching code."},
	{ID: goMFA.MetricValidateExpired, Name: "gomfa_validate_expired_total", Help: "Validate attempts against an expired code."},
	{ID: goMFA.MetricValidateNoCode, Name: "gomfa_validate_no_code_total", Help: "Validate attempts with no active code."},
	{ID: goMFA.MetricValidateLocked, Name: "gomfa_validate_locked_total", Help: "Validate attempts refused by the failure lockout."},
	{ID: goMFA.MetricValidateBusy, Name: "gomfa_validate_busy_total", Help: "Validate attempts that lost the per-record lock."},
}

// HistogramDefs is an exported constant or variable used by the code lifecycle engine.
var HistogramDefs = []HistogramDef{
	{ID: goMFA.MetricValidateLatency, Name: "gomfa_validate_latency_seconds", Help: "Validate latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the code lifecycle engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the code lifecycle engine.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
