package models

import "time"

// Failure kinds attached to terminal ExecutionResults so callers can
// distinguish "rejected" from "too slow" without parsing error strings.
const (
	FailureKindRejected  = "rejected"
	FailureKindExhausted = "exhausted"
	FailureKindTimeout   = "timeout"
	FailureKindInternal  = "internal"
)

// ExecutionResult is the single caller-visible value produced by every
// ExecuteTransaction call. All error conditions terminate as a result; the
// engine never lets a fault cross its boundary.
type ExecutionResult struct {
	Success     bool          `json:"success"`
	Signature   string        `json:"signature,omitempty"`
	Error       string        `json:"error,omitempty"`
	FailureKind string        `json:"failure_kind,omitempty"`
	Strategy    string        `json:"strategy"`
	Channel     string        `json:"channel,omitempty"`
	Retries     int           `json:"retries"`
	Elapsed     time.Duration `json:"elapsed"`
}

// TimedOut reports whether the result represents an overall-timeout failure
// rather than a rejection.
func (r *ExecutionResult) TimedOut() bool {
	return r != nil && !r.Success && r.FailureKind == FailureKindTimeout
}
