package models

import "time"

// Failure types for failed-submission records.
const (
	FailureTypePermanent  = "permanent"
	FailureTypeTransient  = "transient"
	FailureTypeValidation = "validation"
	FailureTypeUnknown    = "unknown"
)

// FailedSubmission is the dead-letter record written when a submission
// request could not be executed terminally.
type FailedSubmission struct {
	MessageID       string            `json:"message_id"`
	OriginalRequest any               `json:"original_request"`
	Strategy        string            `json:"strategy,omitempty"`
	Retries         int               `json:"retries"`
	FailureType     string            `json:"failure_type"`
	LastError       string            `json:"last_error,omitempty"`
	FirstFailedAt   time.Time         `json:"first_failed_at"`
	LastAttemptAt   time.Time         `json:"last_attempt_at"`
	TraceID         string            `json:"trace_id,omitempty"`
	Meta            map[string]string `json:"meta,omitempty"`
}
