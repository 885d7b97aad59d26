package models

import "time"

// Status event constants.
const (
	StatusEventReceived  = "received"
	StatusEventAttempt   = "attempt"
	StatusEventConfirmed = "confirmed"
	StatusEventFailed    = "failed"
	StatusEventDLQ       = "dlq"
)

// StatusEvent represents lifecycle events emitted for submission requests as
// they move through the worker and the execution engine.
type StatusEvent struct {
	MessageID string    `json:"message_id"`
	EventType string    `json:"event_type"`
	Strategy  string    `json:"strategy,omitempty"`
	Channel   string    `json:"channel,omitempty"`
	Signature string    `json:"signature,omitempty"`
	Error     string    `json:"error,omitempty"`
	Retries   int       `json:"retries,omitempty"`
	ElapsedMs int64     `json:"elapsed_ms,omitempty"`
	TraceID   string    `json:"trace_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
