package models

import "time"

// SubmissionRequest models the payload expected on the submission request
// topic. It describes a transfer the worker should build, sign and submit
// through the execution engine.
type SubmissionRequest struct {
	MessageID string            `json:"message_id"`
	TraceID   string            `json:"trace_id,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	Recipient string            `json:"recipient"`
	Lamports  uint64            `json:"lamports"`
	Meta      map[string]string `json:"meta,omitempty"`
}
