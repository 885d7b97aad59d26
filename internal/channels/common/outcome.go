package common

import "time"

// SubmissionOutcome captures the normalized result of one channel attempt.
// Produced once per attempt and never mutated afterwards.
type SubmissionOutcome struct {
	Channel   string        `json:"channel"`
	Success   bool          `json:"success"`
	Signature string        `json:"signature,omitempty"`
	Err       string        `json:"error,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
}

// NewSuccess constructs a successful outcome for the named channel.
func NewSuccess(channel, signature string, elapsed time.Duration) *SubmissionOutcome {
	return &SubmissionOutcome{
		Channel:   channel,
		Success:   true,
		Signature: signature,
		Elapsed:   elapsed,
	}
}

// NewFailure constructs a failed outcome for the named channel.
func NewFailure(channel string, err error, elapsed time.Duration) *SubmissionOutcome {
	out := &SubmissionOutcome{
		Channel: channel,
		Elapsed: elapsed,
	}
	if err != nil {
		out.Err = err.Error()
	}
	return out
}
