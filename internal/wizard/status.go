// SPDX-License-Identifier: MIT

// Package wizard holds the Touchbase call-lifecycle domain: friend-detail
// validation, phone normalization, the call status state machine and
// calendar derivation from call summaries.
package wizard

// Status is the local call status as shown to the wizard UI.
type Status string

const (
	StatusPreparing  Status = "preparing"
	StatusCalling    Status = "calling"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusUnknown    Status = "unknown"
)

// MapProviderStatus maps a provider status string onto the local status.
// The mapping is total: every unmapped provider value becomes StatusUnknown.
func MapProviderStatus(provider string) Status {
	switch provider {
	case "scheduled":
		return StatusPreparing
	case "ringing":
		return StatusCalling
	case "in-progress":
		return StatusInProgress
	case "completed":
		return StatusCompleted
	case "failed":
		return StatusFailed
	default:
		return StatusUnknown
	}
}

// Terminal reports whether no further transition is expected.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed:
		return true
	case StatusPreparing, StatusCalling, StatusInProgress, StatusUnknown:
		return false
	}
	return false
}

// Record is the wizard-side view of one triggered call. It is created when
// a call is triggered and mutated only by the status poller.
type Record struct {
	CallID       string `json:"callId"`
	Status       Status `json:"status"`
	Summary      string `json:"summary,omitempty"`
	RecordingURL string `json:"recordingUrl,omitempty"`
}
