// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldSessionID = "session_id"
	FieldCallID    = "call_id"
	FieldVoiceID   = "voice_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// State fields
	FieldOldStatus = "old_status"
	FieldNewStatus = "new_status"

	// Upstream fields
	FieldProvider       = "provider"
	FieldUpstreamStatus = "upstream_status"
)
