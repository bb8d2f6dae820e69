// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID = "session_id"
	FieldUserID    = "user_id"
	FieldRequestID = "request_id"
	FieldJobID     = "job_id"
	FieldMessageID = "message_id"
	FieldRecipient = "recipient_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldStage     = "stage"
	FieldEventType = "event_type"

	// Dialogue fields
	FieldAction  = "action"
	FieldIntent  = "intent"
	FieldPayload = "payload"

	// Media fields
	FieldSourceURL  = "source_url"
	FieldStagedFile = "staged_file"
)
