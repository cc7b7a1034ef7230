package core

import "errors"

// Error codes for domain errors surfaced over the wire.
const (
	ErrCodeBadRequest        = "bad_request"
	ErrCodeEmptySubmission   = "empty_submission"
	ErrCodeRecipientRequired = "recipient_required"
	ErrCodeStorageFailed     = "storage_failed"
)

var (
	// ErrInvalidUserID is returned when a registry operation names an empty user.
	ErrInvalidUserID = errors.New("invalid user id")
	// ErrHubClosed is returned when the hub loop has already stopped.
	ErrHubClosed = errors.New("hub closed")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
