package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// User-facing messages
const (
	NoFileMessage = "Please select a video file before submitting."
	FailurePrefix = "Failed to process video:"
	UnknownError  = "Unknown error"
)

// Errors for submission handling
var (
	ErrSubmissionInProgress = errors.New("a submission is already in progress")
	ErrSessionClosed        = errors.New("session is closed")
)

// ValidationError is returned when the inputs are not ready for submission.
// No request is sent when it occurs.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// TransportError covers network failures, timeouts and non-2xx responses
type TransportError struct {
	StatusCode int // zero when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("request failed with status code %d", e.StatusCode)
	}
	if e.Err == nil {
		return "network error"
	}
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError covers malformed JSON, missing fields and audio that is not
// byte-preserving text
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return "invalid response"
	}
	return fmt.Sprintf("invalid response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Kind returns a short label for logging: validation, timeout, transport,
// decode or unknown
func Kind(err error) string {
	var validationErr *ValidationError
	var transportErr *TransportError
	var decodeErr *DecodeError
	switch {
	case errors.As(err, &validationErr):
		return "validation"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &transportErr):
		return "transport"
	case errors.As(err, &decodeErr):
		return "decode"
	default:
		return "unknown"
	}
}

// FailureMessage converts a failed submission into the single error line
// shown to the user. timeout is the bound that was applied to the request.
func FailureMessage(err error, timeout time.Duration) string {
	detail := ""
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded):
		detail = fmt.Sprintf("timeout of %dms exceeded", timeout.Milliseconds())
	default:
		detail = strings.TrimSpace(err.Error())
	}
	if detail == "" {
		detail = UnknownError
	}
	return FailurePrefix + " " + detail
}
