package sse

import (
	"errors"
	"fmt"
)

// Sentinel errors for session and stream error conditions.
var (
	// ErrSessionClosed is returned when an emit is attempted on a closed
	// session. The sink is never touched after close.
	ErrSessionClosed = errors.New("sse: session closed")

	// ErrStreamingUnsupported is returned when the response writer cannot
	// flush, so no event stream can be established.
	ErrStreamingUnsupported = errors.New("sse: response writer does not support streaming")
)

// WriteError wraps a transport write failure with session context. The first
// write failure closes the session for good; a mid-stream failure on a single
// physical connection is not recoverable within the same session.
type WriteError struct {
	SessionID string
	Op        string // Operation that failed
	Err       error  // Underlying error
}

// Error returns the error message with session context.
func (e *WriteError) Error() string {
	return fmt.Sprintf("sse: session %s: %s: %v", e.SessionID, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *WriteError) Unwrap() error {
	return e.Err
}

// DecodeError wraps a failure to decode an inbound signal snapshot into a
// caller-declared shape.
type DecodeError struct {
	Err error
}

// Error returns the error message.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("sse: decode signals: %v", e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *DecodeError) Unwrap() error {
	return e.Err
}
