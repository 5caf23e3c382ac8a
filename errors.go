package changestream

import (
	"errors"
	"fmt"
)

// Sentinel and typed errors for the cursor's error taxonomy (see the
// component design for the full classification). Fatal-Operation and
// TransientResumable errors are not declared here — they are whatever the
// collaborator (BatchCursor, OperationDescriptor) returned; this package
// classifies them via IsRetryable. A failed fetch's error is returned as
// is; failures of Open and of a resume's setup steps are wrapped with %w.
var (
	// ErrMissingResumeToken is the Stream-Invariant-Violation error: a
	// RawEvent with no "_id" field was about to be delivered to the
	// caller. The offending batch is discarded in full and the resume
	// token is left unchanged.
	ErrMissingResumeToken = errors.New("changestream: cannot provide resume functionality when the resume token is missing")

	// ErrResumeAttemptsExceeded is returned when a cursor configured with
	// WithMaxResumeAttempts has exhausted its retry budget for a single
	// fetch. The wrapped error is the last classified-retryable failure.
	ErrResumeAttemptsExceeded = errors.New("changestream: exceeded maximum resume attempts")

	// errResumedCursorAlreadyClosed is the non-retryable error produced
	// when a resume's re-execute step succeeds but hands back an
	// already-closed BatchCursor.
	errResumedCursorAlreadyClosed = errors.New("changestream: resumed cursor was already closed")
)

// ErrCursorClosed is returned by Next/TryNext when called after Close has
// already completed. Op names the call that was rejected, e.g. "Next" or
// "TryNext", matching the Java driver's "next() called after the cursor was
// closed." message shape.
type ErrCursorClosed struct {
	Op string
}

func (e *ErrCursorClosed) Error() string {
	return fmt.Sprintf("changestream: %s() called after the cursor was closed", e.Op)
}

// DecodeError wraps a failure to decode a single RawEvent into T. The token
// is not advanced when this error is returned.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("changestream: decode event: %v", e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }
