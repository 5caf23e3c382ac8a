package changestream

import (
	"errors"
	"net"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// resumableChangeStreamErrorLabel is the label the server attaches to a
// command error, at or above resumableLabelMinWireVersion, to explicitly
// mark it as safe for the driver's resume protocol to recover from.
const resumableChangeStreamErrorLabel = "ResumableChangeStreamError"

// resumableLabelMinWireVersion is the wire version (MongoDB 4.4) at and
// above which the server reliably attaches resumableChangeStreamErrorLabel;
// below it the label may be absent even for errors that are otherwise
// resumable, so classification falls back to the fixed code list.
const resumableLabelMinWireVersion = 9

// resumableErrorCodes are server error codes that denote loss of
// server-side cursor context the resume protocol is designed to recover
// from: cursor-not-found, interrupted, not-primary, host-unreachable,
// socket-exception and their equivalents.
var resumableErrorCodes = map[int32]struct{}{
	6:     {}, // HostUnreachable
	7:     {}, // HostNotFound
	43:    {}, // CursorNotFound
	63:    {}, // StaleShardVersion
	89:    {}, // NetworkTimeout
	91:    {}, // ShutdownInProgress
	133:   {}, // FailedToSatisfyReadPreference
	150:   {}, // StaleEpoch
	189:   {}, // PrimarySteppedDown
	234:   {}, // RetryChangeStream
	262:   {}, // ExceededTimeLimit
	9001:  {}, // SocketException
	10107: {}, // NotWritablePrimary
	11600: {}, // InterruptedAtShutdown
	11602: {}, // InterruptedDueToReplStateChange
	13388: {}, // StaleConfig
	13435: {}, // NotPrimaryNoSecondaryOk
	13436: {}, // NotPrimaryOrSecondary
}

// IsRetryable reports whether err, observed on a connection advertising
// maxWireVersion, is eligible for the resume protocol. It is a pure
// function so it can be unit-tested directly against collaborator
// failures, independent of any live server.
//
// Non-retryable by construction: ErrMissingResumeToken, DecodeError,
// ErrCursorClosed, and any error this function does not otherwise
// recognize (authorization and command-argument validation errors fall
// through to "not retryable" because they carry none of the signals below).
func IsRetryable(err error, maxWireVersion int) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrMissingResumeToken) {
		return false
	}
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return false
	}
	var closedErr *ErrCursorClosed
	if errors.As(err, &closedErr) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		if _, ok := resumableErrorCodes[cmdErr.Code]; ok {
			return true
		}
		if maxWireVersion >= resumableLabelMinWireVersion && cmdErr.HasErrorLabel(resumableChangeStreamErrorLabel) {
			return true
		}
		return false
	}

	var srvErr mongo.ServerError
	if errors.As(err, &srvErr) {
		for code := range resumableErrorCodes {
			if srvErr.HasErrorCode(int(code)) {
				return true
			}
		}
		if maxWireVersion >= resumableLabelMinWireVersion && srvErr.HasErrorLabel(resumableChangeStreamErrorLabel) {
			return true
		}
		return false
	}

	return false
}
