package changestream

import "context"

// Binding is a reference-counted handle to an acquired read scope (a
// selected server plus associated session context). The ResumableCursor
// retains exactly one reference for its own lifetime and releases it exactly
// once, at Close. Implementations must make Retain/Release safe to call
// concurrently with WithReadConnection.
type Binding interface {
	Retain()
	Release()

	// WithReadConnection acquires a connection source for a read and
	// invokes fn with it. The source is released by the implementation
	// before WithReadConnection returns; fn must not retain it past its
	// call. fn's error is returned unchanged to the caller.
	WithReadConnection(ctx context.Context, fn func(ConnectionSource) error) error
}

// ConnectionSource describes the server a connection acquired through a
// Binding is talking to, for exactly as long as a resume's setup step needs
// it.
type ConnectionSource interface {
	MaxWireVersion() int
}

// BatchCursor produces successive batches of raw, undecoded change
// documents from a single server-side aggregation. It is owned exclusively
// by one ResumableCursor at a time; ownership transfers wholesale on
// resume (see OperationDescriptor.Execute).
type BatchCursor interface {
	// Next fetches the next batch, blocking until at least one event is
	// available or the context is done.
	Next(ctx context.Context) (Batch, error)

	// TryNext fetches whatever is immediately available without
	// blocking; an empty, error-free Batch is a normal result.
	TryNext(ctx context.Context) (Batch, error)

	Close(ctx context.Context) error

	SetBatchSize(n int32)
	GetBatchSize() int32

	// PostBatchResumeToken is the most recent post-batch token the server
	// attached, or nil if none has been observed yet.
	PostBatchResumeToken() ResumeToken

	IsFirstBatchEmpty() bool
	MaxWireVersion() int

	// IsClosed reports whether the cursor has already been closed,
	// including by the server side (e.g. a resume's re-execute handing
	// back a cursor that was already torn down).
	IsClosed() bool
}

// OperationDescriptor is the immutable identity of a change-stream
// aggregation plus its mutable resume parameters. Only a ResumableCursor
// calls SetResumeParameters; every other method must be safe to call
// concurrently with that.
type OperationDescriptor[T any] interface {
	// Execute opens a fresh BatchCursor using the descriptor's current
	// resume parameters (see SetResumeParameters). binding is retained
	// for the lifetime of the returned cursor's ownership chain; Execute
	// itself must not retain it beyond that.
	Execute(ctx context.Context, binding Binding) (BatchCursor, error)

	// SetResumeParameters updates the options the next Execute will use.
	// token may be nil (no known position yet); maxWireVersion is the
	// value observed on the connection used to decide to resume.
	SetResumeParameters(token ResumeToken, maxWireVersion int)

	// Decode decodes a single RawEvent into a T.
	Decode(raw RawEvent) (T, error)

	// StartAtOperationTime is the logical clock pin the stream was (or
	// will be) opened at, if any was requested or observed.
	StartAtOperationTime() (OperationTime, bool)
}

// OperationTime is the server logical clock value a change stream may be
// pinned to. It is opaque to this package beyond being forwarded to
// Event callers via ResumableCursor.GetOperationTime.
type OperationTime struct {
	T, I uint32
}
