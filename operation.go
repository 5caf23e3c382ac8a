package changestream

import (
	"context"
	"sync"
)

// ExecuteOptions is what a Descriptor hands to its Executor for one call to
// Execute: the server-side options computed from user-supplied start
// options, the cached resume token, and the observed wire version.
type ExecuteOptions struct {
	// ResumeAfter is the token most recently passed to SetResumeParameters,
	// when that token is non-nil; it takes priority over
	// StartAfter/StartAtOperationTime.
	ResumeAfter ResumeToken

	// StartAfter and StartAtOperationTime are the caller's original
	// intent, honored verbatim on the very first Execute only — a
	// Descriptor must not silently downgrade either to a resume-after.
	StartAfter           ResumeToken
	StartAtOperationTime *OperationTime

	MaxWireVersion int
}

// Executor performs the actual wire-level aggregation for a change stream
// and returns the resulting BatchCursor plus the operation time the server
// reported, if any. A Descriptor never touches a socket itself; Executor is
// the abstract operation executor §1 assigns that job to.
type Executor func(ctx context.Context, binding Binding, opts ExecuteOptions) (BatchCursor, *OperationTime, error)

// Decoder decodes a single RawEvent into T.
type Decoder[T any] func(raw RawEvent) (T, error)

// DescriptorOption configures a Descriptor at construction.
type DescriptorOption func(*descriptorParams)

type descriptorParams struct {
	startAfter           ResumeToken
	startAtOperationTime *OperationTime
}

// WithStartAfter seeds the descriptor's first Execute with a caller-supplied
// resume token, matching the server's startAfter option: resume strictly
// after the event that token identifies, even if that event no longer
// exists.
func WithStartAfter(token ResumeToken) DescriptorOption {
	return func(p *descriptorParams) { p.startAfter = token }
}

// WithStartAtOperationTime seeds the descriptor's first Execute with a
// logical-clock pin instead of a resume token.
func WithStartAtOperationTime(t OperationTime) DescriptorOption {
	return func(p *descriptorParams) { p.startAtOperationTime = &t }
}

// Descriptor is the default OperationDescriptor[T]: the immutable identity
// of an aggregation (carried inside executor via closure) plus the mutable
// resume parameters of §4.2/§4.3. Only a ResumableCursor calls
// SetResumeParameters; every other method is safe to call concurrently with
// that.
type Descriptor[T any] struct {
	executor Executor
	decode   Decoder[T]

	initial descriptorParams

	mu             sync.Mutex
	resumeToken    ResumeToken
	maxWireVersion int
	executedOnce   bool
	operationTime  *OperationTime
}

// NewDescriptor builds a Descriptor around an Executor and a Decoder.
func NewDescriptor[T any](executor Executor, decode Decoder[T], opts ...DescriptorOption) *Descriptor[T] {
	var p descriptorParams
	for _, opt := range opts {
		opt(&p)
	}
	return &Descriptor[T]{executor: executor, decode: decode, initial: p}
}

// Execute opens a fresh BatchCursor. On the first call it honors the
// caller's original start intent (WithStartAfter / WithStartAtOperationTime)
// verbatim; on every call thereafter — including resumes — the cached
// resume token takes priority, per §4.2.
func (d *Descriptor[T]) Execute(ctx context.Context, binding Binding) (BatchCursor, error) {
	d.mu.Lock()
	opts := ExecuteOptions{MaxWireVersion: d.maxWireVersion}
	if d.resumeToken != nil {
		opts.ResumeAfter = d.resumeToken
	} else if !d.executedOnce {
		opts.StartAfter = d.initial.startAfter
		opts.StartAtOperationTime = d.initial.startAtOperationTime
	}
	d.mu.Unlock()

	cursor, opTime, err := d.executor(ctx, binding, opts)

	d.mu.Lock()
	d.executedOnce = true
	if opTime != nil {
		d.operationTime = opTime
	}
	d.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return cursor, nil
}

// SetResumeParameters mutates the descriptor so the next Execute resumes
// from token, observed on a connection advertising maxWireVersion. Only a
// ResumableCursor's retry path calls this.
func (d *Descriptor[T]) SetResumeParameters(token ResumeToken, maxWireVersion int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resumeToken = token
	d.maxWireVersion = maxWireVersion
}

// Decode decodes a single RawEvent into T.
func (d *Descriptor[T]) Decode(raw RawEvent) (T, error) {
	return d.decode(raw)
}

// StartAtOperationTime returns the operation time the executor most
// recently reported, or, if none was reported, the pin requested with
// WithStartAtOperationTime.
func (d *Descriptor[T]) StartAtOperationTime() (OperationTime, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.operationTime != nil {
		return *d.operationTime, true
	}
	if d.initial.startAtOperationTime != nil {
		return *d.initial.startAtOperationTime, true
	}
	return OperationTime{}, false
}

var _ OperationDescriptor[any] = (*Descriptor[any])(nil)
