package fake

import (
	"context"
	"sync"

	changestream "github.com/nextworld-tools/mongo-go-driver-core"
)

// ExecuteStep is one scripted outcome of a Descriptor's Execute call.
type ExecuteStep struct {
	Cursor *Cursor
	Err    error
}

// ResumeCall records one SetResumeParameters invocation, for asserting a
// resume observed the expected cached token and wire version.
type ResumeCall struct {
	Token          changestream.ResumeToken
	MaxWireVersion int
}

// Descriptor is a changestream.OperationDescriptor[T] double whose Execute
// results are scripted step by step: the first call consumes steps[0], the
// next call (including the retry after a resume) consumes steps[1], and so
// on. Decode is delegated to a caller-supplied function.
type Descriptor[T any] struct {
	mu     sync.Mutex
	steps  []ExecuteStep
	pos    int
	decode func(changestream.RawEvent) (T, error)

	resumeCalls   []ResumeCall
	operationTime *changestream.OperationTime
}

// NewDescriptor builds a Descriptor that yields steps, in order, from
// successive Execute calls.
func NewDescriptor[T any](decode func(changestream.RawEvent) (T, error), steps ...ExecuteStep) *Descriptor[T] {
	return &Descriptor[T]{decode: decode, steps: steps}
}

func (d *Descriptor[T]) Execute(ctx context.Context, binding changestream.Binding) (changestream.BatchCursor, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pos >= len(d.steps) {
		panic("fake: descriptor has no more scripted Execute steps")
	}
	step := d.steps[d.pos]
	d.pos++
	if step.Err != nil {
		return nil, step.Err
	}
	return step.Cursor, nil
}

func (d *Descriptor[T]) SetResumeParameters(token changestream.ResumeToken, maxWireVersion int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resumeCalls = append(d.resumeCalls, ResumeCall{Token: token, MaxWireVersion: maxWireVersion})
}

func (d *Descriptor[T]) Decode(raw changestream.RawEvent) (T, error) { return d.decode(raw) }

func (d *Descriptor[T]) StartAtOperationTime() (changestream.OperationTime, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.operationTime == nil {
		return changestream.OperationTime{}, false
	}
	return *d.operationTime, true
}

// SetOperationTime makes StartAtOperationTime report t from here on.
func (d *Descriptor[T]) SetOperationTime(t changestream.OperationTime) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.operationTime = &t
}

// ResumeCalls returns every SetResumeParameters invocation observed so far.
func (d *Descriptor[T]) ResumeCalls() []ResumeCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]ResumeCall(nil), d.resumeCalls...)
}

// ExecuteCalls reports how many Execute calls have been consumed.
func (d *Descriptor[T]) ExecuteCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pos
}

var _ changestream.OperationDescriptor[any] = (*Descriptor[any])(nil)
