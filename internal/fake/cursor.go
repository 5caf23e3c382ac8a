// Package fake provides in-memory collaborator doubles for the
// changestream package's tests: a scriptable BatchCursor, a Binding that
// counts retain/release calls, and an OperationDescriptor whose Execute
// results are scripted step by step. None of it talks to a real server.
package fake

import (
	"context"
	"sync"

	changestream "github.com/nextworld-tools/mongo-go-driver-core"
)

// Result is one scripted outcome of a Cursor's Next/TryNext call.
type Result struct {
	Batch changestream.Batch
	Err   error
}

// Cursor is a scriptable changestream.BatchCursor: each call to Next or
// TryNext pops the next Result off its queue, in order, regardless of
// which method was called. Once the queue is exhausted it returns an empty,
// error-free Batch, matching a live cursor with nothing new to report.
type Cursor struct {
	mu              sync.Mutex
	results         []Result
	pos             int
	closed          bool
	closeCalls      int
	batchSize       int32
	firstBatchEmpty bool
	maxWireVersion  int
	postBatchToken  changestream.ResumeToken
}

// NewCursor builds a Cursor that will report maxWireVersion and yield
// results in order.
func NewCursor(maxWireVersion int, results ...Result) *Cursor {
	c := &Cursor{maxWireVersion: maxWireVersion, results: results}
	if len(results) > 0 {
		c.firstBatchEmpty = len(results[0].Batch.Events) == 0
		c.postBatchToken = results[0].Batch.PostBatchResumeToken
	}
	return c
}

func (c *Cursor) pop(context.Context) (changestream.Batch, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pos >= len(c.results) {
		return changestream.Batch{}, nil
	}
	r := c.results[c.pos]
	c.pos++
	if r.Err == nil && r.Batch.PostBatchResumeToken != nil {
		c.postBatchToken = r.Batch.PostBatchResumeToken
	}
	return r.Batch, r.Err
}

func (c *Cursor) Next(ctx context.Context) (changestream.Batch, error)    { return c.pop(ctx) }
func (c *Cursor) TryNext(ctx context.Context) (changestream.Batch, error) { return c.pop(ctx) }

func (c *Cursor) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.closeCalls++
	return nil
}

// CloseCalls reports how many times Close has been called.
func (c *Cursor) CloseCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCalls
}

func (c *Cursor) SetBatchSize(n int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batchSize = n
}

func (c *Cursor) GetBatchSize() int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.batchSize
}

func (c *Cursor) PostBatchResumeToken() changestream.ResumeToken {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.postBatchToken
}

func (c *Cursor) IsFirstBatchEmpty() bool { return c.firstBatchEmpty }

func (c *Cursor) MaxWireVersion() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxWireVersion
}

func (c *Cursor) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

var _ changestream.BatchCursor = (*Cursor)(nil)
