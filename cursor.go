package changestream

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// cursorConfig collects Option values at construction.
type cursorConfig struct {
	logger            *slog.Logger
	metrics           *Metrics
	maxResumeAttempts int
}

// Option configures a ResumableCursor at Open time.
type Option func(*cursorConfig)

// WithLogger overrides the default slog.Default() logger. The cursor never
// reaches for a global logger itself; it only ever uses the one it was
// given.
func WithLogger(logger *slog.Logger) Option {
	return func(c *cursorConfig) { c.logger = logger }
}

// WithMetrics attaches OpenTelemetry instrumentation. A nil Metrics (the
// default) makes every recording call a no-op.
func WithMetrics(m *Metrics) Option {
	return func(c *cursorConfig) { c.metrics = m }
}

// WithMaxResumeAttempts caps the number of consecutive resumes a single
// Next/TryNext call will perform before failing with
// ErrResumeAttemptsExceeded. The default, 0, is unbounded: the cursor keeps
// resuming for as long as the server keeps returning retryable errors,
// matching the underlying driver's own behavior.
func WithMaxResumeAttempts(n int) Option {
	return func(c *cursorConfig) { c.maxResumeAttempts = n }
}

// ResumableCursor presents a continuous, ordered stream of decoded events
// of type T over an underlying BatchCursor, transparently re-executing its
// OperationDescriptor after retryable failures. See doc.go for the package
// overview and CHANGES/4.4 of the component design for the state machine
// this implements.
type ResumableCursor[T any] struct {
	id uuid.UUID

	binding Binding
	op      OperationDescriptor[T]
	tokens  *resumeTokenStore
	guard   lifecycleGuard

	logger            *slog.Logger
	metrics           *Metrics
	maxResumeAttempts int

	wrappedMu      sync.Mutex
	wrapped        BatchCursor
	maxWireVersion int
}

// Open retains binding, executes op to establish the first underlying
// cursor, and returns a ResumableCursor ready to serve Next/TryNext. On
// failure Open releases binding itself; the caller owns binding only on
// success, via the returned cursor's eventual Close.
func Open[T any](ctx context.Context, binding Binding, op OperationDescriptor[T], opts ...Option) (*ResumableCursor[T], error) {
	cfg := cursorConfig{logger: slog.Default()}
	for _, o := range opts {
		o(&cfg)
	}

	binding.Retain()
	wrapped, err := op.Execute(ctx, binding)
	if err != nil {
		binding.Release()
		return nil, fmt.Errorf("changestream: open: %w", err)
	}

	return &ResumableCursor[T]{
		id:                uuid.New(),
		binding:           binding,
		op:                op,
		tokens:            newResumeTokenStore(nil),
		logger:            cfg.logger,
		metrics:           cfg.metrics,
		maxResumeAttempts: cfg.maxResumeAttempts,
		wrapped:           wrapped,
		maxWireVersion:    wrapped.MaxWireVersion(),
	}, nil
}

// Next returns the events of the next batch the underlying cursor's Next
// delivers, resuming the aggregation after each retryable failure, or the
// first non-retryable error. The result is empty when the underlying cursor
// delivers an empty batch.
func (c *ResumableCursor[T]) Next(ctx context.Context) ([]T, error) {
	return c.fetch(ctx, "Next", func(ctx context.Context, bc BatchCursor) (Batch, error) {
		return bc.Next(ctx)
	})
}

// TryNext fetches whatever is immediately available, resuming first if the
// current underlying cursor has already failed. A nil error with an empty
// result is a normal outcome: nothing was waiting.
func (c *ResumableCursor[T]) TryNext(ctx context.Context) ([]T, error) {
	return c.fetch(ctx, "TryNext", func(ctx context.Context, bc BatchCursor) (Batch, error) {
		return bc.TryNext(ctx)
	})
}

func (c *ResumableCursor[T]) fetch(ctx context.Context, op string, do func(context.Context, BatchCursor) (Batch, error)) ([]T, error) {
	if err := c.guard.beginFetch(op); err != nil {
		return nil, err
	}

	start := time.Now()
	events, err := c.resumableFetch(ctx, do)
	c.metrics.recordFetch(ctx, start)

	if err != nil {
		c.metrics.recordFetchError(ctx)
	}

	if mustClose, closeCtx := c.guard.endFetch(); mustClose {
		c.teardown(closeCtx)
	}
	return events, err
}

// resumableFetch runs do against the current underlying cursor, resuming
// (closing the failed cursor, re-executing the descriptor, and retrying)
// for as long as the failures it sees classify as retryable and the
// configured attempt budget allows.
func (c *ResumableCursor[T]) resumableFetch(ctx context.Context, do func(context.Context, BatchCursor) (Batch, error)) ([]T, error) {
	attempts := 0
	for {
		wrapped, maxWire := c.currentCursor()
		batch, err := do(ctx, wrapped)
		if err == nil {
			events, derr := c.decodeBatch(batch)
			if derr != nil {
				return nil, derr
			}
			c.tokens.updateFromBatch(batch)
			return events, nil
		}

		if !IsRetryable(err, maxWire) {
			return nil, err
		}

		attempts++
		if c.maxResumeAttempts > 0 && attempts > c.maxResumeAttempts {
			return nil, fmt.Errorf("%w: %w", ErrResumeAttemptsExceeded, err)
		}

		if cerr := wrapped.Close(ctx); cerr != nil {
			c.logger.WarnContext(ctx, "changestream: closing failed cursor before resume",
				"error", cerr, "cursor_id", c.id)
		}

		c.metrics.recordResumeStart(ctx)
		newWrapped, rerr := c.resume(ctx)
		c.metrics.recordResumeEnd()
		if rerr != nil {
			return nil, rerr
		}
		c.setCursor(newWrapped)
	}
}

// resume acquires a fresh read connection to learn the current wire
// version, updates the descriptor's resume parameters from the cached
// token, re-executes the aggregation, and hands back the new underlying
// cursor. It does not touch the cursor's own flags; the caller installs
// the result.
func (c *ResumableCursor[T]) resume(ctx context.Context) (BatchCursor, error) {
	var maxWire int
	if err := c.binding.WithReadConnection(ctx, func(src ConnectionSource) error {
		maxWire = src.MaxWireVersion()
		return nil
	}); err != nil {
		return nil, fmt.Errorf("changestream: resume: acquire connection: %w", err)
	}

	c.op.SetResumeParameters(c.tokens.get(), maxWire)

	newCursor, err := c.op.Execute(ctx, c.binding)
	if err != nil {
		return nil, fmt.Errorf("changestream: resume: re-execute: %w", err)
	}
	if newCursor.IsClosed() {
		return nil, errResumedCursorAlreadyClosed
	}
	return newCursor, nil
}

// decodeBatch enforces the resume-token invariant before decoding anything:
// every event in a batch must carry an "_id" the cursor can resume from, or
// the whole batch is discarded and ErrMissingResumeToken is returned
// without advancing the token.
func (c *ResumableCursor[T]) decodeBatch(b Batch) ([]T, error) {
	if len(b.Events) == 0 {
		return nil, nil
	}
	for _, raw := range b.Events {
		if _, ok := rawEventID(raw); !ok {
			return nil, ErrMissingResumeToken
		}
	}

	events := make([]T, 0, len(b.Events))
	for _, raw := range b.Events {
		v, err := c.op.Decode(raw)
		if err != nil {
			return nil, &DecodeError{Err: err}
		}
		events = append(events, v)
	}
	return events, nil
}

// Close releases the cursor's underlying resources. If a fetch is
// currently in flight, the close is deferred until that fetch completes;
// Close itself never blocks waiting for it. Close is idempotent and always
// returns nil once the cursor has been (or will be) torn down.
func (c *ResumableCursor[T]) Close(ctx context.Context) error {
	if mustClose := c.guard.requestClose(ctx); mustClose {
		c.teardown(ctx)
	}
	return nil
}

func (c *ResumableCursor[T]) teardown(ctx context.Context) {
	wrapped, _ := c.currentCursor()
	if err := wrapped.Close(ctx); err != nil {
		c.logger.WarnContext(ctx, "changestream: error closing underlying cursor",
			"error", err, "cursor_id", c.id)
	}
	c.binding.Release()
}

// IsClosed reports whether the cursor has completed (or is guaranteed to
// complete) its close; it does not block.
func (c *ResumableCursor[T]) IsClosed() bool {
	c.guard.mu.Lock()
	defer c.guard.mu.Unlock()
	return c.guard.closed || c.guard.closePending
}

// GetResumeToken returns the resume token cached from the most recent
// successful batch (its post-batch token, else its last event's _id), or
// nil if no batch has supplied one yet.
func (c *ResumableCursor[T]) GetResumeToken() ResumeToken { return c.tokens.get() }

// GetPostBatchResumeToken returns the current underlying cursor's own
// post-batch resume token, as last reported by the server, independent of
// the cursor's cached GetResumeToken position.
func (c *ResumableCursor[T]) GetPostBatchResumeToken() ResumeToken {
	wrapped, _ := c.currentCursor()
	return wrapped.PostBatchResumeToken()
}

// GetOperationTime returns the server logical clock value the stream was
// opened at or has observed, if any.
func (c *ResumableCursor[T]) GetOperationTime() (OperationTime, bool) {
	return c.op.StartAtOperationTime()
}

// GetMaxWireVersion returns the wire version of the connection backing the
// current underlying cursor.
func (c *ResumableCursor[T]) GetMaxWireVersion() int {
	_, maxWire := c.currentCursor()
	return maxWire
}

// SetBatchSize changes the batch size the underlying cursor requests on its
// next fetch from the server.
func (c *ResumableCursor[T]) SetBatchSize(n int32) {
	wrapped, _ := c.currentCursor()
	wrapped.SetBatchSize(n)
}

// GetBatchSize returns the batch size currently in effect.
func (c *ResumableCursor[T]) GetBatchSize() int32 {
	wrapped, _ := c.currentCursor()
	return wrapped.GetBatchSize()
}

// IsFirstBatchEmpty reports whether the current underlying cursor's first
// batch was empty. After a resume this is the first batch of the cursor the
// resume installed, not of the one the initial Execute returned.
func (c *ResumableCursor[T]) IsFirstBatchEmpty() bool {
	wrapped, _ := c.currentCursor()
	return wrapped.IsFirstBatchEmpty()
}

func (c *ResumableCursor[T]) currentCursor() (BatchCursor, int) {
	c.wrappedMu.Lock()
	defer c.wrappedMu.Unlock()
	return c.wrapped, c.maxWireVersion
}

func (c *ResumableCursor[T]) setCursor(bc BatchCursor) {
	c.wrappedMu.Lock()
	defer c.wrappedMu.Unlock()
	c.wrapped = bc
	c.maxWireVersion = bc.MaxWireVersion()
}
