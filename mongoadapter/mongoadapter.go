// Package mongoadapter is the concrete, wire-level binding of the
// changestream package against go.mongodb.org/mongo-driver/v2: a
// BatchCursor backed by a real *mongo.ChangeStream, an Executor that opens
// one, and a Binding backed by a *mongo.Client. It does not reimplement any
// of the driver's socket I/O, wire codec, authentication, or topology
// handling — it only calls into them.
package mongoadapter

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	changestream "github.com/nextworld-tools/mongo-go-driver-core"
)

// Cursor wraps a *mongo.ChangeStream as a changestream.BatchCursor. A single
// Cursor is discarded wholesale on resume; the driver's own ChangeStream
// has no notion of "steal the underlying and keep the wrapper" the way the
// Java source's internal cursor does, so TryNext here drains whatever the
// driver's TryNext surfaces (a Next call with a context already expired by
// the caller) rather than a distinct non-blocking primitive.
type Cursor struct {
	stream          *mongo.ChangeStream
	batchSize       int32
	firstBatchEmpty bool
	firstBatchSeen  bool
	maxWireVersion  int
	closed          bool
}

// NewCursor wraps an already-opened ChangeStream. maxWireVersion is the
// value observed on the connection used to open it (the driver's public
// API does not expose this post hoc, so the caller that opened stream
// supplies it).
func NewCursor(stream *mongo.ChangeStream, maxWireVersion int) *Cursor {
	return &Cursor{stream: stream, maxWireVersion: maxWireVersion}
}

func (c *Cursor) Next(ctx context.Context) (changestream.Batch, error) {
	return c.drain(ctx, c.stream.Next)
}

func (c *Cursor) TryNext(ctx context.Context) (changestream.Batch, error) {
	return c.drain(ctx, c.stream.TryNext)
}

// drain pulls every document the driver's cursor already has buffered
// using hasNext, matching the server's batch-at-a-time delivery the
// abstract BatchCursor contract expects; the underlying *mongo.ChangeStream
// decodes one document per Next/TryNext call rather than a whole batch.
func (c *Cursor) drain(ctx context.Context, hasNext func(context.Context) bool) (changestream.Batch, error) {
	var batch changestream.Batch
	for hasNext(ctx) {
		raw := c.stream.Current
		batch.Events = append(batch.Events, changestream.RawEvent(append(bson.Raw{}, raw...)))
		if c.stream.RemainingBatchLength() == 0 {
			break
		}
	}
	if err := c.stream.Err(); err != nil {
		return changestream.Batch{}, err
	}

	if token := c.stream.ResumeToken(); token != nil {
		batch.PostBatchResumeToken = changestream.ResumeToken(token)
	}

	if !c.firstBatchSeen {
		c.firstBatchSeen = true
		c.firstBatchEmpty = len(batch.Events) == 0
	}
	return batch, nil
}

func (c *Cursor) Close(ctx context.Context) error {
	c.closed = true
	return c.stream.Close(ctx)
}

func (c *Cursor) SetBatchSize(n int32) { c.batchSize = n }
func (c *Cursor) GetBatchSize() int32  { return c.batchSize }

func (c *Cursor) PostBatchResumeToken() changestream.ResumeToken {
	return changestream.ResumeToken(c.stream.ResumeToken())
}

func (c *Cursor) IsFirstBatchEmpty() bool { return c.firstBatchEmpty }
func (c *Cursor) MaxWireVersion() int     { return c.maxWireVersion }
func (c *Cursor) IsClosed() bool          { return c.closed }

var _ changestream.BatchCursor = (*Cursor)(nil)

// Target names the collection (or database, for a deployment/database-wide
// stream) a WatchExecutor opens against.
type Target struct {
	Database   *mongo.Database
	Collection *mongo.Collection
	Pipeline   mongo.Pipeline
}

// WatchExecutor builds a changestream.Executor that opens a change stream
// against target, honoring the ExecuteOptions the core computes (resume
// token, start-after, start-at-operation-time) on every call, including
// resumes.
func WatchExecutor(target Target) changestream.Executor {
	return func(ctx context.Context, binding changestream.Binding, opts changestream.ExecuteOptions) (changestream.BatchCursor, *changestream.OperationTime, error) {
		csOpts := options.ChangeStream()
		switch {
		case opts.ResumeAfter != nil:
			csOpts.SetResumeAfter(bson.Raw(opts.ResumeAfter))
		case opts.StartAfter != nil:
			csOpts.SetStartAfter(bson.Raw(opts.StartAfter))
		case opts.StartAtOperationTime != nil:
			csOpts.SetStartAtOperationTime(&bson.Timestamp{
				T: opts.StartAtOperationTime.T,
				I: opts.StartAtOperationTime.I,
			})
		}

		var (
			stream *mongo.ChangeStream
			err    error
		)
		switch {
		case target.Collection != nil:
			stream, err = target.Collection.Watch(ctx, target.Pipeline, csOpts)
		case target.Database != nil:
			stream, err = target.Database.Watch(ctx, target.Pipeline, csOpts)
		default:
			return nil, nil, fmt.Errorf("mongoadapter: target has neither Collection nor Database set")
		}
		if err != nil {
			return nil, nil, err
		}

		maxWire := opts.MaxWireVersion
		if maxWire == 0 {
			if err := binding.WithReadConnection(ctx, func(src changestream.ConnectionSource) error {
				maxWire = src.MaxWireVersion()
				return nil
			}); err != nil {
				_ = stream.Close(ctx)
				return nil, nil, fmt.Errorf("mongoadapter: determine wire version: %w", err)
			}
		}

		return NewCursor(stream, maxWire), nil, nil
	}
}

// Binding is a changestream.Binding backed by a *mongo.Client. Retain and
// Release are no-ops and keep no count — the driver's own session pool and
// connection pool do the actual resource management; this Binding never
// opens or closes a session itself.
type Binding struct {
	client *mongo.Client
}

// NewBinding wraps client. The returned Binding does not own client's
// lifecycle — the caller connects and disconnects it independently.
func NewBinding(client *mongo.Client) *Binding {
	return &Binding{client: client}
}

func (b *Binding) Retain()  {}
func (b *Binding) Release() {}

// WithReadConnection determines the wire version of the server the client
// would currently route a read to, by running a "hello" command on the admin
// database through the driver's own server selection (readpref.Primary), so
// it is subject to the same topology awareness as any other read.
func (b *Binding) WithReadConnection(ctx context.Context, fn func(changestream.ConnectionSource) error) error {
	var result struct {
		MaxWireVersion int `bson:"maxWireVersion"`
	}
	cmd := bson.D{{Key: "hello", Value: 1}}
	if err := b.client.Database("admin").RunCommand(ctx, cmd, options.RunCmd().SetReadPreference(readpref.Primary())).Decode(&result); err != nil {
		return fmt.Errorf("mongoadapter: hello: %w", err)
	}
	return fn(connectionSource{maxWireVersion: result.MaxWireVersion})
}

type connectionSource struct{ maxWireVersion int }

func (s connectionSource) MaxWireVersion() int { return s.maxWireVersion }

var (
	_ changestream.Binding          = (*Binding)(nil)
	_ changestream.ConnectionSource = connectionSource{}
)
