package changestream

import (
	"context"
	"fmt"
	"sync"
)

// lifecycleGuard implements the three-flag close-while-busy discipline: at
// most one fetch is ever in flight (I3), close is idempotent and safe to
// call concurrently with an in-flight fetch, and the binding is released
// exactly once (I4).
//
// All three flags are read and written only while mu is held; callers never
// see a torn combination.
type lifecycleGuard struct {
	mu                  sync.Mutex
	closed              bool
	operationInProgress bool
	closePending        bool
	closeCtx            context.Context
}

// beginFetch transitions (F,F,F)->(F,T,F). It returns an error if the
// cursor is already closed or another fetch is already in flight, rejecting
// the call without starting a fetch.
func (g *lifecycleGuard) beginFetch(op string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return &ErrCursorClosed{Op: op}
	}
	if g.operationInProgress {
		return fmt.Errorf("changestream: %s() called while another fetch is in progress", op)
	}
	g.operationInProgress = true
	return nil
}

// endFetch clears operationInProgress and reports whether a deferred close
// must now be performed by the caller, along with the context the deferred
// Close call was originally given.
func (g *lifecycleGuard) endFetch() (mustClose bool, closeCtx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.operationInProgress = false
	if g.closePending {
		g.closePending = false
		g.closed = true
		ctx := g.closeCtx
		g.closeCtx = nil
		if ctx == nil {
			ctx = context.Background()
		}
		return true, ctx
	}
	return false, nil
}

// requestClose is called by Close. It reports whether the caller must
// perform the close's side effects (closing the underlying cursor and
// releasing the binding) itself, right now. If a fetch is in flight, the
// close is deferred and ctx is retained for the eventual endFetch to use.
func (g *lifecycleGuard) requestClose(ctx context.Context) (mustClose bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return false
	}
	if g.operationInProgress {
		g.closePending = true
		g.closeCtx = ctx
		return false
	}
	g.closed = true
	return true
}

func (g *lifecycleGuard) isClosed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}
