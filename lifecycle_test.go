package changestream

import (
	"context"
	"testing"
)

func TestLifecycleGuardBasicFetch(t *testing.T) {
	var g lifecycleGuard

	if err := g.beginFetch("Next"); err != nil {
		t.Fatalf("beginFetch: %v", err)
	}
	if mustClose, _ := g.endFetch(); mustClose {
		t.Fatalf("endFetch: unexpected mustClose with no pending close")
	}
	if g.isClosed() {
		t.Fatalf("guard reports closed with no Close requested")
	}
}

func TestLifecycleGuardCloseWhileIdle(t *testing.T) {
	var g lifecycleGuard

	if mustClose := g.requestClose(context.Background()); !mustClose {
		t.Fatalf("requestClose while idle: want mustClose=true")
	}
	if !g.isClosed() {
		t.Fatalf("guard not marked closed")
	}
	if mustClose := g.requestClose(context.Background()); mustClose {
		t.Fatalf("second requestClose: want mustClose=false (idempotent)")
	}
}

func TestLifecycleGuardCloseDuringFetch(t *testing.T) {
	var g lifecycleGuard

	if err := g.beginFetch("Next"); err != nil {
		t.Fatalf("beginFetch: %v", err)
	}
	if mustClose := g.requestClose(context.Background()); mustClose {
		t.Fatalf("requestClose during fetch: want deferred (mustClose=false)")
	}
	if g.isClosed() {
		t.Fatalf("guard reports closed before the in-flight fetch ended")
	}

	mustClose, ctx := g.endFetch()
	if !mustClose {
		t.Fatalf("endFetch after deferred close: want mustClose=true")
	}
	if ctx == nil {
		t.Fatalf("endFetch: want the context requestClose was given")
	}
	if !g.isClosed() {
		t.Fatalf("guard not marked closed after deferred close ran")
	}
}

func TestLifecycleGuardRejectsFetchAfterClose(t *testing.T) {
	var g lifecycleGuard
	g.requestClose(context.Background())

	err := g.beginFetch("TryNext")
	if err == nil {
		t.Fatalf("beginFetch after close: want error, got nil")
	}
	closedErr, ok := err.(*ErrCursorClosed)
	if !ok {
		t.Fatalf("err = %T, want *ErrCursorClosed", err)
	}
	if closedErr.Op != "TryNext" {
		t.Fatalf("Op = %q, want %q", closedErr.Op, "TryNext")
	}
}
