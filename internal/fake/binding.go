package fake

import (
	"context"
	"sync"

	changestream "github.com/nextworld-tools/mongo-go-driver-core"
)

// Binding is a changestream.Binding double that counts Retain/Release calls
// so tests can assert I4 (release exactly once) and lets a test inject a
// connection-acquisition failure or a wire version to report on resume.
type Binding struct {
	mu             sync.Mutex
	retainCount    int
	releaseCount   int
	maxWireVersion int
	connErr        error
}

// NewBinding builds a Binding that reports maxWireVersion on
// WithReadConnection until SetMaxWireVersion changes it.
func NewBinding(maxWireVersion int) *Binding {
	return &Binding{maxWireVersion: maxWireVersion}
}

func (b *Binding) Retain() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.retainCount++
}

func (b *Binding) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.releaseCount++
}

// RetainCount reports the total number of Retain calls observed.
func (b *Binding) RetainCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.retainCount
}

// ReleaseCount reports the total number of Release calls observed.
func (b *Binding) ReleaseCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.releaseCount
}

// SetConnectionError makes the next WithReadConnection calls fail with err.
func (b *Binding) SetConnectionError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connErr = err
}

// SetMaxWireVersion changes what WithReadConnection reports from here on.
func (b *Binding) SetMaxWireVersion(v int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maxWireVersion = v
}

func (b *Binding) WithReadConnection(ctx context.Context, fn func(changestream.ConnectionSource) error) error {
	b.mu.Lock()
	err := b.connErr
	src := connSource{maxWireVersion: b.maxWireVersion}
	b.mu.Unlock()

	if err != nil {
		return err
	}
	return fn(src)
}

type connSource struct{ maxWireVersion int }

func (s connSource) MaxWireVersion() int { return s.maxWireVersion }

var (
	_ changestream.Binding          = (*Binding)(nil)
	_ changestream.ConnectionSource = connSource{}
)
