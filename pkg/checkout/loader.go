package checkout

import (
	"context"
	"fmt"
	"sync"
)

// LoadFunc materializes the third-party checkout capability (in a browser
// this would be injecting the provider script tag; here it is whatever
// produces a working Presenter).
type LoadFunc func(ctx context.Context) (Presenter, error)

// Loader guarantees the checkout capability is loaded exactly once and
// exposes readiness. Load failures are not retried automatically; the next
// EnsureLoaded call re-attempts only while no presenter is held.
type Loader struct {
	mu        sync.Mutex
	load      LoadFunc
	presenter Presenter
	ready     bool
	sink      *LogSink
}

// NewLoader builds a loader around load. sink may be nil.
func NewLoader(load LoadFunc, sink *LogSink) *Loader {
	return &Loader{load: load, sink: sink}
}

// EnsureLoaded is an idempotent short-circuit: if the capability is already
// present it returns immediately, otherwise it attempts one load.
func (l *Loader) EnsureLoaded(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.presenter != nil {
		l.ready = true
		return nil
	}
	p, err := l.load(ctx)
	if err != nil {
		l.ready = false
		l.sink.Appendf("checkout load failed: %v", err)
		return fmt.Errorf("checkout load: %w", err)
	}
	l.presenter = p
	l.ready = true
	l.sink.Append("checkout ready")
	return nil
}

// Ready reports whether a checkout can be presented right now.
func (l *Loader) Ready() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ready && l.presenter != nil
}

// Presenter returns the loaded capability, or nil when not ready.
func (l *Loader) Presenter() Presenter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.ready {
		return nil
	}
	return l.presenter
}

// Release drops the loaded capability on teardown so a later EnsureLoaded
// starts clean.
func (l *Loader) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.presenter = nil
	l.ready = false
}
