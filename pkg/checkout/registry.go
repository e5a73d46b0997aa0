package checkout

import "sync"

// outcome is the single terminal signal of a checkout session: either a
// completion response or a user close.
type outcome struct {
	completion *Completion
	closed     bool
}

// registry routes checkout callbacks back to the flow instance that opened
// the session, keyed by the attempt reference. Two concurrent flows can
// never clobber each other's callbacks, and only the first signal for a
// reference wins.
type registry struct {
	mu      sync.Mutex
	waiters map[string]chan outcome
}

func newRegistry() *registry {
	return &registry{waiters: make(map[string]chan outcome)}
}

func (r *registry) register(reference string) <-chan outcome {
	ch := make(chan outcome, 1)
	r.mu.Lock()
	r.waiters[reference] = ch
	r.mu.Unlock()
	return ch
}

// resolve delivers the outcome for a reference. Late or duplicate signals
// for an already-resolved reference are dropped.
func (r *registry) resolve(reference string, out outcome) bool {
	r.mu.Lock()
	ch, ok := r.waiters[reference]
	if ok {
		delete(r.waiters, reference)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	ch <- out
	return true
}

func (r *registry) remove(reference string) {
	r.mu.Lock()
	delete(r.waiters, reference)
	r.mu.Unlock()
}
