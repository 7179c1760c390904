// Package notify provides the wake-up primitives shared between the session
// loop and its timer worker.
package notify

// Signal is a level-triggered, coalescing wake-up. Any number of Raise calls
// between two drains collapse into a single pending wake, and raising never
// blocks, so it is safe from any goroutine without extra locking.
type Signal struct {
	ch chan struct{}
}

// NewSignal returns a signal with no wake pending.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{}, 1)}
}

// Raise marks the signal pending. A no-op if a wake is already pending.
func (s *Signal) Raise() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// Ready returns the channel a select loop waits on. Receiving from it
// consumes the pending wake.
func (s *Signal) Ready() <-chan struct{} {
	return s.ch
}
