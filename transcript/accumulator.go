// Package transcript accumulates accepted transcript segments per call.
package transcript

import (
	"strings"
	"sync"
)

// Accumulator holds an ordered, per-CallID sequence of accepted
// transcript strings. It is safe for concurrent use across calls; within
// one call, ordering is whatever the caller's single-writer flush
// pipeline already guarantees (see the session package).
type Accumulator struct {
	mu       sync.Mutex
	segments map[string][]string
}

// New creates an empty Accumulator.
func New() *Accumulator {
	return &Accumulator{segments: make(map[string][]string)}
}

// Append adds text to the ordered sequence for callID.
func (a *Accumulator) Append(callID, text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.segments[callID] = append(a.segments[callID], text)
}

// Join returns the space-separated accumulated transcript for callID, or
// the empty string if nothing has been accepted yet.
func (a *Accumulator) Join(callID string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return strings.Join(a.segments[callID], " ")
}

// Clear releases the accumulated transcript for callID. Called when
// Finalize completes for that call.
func (a *Accumulator) Clear(callID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.segments, callID)
}
