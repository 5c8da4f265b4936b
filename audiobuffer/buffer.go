// Package audiobuffer accumulates inbound μ-law audio for one session and
// classifies drained chunks as silent or voiced.
package audiobuffer

import "sync"

const (
	// DefaultSampleRate is the μ-law sample rate assumed by BytesForSeconds.
	DefaultSampleRate = 8000

	// DefaultBufferSeconds is used when no threshold is configured.
	DefaultBufferSeconds = 4.0

	minBufferSeconds = 0.5
	maxBufferSeconds = 10.0
)

// BytesForSeconds converts a buffer duration to a byte threshold at 8 kHz
// μ-law, where one second of audio is sampleRate bytes.
func BytesForSeconds(seconds float64) int {
	if seconds < minBufferSeconds {
		seconds = minBufferSeconds
	}
	if seconds > maxBufferSeconds {
		seconds = maxBufferSeconds
	}
	return int(seconds * DefaultSampleRate)
}

// Buffer is a length-bounded byte sequence of μ-law samples for one
// Session. It is guarded by its own lock rather than relying on the
// caller's single-writer discipline, since SessionManager may read its
// length from a different goroutine than the one appending to it.
type Buffer struct {
	mu             sync.Mutex
	bytes          []byte
	thresholdBytes int
}

// New creates a Buffer that drains once it accumulates thresholdBytes.
func New(thresholdBytes int) *Buffer {
	if thresholdBytes <= 0 {
		thresholdBytes = BytesForSeconds(DefaultBufferSeconds)
	}
	return &Buffer{thresholdBytes: thresholdBytes}
}

// Append adds chunk to the buffer.
func (b *Buffer) Append(chunk []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bytes = append(b.bytes, chunk...)
}

// DrainIfReady empties and returns the buffer's content iff it has
// reached the configured threshold. ok is false (and the buffer
// untouched) otherwise.
func (b *Buffer) DrainIfReady() (drained []byte, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.bytes) < b.thresholdBytes {
		return nil, false
	}
	drained = b.bytes
	b.bytes = nil
	return drained, true
}

// DrainForce empties and returns all remaining content unconditionally,
// regardless of whether the threshold was reached.
func (b *Buffer) DrainForce() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	drained := b.bytes
	b.bytes = nil
	return drained
}

// Len reports the number of buffered bytes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.bytes)
}
