package session

import (
	"sync"
	"time"

	"github.com/brightline-voice/mediapipeline/audiobuffer"
)

// state is a Session's position in the Initializing/Active/Finalizing/
// Closed lifecycle. Flushing is represented by the flushing flag rather
// than a distinct state value: it is re-entered and left many times
// while a Session stays Active.
type state int

const (
	stateInitializing state = iota
	stateActive
	stateFinalizing
	stateClosed
)

// Session is one carrier media stream's in-flight pipeline state. A
// Session is looked up by its immutable streamID and mutated only by the
// goroutine(s) driving that stream's ingestion: the WebSocketFrameReader
// loop for OnMedia/OnStop, and at most one background flush goroutine at
// a time for the transcription round trip.
type Session struct {
	streamID  string
	callID    string
	startedAt time.Time
	audio     *audiobuffer.Buffer

	mu       sync.Mutex
	state    state
	flushing bool
	sequence int64

	// flushWG tracks the (at most one) in-flight background flush
	// goroutine so OnStop can let it settle before Finalize begins.
	flushWG sync.WaitGroup
}

func newSession(streamID, callID string, thresholdBytes int) *Session {
	return &Session{
		streamID:  streamID,
		callID:    callID,
		startedAt: time.Now(),
		audio:     audiobuffer.New(thresholdBytes),
		state:     stateActive,
	}
}

// nextSequence assigns the next strictly-increasing TranscriptChunk
// sequence number for this Session, starting from 0.
func (s *Session) nextSequence() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq := s.sequence
	s.sequence++
	return seq
}

// beginFlush reports whether a flush may start now: false if one is
// already in flight. On true, the caller owns flushing until it calls
// endFlush.
func (s *Session) beginFlush() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flushing {
		return false
	}
	s.flushing = true
	return true
}

func (s *Session) endFlush() {
	s.mu.Lock()
	s.flushing = false
	s.mu.Unlock()
}

func (s *Session) setState(st state) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// StreamDuration reports how long this Session has been active.
func (s *Session) StreamDuration() time.Duration {
	return time.Since(s.startedAt)
}
