package testfakes

import (
	"sync"

	"github.com/brightline-voice/mediapipeline/broadcast"
)

// BroadcastEvent records one observed call to a Broadcaster method.
type BroadcastEvent struct {
	Method  string
	CallID  string
	Payload map[string]any
}

// Broadcaster is an in-memory recording fake of broadcast.Broadcaster.
type Broadcaster struct {
	mu     sync.Mutex
	Events []BroadcastEvent
}

// BroadcastTranscriptUpdate implements broadcast.Broadcaster.
func (f *Broadcaster) BroadcastTranscriptUpdate(callID, text string, isFinal bool) {
	f.record(BroadcastEvent{Method: "transcript_update", CallID: callID, Payload: map[string]any{"text": text, "is_final": isFinal}})
}

// BroadcastCallStatusUpdate implements broadcast.Broadcaster.
func (f *Broadcaster) BroadcastCallStatusUpdate(callID, status string) {
	f.record(BroadcastEvent{Method: "call_status", CallID: callID, Payload: map[string]any{"status": status}})
}

// BroadcastLocationUpdate implements broadcast.Broadcaster.
func (f *Broadcaster) BroadcastLocationUpdate(callID string, lat, lng float64, address string) {
	f.record(BroadcastEvent{Method: "location_update", CallID: callID, Payload: map[string]any{"latitude": lat, "longitude": lng, "address": address}})
}

// BroadcastSummaryUpdate implements broadcast.Broadcaster.
func (f *Broadcaster) BroadcastSummaryUpdate(callID, summary string, keyFindings []string) {
	f.record(BroadcastEvent{Method: "summary_update", CallID: callID, Payload: map[string]any{"summary": summary, "key_findings": keyFindings}})
}

func (f *Broadcaster) record(e BroadcastEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Events = append(f.Events, e)
}

// Snapshot returns a copy of the events recorded so far.
func (f *Broadcaster) Snapshot() []BroadcastEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]BroadcastEvent(nil), f.Events...)
}

var _ broadcast.Broadcaster = (*Broadcaster)(nil)
