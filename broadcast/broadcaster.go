// Package broadcast fans dispatch events out to dashboard subscribers
// over a real-time push channel, grouped per call.
package broadcast

import "strings"

// statusesToAll are call-status values broadcast to every subscriber
// rather than just the call's own group, per the push-channel contract.
var statusesToAll = map[string]bool{
	"ringing":        true,
	"stream_started": true,
	"in-progress":    true,
	"initiated":      true,
}

// GroupKey returns the subscriber-group key for a call.
func GroupKey(callID string) string {
	return "call_" + callID
}

// IsGlobalStatus reports whether a call-status value is broadcast to all
// subscribers (case-insensitive) instead of just the call's group.
func IsGlobalStatus(status string) bool {
	return statusesToAll[strings.ToLower(status)]
}

// Broadcaster is the push-channel fan-out the Dispatcher drives. The
// interface is the complete surface the pipeline core consumes; its
// transport and subscription-group bookkeeping are injected.
type Broadcaster interface {
	BroadcastTranscriptUpdate(callID, text string, isFinal bool)
	BroadcastCallStatusUpdate(callID, status string)
	BroadcastLocationUpdate(callID string, lat, lng float64, address string)
	BroadcastSummaryUpdate(callID, summary string, keyFindings []string)
}
