// Package transcription adapts the Media Session Pipeline to a cloud
// speech-to-text API. Adapters in this package never raise to the
// session layer: every remote or parse failure is logged and reported
// as "no result" so the pipeline can continue.
package transcription

import (
	"context"
	"fmt"
	"time"
)

// Result is the transport DTO returned by a successful transcription.
type Result struct {
	CallID       string
	StreamID     string
	Text         string
	IsFinal      bool
	Confidence   *float64
	TimestampUTC time.Time
}

// Client transcribes one flushed audio chunk.
//
// A nil result with a nil error means "no result": silence, an empty
// response, or a transient remote failure already logged by the
// implementation. A non-nil error indicates a programming error (empty
// callID/streamID) rather than a remote failure.
type Client interface {
	Transcribe(ctx context.Context, callID, streamID string, wav []byte, isFinal bool) (*Result, error)
}

// validateArgs panics on a programming error per the adapter contract:
// an empty callID or streamID is an argument-range violation, not a
// transient failure to be swallowed.
func validateArgs(callID, streamID string) error {
	if callID == "" {
		return fmt.Errorf("transcription: callID must not be empty")
	}
	if streamID == "" {
		return fmt.Errorf("transcription: streamID must not be empty")
	}
	return nil
}
