// Package testfakes provides in-memory fakes for every adapter and
// store interface the session package depends on, so session tests
// never reach a real network or Redis instance.
package testfakes

import (
	"context"
	"sync"

	"github.com/brightline-voice/mediapipeline/transcription"
)

// TranscriptionClient is a scripted fake of transcription.Client. Each
// call to Transcribe pops the next entry from Results (or returns nil,
// nil once exhausted), and records every call it saw.
type TranscriptionClient struct {
	mu      sync.Mutex
	Results []*transcription.Result
	Calls   []TranscribeCall
}

// TranscribeCall records one observed Transcribe invocation.
type TranscribeCall struct {
	CallID   string
	StreamID string
	WAV      []byte
	IsFinal  bool
}

// Transcribe implements transcription.Client.
func (f *TranscriptionClient) Transcribe(ctx context.Context, callID, streamID string, wav []byte, isFinal bool) (*transcription.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, TranscribeCall{CallID: callID, StreamID: streamID, WAV: wav, IsFinal: isFinal})
	if len(f.Results) == 0 {
		return nil, nil
	}
	next := f.Results[0]
	f.Results = f.Results[1:]
	return next, nil
}

// CallCount reports how many times Transcribe was invoked.
func (f *TranscriptionClient) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

var _ transcription.Client = (*TranscriptionClient)(nil)
