package testfakes

import (
	"context"
	"sync"

	"github.com/brightline-voice/mediapipeline/insights"
)

// InsightsExtractor is a scripted fake of insights.Extractor. Each call
// pops the next entry from Results (or returns nil, nil once exhausted).
type InsightsExtractor struct {
	mu      sync.Mutex
	Results []*insights.Insights
	Calls   []ExtractCall
}

// ExtractCall records one observed Extract invocation.
type ExtractCall struct {
	CallID     string
	Transcript string
	IsFinal    bool
}

// Extract implements insights.Extractor.
func (f *InsightsExtractor) Extract(ctx context.Context, callID, transcript string, isFinal bool) (*insights.Insights, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, ExtractCall{CallID: callID, Transcript: transcript, IsFinal: isFinal})
	if len(f.Results) == 0 {
		return nil, nil
	}
	next := f.Results[0]
	f.Results = f.Results[1:]
	return next, nil
}

var _ insights.Extractor = (*InsightsExtractor)(nil)
