package session

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/brightline-voice/mediapipeline/logger"
	"github.com/brightline-voice/mediapipeline/telemetry/metrics"
)

// Dispatcher fans every produced artifact out to its persistence and
// broadcast side effects. The two effects run concurrently via errgroup
// so a slow store write never delays the push-channel update (or vice
// versa), and each is independently try/catch-at-boundary: a failure on
// one side never skips or cancels the other. Every call to Dispatch runs
// its own persist/broadcast pair — a CallID is not assumed 1:1 with a
// StreamID, so two streams sharing a CallID can flush concurrently and
// each must produce its own artifact, not have one collapsed into the
// other.
type Dispatcher struct{}

// NewDispatcher creates a Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Dispatch runs persist and broadcast for one artifact concurrently.
// persist's error (if any) is logged and recorded; broadcast never
// returns an error but a panicking listener is recovered and recorded
// the same way.
func (d *Dispatcher) Dispatch(ctx context.Context, artifact, callID string, persist func() error, broadcast func()) {
	var g errgroup.Group

	g.Go(func() error {
		if err := persist(); err != nil {
			metrics.DispatchOutcomesTotal.WithLabelValues(artifact, "persist", "error").Inc()
			logger.ErrorContext(ctx, "dispatch persist failed", "artifact", artifact, "call_id", callID, "error", err)
			return nil
		}
		metrics.DispatchOutcomesTotal.WithLabelValues(artifact, "persist", "ok").Inc()
		return nil
	})

	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				metrics.DispatchOutcomesTotal.WithLabelValues(artifact, "broadcast", "error").Inc()
				logger.ErrorContext(ctx, "dispatch broadcast panicked", "artifact", artifact, "call_id", callID, "recovered", r)
			}
		}()
		broadcast()
		metrics.DispatchOutcomesTotal.WithLabelValues(artifact, "broadcast", "ok").Inc()
		return nil
	})

	// Both goroutines always return nil: sub-errors are already logged
	// and recorded at their own side-effect boundary, so Wait's error
	// is unused.
	_ = g.Wait()
}
