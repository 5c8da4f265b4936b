// Package session owns the process-wide streamID-to-Session registry and
// drives the pipeline's core lifecycle: decoding inbound audio, handing
// it to VAD and the codec, calling out to transcription and insights,
// and dispatching the results to persistence and the push channel.
package session

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/brightline-voice/mediapipeline/audiobuffer"
	"github.com/brightline-voice/mediapipeline/audiocodec"
	"github.com/brightline-voice/mediapipeline/broadcast"
	"github.com/brightline-voice/mediapipeline/insights"
	"github.com/brightline-voice/mediapipeline/logger"
	"github.com/brightline-voice/mediapipeline/store"
	"github.com/brightline-voice/mediapipeline/telemetry"
	"github.com/brightline-voice/mediapipeline/telemetry/metrics"
	"github.com/brightline-voice/mediapipeline/transcript"
	"github.com/brightline-voice/mediapipeline/transcription"
)

// Dependencies are the collaborators a Manager dispatches to. All fields
// are required; Manager performs no nil-checking beyond what a failing
// call to a nil interface naturally does.
type Dependencies struct {
	Transcription transcription.Client
	Insights      insights.Extractor
	Broadcaster   broadcast.Broadcaster

	Calls        store.CallStore
	Transcripts  store.TranscriptStore
	Summaries    store.SummaryStore
	Locations    store.LocationStore

	Accumulator *transcript.Accumulator
	Silence     *audiobuffer.SilenceDetector

	SampleRate           int
	BufferThresholdBytes int
}

// Manager owns the streamID → Session registry and arbitrates lifecycle
// transitions per stream.
type Manager struct {
	deps       Dependencies
	dispatcher *Dispatcher

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a Manager with no active sessions.
func NewManager(deps Dependencies) *Manager {
	return &Manager{
		deps:       deps,
		dispatcher: NewDispatcher(),
		sessions:   make(map[string]*Session),
	}
}

// OnStart creates (or, idempotently, reuses) the Session for streamID.
func (m *Manager) OnStart(ctx context.Context, streamID, callID string) {
	if streamID == "" {
		logger.ErrorContext(ctx, "OnStart with empty streamID")
		return
	}
	ctx = logger.WithLoggingContext(ctx, &logger.LoggingFields{CallID: callID, StreamID: streamID, Component: "session_manager"})

	m.mu.Lock()
	if _, exists := m.sessions[streamID]; exists {
		m.mu.Unlock()
		logger.WarnContext(ctx, "OnStart for already-registered stream; reusing existing session")
		return
	}
	sess := newSession(streamID, callID, m.deps.BufferThresholdBytes)
	m.sessions[streamID] = sess
	m.mu.Unlock()

	metrics.SessionsActive.Inc()
	logger.InfoContext(ctx, "session started")

	now := time.Now()
	m.dispatcher.Dispatch(ctx, "call_start", callID,
		func() error {
			if err := m.deps.Calls.UpsertCall(ctx, store.CallRecord{
				CallID:          callID,
				Status:          "stream_started",
				StartedAt:       now,
				HasActiveStream: true,
				StreamID:        streamID,
			}); err != nil {
				return err
			}
			return m.deps.Calls.UpdateStream(ctx, callID, streamID, true)
		},
		func() {
			m.deps.Broadcaster.BroadcastCallStatusUpdate(callID, "stream_started")
			m.deps.Broadcaster.BroadcastCallStatusUpdate(callID, "in-progress")
		},
	)
}

// OnMedia appends one base64-encoded μ-law chunk to the Session's
// AudioBuffer and, if the buffer is now ready, kicks off a background
// flush. It never blocks on the transcription round trip.
func (m *Manager) OnMedia(ctx context.Context, streamID, base64Payload string) {
	sess := m.lookup(streamID)
	if sess == nil {
		logger.WarnContext(ctx, "media for unknown stream", "stream_id", streamID)
		return
	}
	if strings.TrimSpace(base64Payload) == "" {
		return
	}

	raw, err := base64.StdEncoding.DecodeString(base64Payload)
	if err != nil {
		logger.ErrorContext(ctx, "failed to decode media payload", "stream_id", streamID, "error", err)
		return
	}

	sess.audio.Append(raw)
	m.maybeFlush(ctx, sess)
}

// OnStop force-drains any remaining audio, runs a final flush if there
// is anything to transcribe, dispatches the stream-stopped event, and
// runs Finalize before retiring the Session.
func (m *Manager) OnStop(ctx context.Context, streamID, callID string) {
	sess := m.takeForStop(streamID)
	if sess == nil {
		logger.InfoContext(ctx, "stopped", "stream_id", streamID)
		return
	}
	ctx = logger.WithLoggingContext(ctx, &logger.LoggingFields{CallID: callID, StreamID: streamID, Component: "session_manager"})

	sess.setState(stateFinalizing)
	logger.InfoContext(ctx, "session stopping", "duration", sess.StreamDuration())

	// Let any in-flight background flush settle before the final pass.
	sess.flushWG.Wait()

	drained := sess.audio.DrainForce()
	if len(drained) > 0 {
		m.runFlush(ctx, sess, drained, true)
	}

	m.dispatcher.Dispatch(ctx, "call_stop", callID,
		func() error {
			return m.deps.Calls.UpdateStream(ctx, callID, "", false)
		},
		func() {
			m.deps.Broadcaster.BroadcastCallStatusUpdate(callID, "stream_stopped")
		},
	)

	m.finalize(ctx, sess)

	sess.setState(stateClosed)
	metrics.SessionsActive.Dec()
}

func (m *Manager) lookup(streamID string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[streamID]
}

// takeForStop looks up and removes streamID from the registry in one
// step so a racing OnStop can't double-finalize the same Session.
func (m *Manager) takeForStop(streamID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[streamID]
	if !ok {
		return nil
	}
	delete(m.sessions, streamID)
	return sess
}

// maybeFlush starts a background flush goroutine iff the AudioBuffer is
// ready and no flush for this Session is already in flight. The
// goroutine keeps draining and flushing until the buffer falls back
// below threshold, matching the at-most-one-flush-in-flight discipline.
func (m *Manager) maybeFlush(ctx context.Context, sess *Session) {
	drained, ok := sess.audio.DrainIfReady()
	if !ok {
		return
	}
	if !sess.beginFlush() {
		// Another goroutine already owns flushing; put the bytes back so
		// they're picked up on its next drain check.
		sess.audio.Append(drained)
		return
	}

	// The distributed-trace correlation carried in ctx is lightweight
	// (a couple of header strings) and outlives the request it arrived
	// on, so it is carried forward explicitly even though the flush
	// itself is detached from the originating request's cancellation.
	tc := telemetry.TraceContextFromContext(ctx)

	sess.flushWG.Add(1)
	go func() {
		defer sess.flushWG.Done()
		defer sess.endFlush()

		data := drained
		for {
			// Detached from the originating request's context: the flush
			// outlives any single OnMedia call, bounded instead by the
			// transcription/insights clients' own operation timeouts.
			flushCtx := telemetry.ContextWithTrace(context.Background(), tc)
			m.runFlush(flushCtx, sess, data, false)

			next, ok := sess.audio.DrainIfReady()
			if !ok {
				return
			}
			data = next
		}
	}()
}

// runFlush implements the Flush procedure: VAD, codec, transcription,
// accumulation, dispatch, and an opportunistic incremental insights
// pass. It never returns an error; every failure is logged and the
// flush contributes nothing further.
func (m *Manager) runFlush(ctx context.Context, sess *Session, drained []byte, isFinal bool) {
	ctx, span := telemetry.Tracer(nil).Start(ctx, "session.flush",
		oteltrace.WithAttributes(telemetry.StreamAttributes(sess.callID, sess.streamID)...))
	defer span.End()

	start := time.Now()
	outcome := "transcribed"
	defer func() {
		metrics.FlushDuration.WithLabelValues(boolLabel(isFinal), outcome).Observe(time.Since(start).Seconds())
	}()

	if len(drained) == 0 {
		outcome = "empty"
		return
	}
	if m.deps.Silence.IsSilent(drained) {
		outcome = "silent"
		logger.DebugContext(ctx, "flush skipped: silent chunk", "call_id", sess.callID, "stream_id", sess.streamID)
		return
	}

	wav := audiocodec.MulawToWAV(drained, m.deps.SampleRate)

	result, err := m.deps.Transcription.Transcribe(ctx, sess.callID, sess.streamID, wav, isFinal)
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.ErrorContext(ctx, "transcription call rejected", "call_id", sess.callID, "stream_id", sess.streamID, "error", err)
		return
	}
	if result == nil {
		outcome = "empty_result"
		return
	}

	m.deps.Accumulator.Append(sess.callID, result.Text)
	metrics.SequenceAssignedTotal.Inc()

	chunk := store.TranscriptChunk{
		CallID:       sess.callID,
		StreamID:     sess.streamID,
		Text:         result.Text,
		IsFinal:      result.IsFinal,
		Confidence:   result.Confidence,
		TimestampUTC: result.TimestampUTC,
		Sequence:     sess.nextSequence(),
	}

	m.dispatcher.Dispatch(ctx, "transcript_chunk", sess.callID,
		func() error { return m.deps.Transcripts.Append(ctx, chunk) },
		func() { m.deps.Broadcaster.BroadcastTranscriptUpdate(sess.callID, chunk.Text, chunk.IsFinal) },
	)

	m.runInsightsPass(ctx, sess.callID, false)
}

// finalize runs one additional insights pass over the full accumulated
// transcript and releases the call's accumulator buffer.
func (m *Manager) finalize(ctx context.Context, sess *Session) {
	ctx, span := telemetry.Tracer(nil).Start(ctx, "session.finalize",
		oteltrace.WithAttributes(telemetry.StreamAttributes(sess.callID, sess.streamID)...))
	defer span.End()

	m.runInsightsPass(ctx, sess.callID, true)
	m.deps.Accumulator.Clear(sess.callID)
}

// runInsightsPass extracts and dispatches summary/location insights for
// the call's transcript as it stands right now. isFinal distinguishes
// the best-effort incremental pass from the authoritative end-of-call
// pass only for the extractor's own accounting; both dispatch the same
// way.
func (m *Manager) runInsightsPass(ctx context.Context, callID string, isFinal bool) {
	text := m.deps.Accumulator.Join(callID)

	result, err := m.deps.Insights.Extract(ctx, callID, text, isFinal)
	if err != nil {
		logger.ErrorContext(ctx, "insights call rejected", "call_id", callID, "error", err)
		return
	}
	if result == nil {
		return
	}

	if result.Summary != nil {
		rec := store.SummaryRecord{
			CallID:         callID,
			Summary:        result.Summary.Summary,
			KeyFindings:    result.Summary.KeyFindings,
			GeneratedAtUTC: time.Now(),
		}
		m.dispatcher.Dispatch(ctx, "summary_record", callID,
			func() error { return m.deps.Summaries.UpsertSummary(ctx, rec) },
			func() { m.deps.Broadcaster.BroadcastSummaryUpdate(callID, rec.Summary, rec.KeyFindings) },
		)
	}

	if result.Location != nil && result.Location.Latitude != nil && result.Location.Longitude != nil {
		rec := store.LocationRecord{
			CallID:           callID,
			RawText:          result.Location.RawText,
			Latitude:         result.Location.Latitude,
			Longitude:        result.Location.Longitude,
			FormattedAddress: result.Location.FormattedAddress,
			Confidence:       result.Location.Confidence,
		}
		m.dispatcher.Dispatch(ctx, "location_record", callID,
			func() error { return m.deps.Locations.UpsertLocation(ctx, rec) },
			func() {
				m.deps.Broadcaster.BroadcastLocationUpdate(callID, *rec.Latitude, *rec.Longitude, rec.FormattedAddress)
			},
		)
	}
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
