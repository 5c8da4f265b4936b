// Package wsframe exposes the carrier-facing Media Streams ingestion
// surface: a WebSocket endpoint and a form-encoded HTTP fallback, both
// decoding the same start/media/stop event vocabulary and dispatching to
// a SessionManager.
package wsframe

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/brightline-voice/mediapipeline/logger"
)

// SessionManager is the subset of session.Manager's API the frame reader
// dispatches to. Defined here, not imported, so this package does not
// depend on the session package's other collaborators.
type SessionManager interface {
	OnStart(ctx context.Context, streamID, callID string)
	OnMedia(ctx context.Context, streamID, base64Payload string)
	OnStop(ctx context.Context, streamID, callID string)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Carrier bridges do not send a browser-style Origin header;
		// authorization for this endpoint is handled upstream.
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// envelope is the JSON frame shape read off the WebSocket connection, and
// the shape synthesized from the HTTP-form fallback's fields.
type envelope struct {
	Event string        `json:"event"`
	Start *startPayload `json:"start,omitempty"`
	Media *mediaPayload `json:"media,omitempty"`
}

type startPayload struct {
	StreamSid string `json:"streamSid"`
	CallSid   string `json:"callSid"`
}

type mediaPayload struct {
	Payload string `json:"payload"`
}

// Handler wires the WebSocket and HTTP-form ingestion surfaces to a single
// SessionManager.
type Handler struct {
	manager SessionManager
}

// New creates a Handler dispatching to manager.
func New(manager SessionManager) *Handler {
	return &Handler{manager: manager}
}

// connState tracks the streamID/callID a connection's start event
// established, so later media/stop frames (which the carrier does not
// re-tag with ids) resolve to the right Session.
type connState struct {
	mu       sync.Mutex
	streamID string
	callID   string
}

// setFromStart records the ids carried by a start frame. A carrier is
// expected to always supply streamSid/callSid, but if one is missing this
// synthesizes a UUID rather than leaving the session keyed by an empty
// string for its whole lifetime.
func (c *connState) setFromStart(p *startPayload) {
	c.mu.Lock()
	defer c.mu.Unlock()
	streamID, callID := "", ""
	if p != nil {
		streamID, callID = p.StreamSid, p.CallSid
	}
	if streamID == "" {
		streamID = uuid.NewString()
		logger.Warn("media stream start frame missing streamSid, generated one", "stream_id", streamID)
	}
	if callID == "" {
		callID = uuid.NewString()
		logger.Warn("media stream start frame missing callSid, generated one", "call_id", callID)
	}
	c.streamID = streamID
	c.callID = callID
}

func (c *connState) get() (streamID, callID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streamID, c.callID
}

// ServeWebSocket upgrades the connection and loops reading JSON envelopes
// until the peer closes or a non-recoverable read error occurs. Non-upgrade
// requests are rejected with HTTP 400.
func (h *Handler) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		http.Error(w, "expected a websocket upgrade", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	state := &connState{}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.WarnContext(ctx, "media stream websocket closed unexpectedly", "error", err)
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			logger.ErrorContext(ctx, "failed to parse media stream frame", "error", err)
			continue
		}

		h.dispatch(ctx, state, env)
	}
}

// ServeForm handles the form-encoded fallback for carriers that do not use
// WebSocket. Each request is one event for an already-established
// streamID/callID pair, carried in the form fields themselves. It always
// responds 200 OK, even when internal handling fails, so the carrier does
// not retry.
func (h *Handler) ServeForm(w http.ResponseWriter, r *http.Request) {
	defer w.WriteHeader(http.StatusOK)

	if err := r.ParseForm(); err != nil {
		logger.ErrorContext(r.Context(), "failed to parse media stream form", "error", err)
		return
	}

	event := r.FormValue("Event")
	state := &connState{
		streamID: r.FormValue("StreamSid"),
		callID:   r.FormValue("CallSid"),
	}

	env := envelope{Event: event}
	if strings.EqualFold(event, "start") {
		env.Start = &startPayload{StreamSid: state.streamID, CallSid: state.callID}
	}
	if payload := r.FormValue("MediaPayload"); payload != "" {
		env.Media = &mediaPayload{Payload: payload}
	}

	h.dispatch(r.Context(), state, env)
}

// dispatch classifies one decoded envelope and calls the matching
// SessionManager operation, case-insensitively on Event and logging a
// warning for anything else.
func (h *Handler) dispatch(ctx context.Context, state *connState, env envelope) {
	switch strings.ToLower(env.Event) {
	case "start":
		state.setFromStart(env.Start)
		streamID, callID := state.get()
		h.manager.OnStart(ctx, streamID, callID)
	case "media":
		streamID, _ := state.get()
		payload := ""
		if env.Media != nil {
			payload = env.Media.Payload
		}
		h.manager.OnMedia(ctx, streamID, payload)
	case "stop":
		streamID, callID := state.get()
		h.manager.OnStop(ctx, streamID, callID)
	default:
		logger.WarnContext(ctx, "unknown media stream event", "event", env.Event)
	}
}
