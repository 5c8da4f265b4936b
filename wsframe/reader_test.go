package wsframe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	method   string
	streamID string
	callID   string
	payload  string
}

type fakeManager struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (f *fakeManager) OnStart(ctx context.Context, streamID, callID string) {
	f.record(recordedCall{method: "start", streamID: streamID, callID: callID})
}

func (f *fakeManager) OnMedia(ctx context.Context, streamID, base64Payload string) {
	f.record(recordedCall{method: "media", streamID: streamID, payload: base64Payload})
}

func (f *fakeManager) OnStop(ctx context.Context, streamID, callID string) {
	f.record(recordedCall{method: "stop", streamID: streamID, callID: callID})
}

func (f *fakeManager) record(c recordedCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *fakeManager) snapshot() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedCall(nil), f.calls...)
}

func TestServeWebSocket_RejectsNonUpgrade(t *testing.T) {
	mgr := &fakeManager{}
	h := New(mgr)
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWebSocket))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServeWebSocket_DispatchesStartMediaStop(t *testing.T) {
	mgr := &fakeManager{}
	h := New(mgr)
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWebSocket))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"start","start":{"streamSid":"stream-1","callSid":"call-1"}}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"media","media":{"payload":"abcd"}}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"STOP"}`)))

	require.Eventually(t, func() bool { return len(mgr.snapshot()) == 3 }, time.Second, time.Millisecond)

	calls := mgr.snapshot()
	assert.Equal(t, "start", calls[0].method)
	assert.Equal(t, "stream-1", calls[0].streamID)
	assert.Equal(t, "call-1", calls[0].callID)

	assert.Equal(t, "media", calls[1].method)
	assert.Equal(t, "stream-1", calls[1].streamID)
	assert.Equal(t, "abcd", calls[1].payload)

	assert.Equal(t, "stop", calls[2].method)
	assert.Equal(t, "stream-1", calls[2].streamID)
	assert.Equal(t, "call-1", calls[2].callID)
}

func TestServeWebSocket_MalformedFrameDoesNotCloseConnection(t *testing.T) {
	mgr := &fakeManager{}
	h := New(mgr)
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWebSocket))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"start","start":{"streamSid":"stream-1","callSid":"call-1"}}`)))

	require.Eventually(t, func() bool { return len(mgr.snapshot()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, "start", mgr.snapshot()[0].method)
}

func TestServeForm_AlwaysReturns200(t *testing.T) {
	mgr := &fakeManager{}
	h := New(mgr)
	srv := httptest.NewServer(http.HandlerFunc(h.ServeForm))
	defer srv.Close()

	form := url.Values{
		"StreamSid":    {"stream-1"},
		"CallSid":      {"call-1"},
		"Event":        {"media"},
		"MediaPayload": {"xyz"},
	}
	resp, err := http.PostForm(srv.URL, form)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	calls := mgr.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, "media", calls[0].method)
	assert.Equal(t, "stream-1", calls[0].streamID)
	assert.Equal(t, "xyz", calls[0].payload)
}

func TestServeForm_UnparsableBodyStillReturns200(t *testing.T) {
	mgr := &fakeManager{}
	h := New(mgr)
	srv := httptest.NewServer(http.HandlerFunc(h.ServeForm))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL, strings.NewReader("%zz"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
