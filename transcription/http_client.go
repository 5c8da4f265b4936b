package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/brightline-voice/mediapipeline/logger"
	"github.com/brightline-voice/mediapipeline/pkg/httputil"
	"github.com/brightline-voice/mediapipeline/telemetry"
	"github.com/brightline-voice/mediapipeline/telemetry/metrics"
)

const (
	// DefaultTimeout matches the spec's required 60s operation-level
	// timeout for the transcription HTTP client.
	DefaultTimeout = 60 * time.Second

	defaultModel       = "whisper-1"
	defaultTemperature = 0.0
)

// HTTPClient transcribes WAV audio over HTTPS multipart/form-data, per
// the cloud speech API protocol: part "file" (audio/wav), "model",
// "temperature". Bearer auth.
type HTTPClient struct {
	apiKey      string
	endpoint    string
	model       string
	temperature float64
	httpClient  *http.Client
	limiter     *rate.Limiter
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithModel overrides the default transcription model.
func WithModel(model string) Option {
	return func(c *HTTPClient) { c.model = model }
}

// WithTemperature overrides the default sampling temperature.
func WithTemperature(temp float64) Option {
	return func(c *HTTPClient) { c.temperature = temp }
}

// WithHTTPClient overrides the underlying *http.Client (e.g. for tests
// pointed at an httptest.Server).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.httpClient = hc }
}

// WithRateLimiter caps outbound request rate to the transcription API.
func WithRateLimiter(limiter *rate.Limiter) Option {
	return func(c *HTTPClient) { c.limiter = limiter }
}

// NewHTTPClient creates a transcription Client backed by an HTTPS
// multipart endpoint.
func NewHTTPClient(apiKey, endpoint string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		apiKey:      apiKey,
		endpoint:    endpoint,
		model:       defaultModel,
		temperature: defaultTemperature,
		httpClient:  httputil.NewHTTPClient(DefaultTimeout),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transcribe implements Client.
func (c *HTTPClient) Transcribe(
	ctx context.Context, callID, streamID string, wav []byte, isFinal bool,
) (*Result, error) {
	if err := validateArgs(callID, streamID); err != nil {
		return nil, err
	}
	if len(wav) == 0 {
		return nil, nil
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			logger.WarnContext(ctx, "transcription rate limiter wait failed", "call_id", callID, "error", err.Error())
			return nil, nil
		}
	}

	body, contentType, err := c.buildForm(wav)
	if err != nil {
		logger.ErrorContext(ctx, "failed building transcription request", "call_id", callID, "error", err.Error())
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		logger.ErrorContext(ctx, "failed creating transcription request", "call_id", callID, "error", err.Error())
		return nil, nil
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", contentType)
	telemetry.InjectTraceHeaders(ctx, req)

	logger.AdapterRequest("transcription", http.MethodPost, c.endpoint, nil, map[string]any{
		"model": c.model, "is_final": isFinal, "bytes": len(wav),
	})

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		if ctx.Err() != nil {
			logger.WarnContext(ctx, "transcription request canceled", "call_id", callID, "error", err.Error())
		} else {
			logger.ErrorContext(ctx, "transcription request failed", "call_id", callID, "error", err.Error())
		}
		metrics.TranscriptionRequestDuration.WithLabelValues("error").Observe(elapsed)
		return nil, nil
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.ErrorContext(ctx, "failed reading transcription response", "call_id", callID, "error", err.Error())
		metrics.TranscriptionRequestDuration.WithLabelValues("error").Observe(elapsed)
		return nil, nil
	}

	if resp.StatusCode != http.StatusOK {
		logger.WarnContext(ctx, "transcription non-2xx response",
			"call_id", callID, "status", resp.StatusCode, "body", string(respBody))
		logger.AdapterResponse("transcription", resp.StatusCode, string(respBody), nil)
		metrics.TranscriptionRequestDuration.WithLabelValues("non_2xx").Observe(elapsed)
		return nil, nil
	}
	metrics.TranscriptionRequestDuration.WithLabelValues("ok").Observe(elapsed)
	logger.AdapterResponse("transcription", resp.StatusCode, string(respBody), nil)

	var parsed struct {
		Text       string   `json:"text"`
		Confidence *float64 `json:"confidence"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		logger.ErrorContext(ctx, "failed parsing transcription response", "call_id", callID, "error", err.Error())
		return nil, nil
	}

	text := strings.TrimSpace(parsed.Text)
	if text == "" {
		return nil, nil
	}

	return &Result{
		CallID:       callID,
		StreamID:     streamID,
		Text:         text,
		IsFinal:      isFinal,
		Confidence:   parsed.Confidence,
		TimestampUTC: time.Now().UTC(),
	}, nil
}

func (c *HTTPClient) buildForm(wav []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="audio.wav"`)
	header.Set("Content-Type", "audio/wav")
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(wav); err != nil {
		return nil, "", fmt.Errorf("write audio data: %w", err)
	}

	if err := writer.WriteField("model", c.model); err != nil {
		return nil, "", fmt.Errorf("write model field: %w", err)
	}
	if err := writer.WriteField("temperature", strconv.FormatFloat(c.temperature, 'f', -1, 64)); err != nil {
		return nil, "", fmt.Errorf("write temperature field: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}
