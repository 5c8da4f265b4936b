package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"golang.org/x/time/rate"

	"github.com/brightline-voice/mediapipeline/logger"
	"github.com/brightline-voice/mediapipeline/pkg/httputil"
	"github.com/brightline-voice/mediapipeline/telemetry"
	"github.com/brightline-voice/mediapipeline/telemetry/metrics"
)

const (
	// MinTimeout is the spec-mandated lower bound for the insights HTTP
	// client's total request budget; short per-attempt resilience
	// timeouts must not be layered under it.
	MinTimeout = 90 * time.Second

	defaultTemperature = 0.2

	systemDirective = "Extract location, summary, and key_findings from the call transcript below. " +
		"Respond with a single JSON object matching the required schema."
)

// responseSchema validates the chat completion's parsed JSON payload
// against the §4.6 response contract before it is used to build
// Insights, catching malformed model output before it reaches callers.
var responseSchema = gojsonschema.NewStringLoader(`{
	"type": "object",
	"properties": {
		"summary": {"type": ["string", "null"]},
		"key_findings": {"type": ["array", "null"], "items": {"type": "string"}},
		"location": {
			"type": ["object", "null"],
			"properties": {
				"address": {"type": ["string", "null"]},
				"latitude": {"type": ["number", "null"]},
				"longitude": {"type": ["number", "null"]},
				"confidence": {"type": ["number", "null"]}
			}
		}
	}
}`)

// HTTPExtractor extracts insights via an HTTPS chat-completion endpoint
// with a structured-JSON response format.
type HTTPExtractor struct {
	apiKey     string
	endpoint   string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures an HTTPExtractor.
type Option func(*HTTPExtractor)

// WithModel overrides the default extraction model.
func WithModel(model string) Option {
	return func(e *HTTPExtractor) { e.model = model }
}

// WithHTTPClient overrides the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(e *HTTPExtractor) { e.httpClient = hc }
}

// WithRateLimiter caps outbound request rate to the insights API.
func WithRateLimiter(limiter *rate.Limiter) Option {
	return func(e *HTTPExtractor) { e.limiter = limiter }
}

// NewHTTPExtractor creates an Extractor backed by a chat-completion
// endpoint. timeout is clamped up to MinTimeout, per the spec's
// "extended" model family request budget.
func NewHTTPExtractor(apiKey, endpoint, model string, timeout time.Duration, opts ...Option) *HTTPExtractor {
	if timeout < MinTimeout {
		timeout = MinTimeout
	}
	e := &HTTPExtractor{
		apiKey:     apiKey,
		endpoint:   endpoint,
		model:      model,
		httpClient: httputil.NewHTTPClient(timeout),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// isOSeriesModel reports whether a model name needs the temperature
// sampling parameter omitted. The spec's rule ("gpt-5* must omit
// temperature") generalizes the o-series-reasoning-model exclusion this
// pattern is grounded on.
func isOSeriesModel(model string) bool {
	return strings.HasPrefix(model, "gpt-5") ||
		(len(model) >= 2 && model[0] == 'o' && model[1] >= '0' && model[1] <= '9')
}

func buildRequestBody(model, transcript string) map[string]any {
	req := map[string]any{
		"model": model,
		"messages": []map[string]string{
			{"role": "system", "content": systemDirective},
			{"role": "user", "content": transcript},
		},
		"response_format": map[string]string{"type": "json_object"},
	}
	if !isOSeriesModel(model) {
		req["temperature"] = defaultTemperature
	}
	return req
}

// Extract implements Extractor.
func (e *HTTPExtractor) Extract(ctx context.Context, callID, transcript string, isFinal bool) (*Insights, error) {
	if callID == "" {
		return nil, fmt.Errorf("insights: callID must not be empty")
	}
	if isBlank(transcript) {
		return nil, nil
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			logger.WarnContext(ctx, "insights rate limiter wait failed", "call_id", callID, "error", err.Error())
			return nil, nil
		}
	}

	reqBody := buildRequestBody(e.model, transcript)
	payload, err := json.Marshal(reqBody)
	if err != nil {
		logger.ErrorContext(ctx, "failed marshaling insights request", "call_id", callID, "error", err.Error())
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if err != nil {
		logger.ErrorContext(ctx, "failed creating insights request", "call_id", callID, "error", err.Error())
		return nil, nil
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", "application/json")
	telemetry.InjectTraceHeaders(ctx, req)

	logger.AdapterRequest("insights", http.MethodPost, e.endpoint, nil, reqBody)

	pass := "incremental"
	if isFinal {
		pass = "final"
	}

	start := time.Now()
	resp, err := e.httpClient.Do(req)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		if ctx.Err() != nil {
			logger.WarnContext(ctx, "insights request canceled", "call_id", callID, "error", err.Error())
		} else {
			logger.ErrorContext(ctx, "insights request failed", "call_id", callID, "error", err.Error())
		}
		metrics.InsightsRequestDuration.WithLabelValues(pass, "error").Observe(elapsed)
		return nil, nil
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.ErrorContext(ctx, "failed reading insights response", "call_id", callID, "error", err.Error())
		metrics.InsightsRequestDuration.WithLabelValues(pass, "error").Observe(elapsed)
		return nil, nil
	}

	if resp.StatusCode != http.StatusOK {
		logger.WarnContext(ctx, "insights non-2xx response",
			"call_id", callID, "status", resp.StatusCode, "body", string(respBody))
		metrics.InsightsRequestDuration.WithLabelValues(pass, "non_2xx").Observe(elapsed)
		return nil, nil
	}
	metrics.InsightsRequestDuration.WithLabelValues(pass, "ok").Observe(elapsed)
	logger.AdapterResponse("insights", resp.StatusCode, string(respBody), nil)

	content, err := extractMessageContent(respBody)
	if err != nil {
		logger.ErrorContext(ctx, "failed extracting insights message content", "call_id", callID, "error", err.Error())
		return nil, nil
	}

	return parseInsightsContent(ctx, callID, content)
}

func extractMessageContent(body []byte) (string, error) {
	var chatResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", err
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("insights: response has no choices")
	}
	return chatResp.Choices[0].Message.Content, nil
}

func parseInsightsContent(ctx context.Context, callID, content string) (*Insights, error) {
	result, err := gojsonschema.Validate(responseSchema, gojsonschema.NewStringLoader(content))
	if err != nil {
		logger.ErrorContext(ctx, "insights schema validation errored", "call_id", callID, "error", err.Error())
		return nil, nil
	}
	if !result.Valid() {
		logger.ErrorContext(ctx, "insights response failed schema validation",
			"call_id", callID, "errors", result.Errors())
		return nil, nil
	}

	var parsed struct {
		Summary     *string  `json:"summary"`
		KeyFindings []string `json:"key_findings"`
		Location    *struct {
			Address    *string  `json:"address"`
			Latitude   *float64 `json:"latitude"`
			Longitude  *float64 `json:"longitude"`
			Confidence *float64 `json:"confidence"`
		} `json:"location"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		logger.ErrorContext(ctx, "failed parsing insights content JSON", "call_id", callID, "error", err.Error())
		return nil, nil
	}

	insights := &Insights{}

	if parsed.Summary != nil && strings.TrimSpace(*parsed.Summary) != "" {
		findings := parsed.KeyFindings
		if findings == nil {
			findings = []string{}
		}
		insights.Summary = &SummaryRecord{
			CallID:         callID,
			Summary:        *parsed.Summary,
			KeyFindings:    findings,
			GeneratedAtUTC: time.Now().UTC().Format(time.RFC3339),
		}
	}

	if loc := parsed.Location; loc != nil && loc.Address != nil && strings.TrimSpace(*loc.Address) != "" &&
		loc.Latitude != nil && loc.Longitude != nil {
		confidence := 0.0
		if loc.Confidence != nil {
			confidence = *loc.Confidence
		}
		insights.Location = &LocationRecord{
			CallID:           callID,
			RawText:          *loc.Address,
			Latitude:         loc.Latitude,
			Longitude:        loc.Longitude,
			FormattedAddress: *loc.Address,
			Confidence:       confidence,
		}
	}

	if insights.Summary == nil && insights.Location == nil {
		return nil, nil
	}
	return insights, nil
}
