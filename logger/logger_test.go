package logger

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestSetLevel(t *testing.T) {
	SetLevel(slog.LevelDebug)
	if DefaultLogger == nil {
		t.Error("expected DefaultLogger to be set")
	}

	SetLevel(slog.LevelInfo)
	if DefaultLogger == nil {
		t.Error("expected DefaultLogger to be set")
	}

	SetLevel(slog.LevelWarn)
	if DefaultLogger == nil {
		t.Error("expected DefaultLogger to be set")
	}

	SetLevel(slog.LevelError)
	if DefaultLogger == nil {
		t.Error("expected DefaultLogger to be set")
	}
}

func TestSetVerbose(t *testing.T) {
	SetVerbose(true)
	if DefaultLogger == nil {
		t.Error("expected DefaultLogger to be set after SetVerbose(true)")
	}

	SetVerbose(false)
	if DefaultLogger == nil {
		t.Error("expected DefaultLogger to be set after SetVerbose(false)")
	}
}

func TestInfo(t *testing.T) {
	Info("test message")
	Info("test with args", "key", "value")
	Info("test with multiple", "key1", "value1", "key2", "value2")
}

func TestInfoContext(t *testing.T) {
	ctx := context.Background()
	InfoContext(ctx, "test message")
	InfoContext(ctx, "test with args", "key", "value")
}

func TestDebug(t *testing.T) {
	SetVerbose(true)
	defer SetVerbose(false)

	Debug("debug message")
	Debug("debug with args", "key", "value")
}

func TestDebugContext(t *testing.T) {
	SetVerbose(true)
	defer SetVerbose(false)

	ctx := context.Background()
	DebugContext(ctx, "debug message")
	DebugContext(ctx, "debug with args", "key", "value")
}

func TestWarn(t *testing.T) {
	Warn("warning message")
	Warn("warning with args", "key", "value")
}

func TestWarnContext(t *testing.T) {
	ctx := context.Background()
	WarnContext(ctx, "warning message")
	WarnContext(ctx, "warning with args", "key", "value")
}

func TestError(t *testing.T) {
	Error("error message")
	Error("error with args", "key", "value", "error", "test error")
}

func TestErrorContext(t *testing.T) {
	ctx := context.Background()
	ErrorContext(ctx, "error message")
	ErrorContext(ctx, "error with args", "key", "value", "error", "test error")
}

func TestDefaultLoggerInitialized(t *testing.T) {
	if DefaultLogger == nil {
		t.Error("expected DefaultLogger to be initialized")
	}
}

func TestLoggingWithStructuredAttributes(t *testing.T) {
	Info("structured log",
		"string", "value",
		"int", 42,
		"bool", true,
		"float", 3.14,
	)
}

func TestRedactSensitiveData_OpenAIKey(t *testing.T) {
	fakeKey := "sk-1234567890abcdefghijklmnopqrstuvwxyz12345678" // fake test key, not a real credential
	input := "My API key is " + fakeKey + " and I want it hidden"
	result := RedactSensitiveData(input)

	if result == input {
		t.Error("expected API key to be redacted")
	}
	if strings.Contains(result, fakeKey) {
		t.Error("expected full API key to not be in result")
	}
	if !strings.Contains(result, "sk-1...[REDACTED]") {
		t.Error("expected redacted form to be present")
	}
}

func TestRedactSensitiveData_BearerToken(t *testing.T) {
	fakeToken := "abc123def456" // fake test token, not a real credential
	input := "Authorization: Bearer " + fakeToken
	result := RedactSensitiveData(input)

	if result == input {
		t.Error("expected Bearer token to be redacted")
	}
	if strings.Contains(result, "Bearer "+fakeToken) {
		t.Error("expected full token to not be in result")
	}
	if !strings.Contains(result, "Bearer [REDACTED]") {
		t.Error("expected redacted Bearer token")
	}
}

func TestRedactSensitiveData_NoSensitiveData(t *testing.T) {
	input := "This is just a normal string with no secrets"
	result := RedactSensitiveData(input)

	if result != input {
		t.Error("expected string without sensitive data to remain unchanged")
	}
}

func TestRedactSensitiveData_ShortKey(t *testing.T) {
	// OpenAI-style keys require 32+ chars after the sk- prefix to match.
	input := "Short: sk-abc"
	result := RedactSensitiveData(input)

	if result != input {
		t.Error("expected short key to remain unchanged as it doesn't match pattern")
	}
}

func TestAdapterRequest_BasicCall(t *testing.T) {
	SetVerbose(true)
	defer SetVerbose(false)

	AdapterRequest("transcription", "POST", "https://api.test.com/v1/transcriptions", nil, nil)
}

func TestAdapterRequest_WithHeaders(t *testing.T) {
	SetVerbose(true)
	defer SetVerbose(false)

	fakeBearerToken := "sk-1234567890abcdefghijklmnopqrstuvwxyz12345678" // fake test key
	headers := map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + fakeBearerToken,
	}

	AdapterRequest("insights", "POST", "https://api.test.com/v1/chat/completions", headers, nil)
}

func TestAdapterRequest_WithBody(t *testing.T) {
	SetVerbose(true)
	defer SetVerbose(false)

	body := map[string]interface{}{
		"model":       "gpt-5-mini",
		"temperature": 0.2,
	}

	AdapterRequest("insights", "POST", "https://api.test.com/v1/chat/completions", nil, body)
}

func TestAdapterRequest_WhenVerboseDisabled(t *testing.T) {
	SetVerbose(false)
	AdapterRequest("transcription", "POST", "https://api.test.com/v1/transcriptions", nil, nil)
}

func TestAdapterRequest_WithMarshalError(t *testing.T) {
	SetVerbose(true)
	defer SetVerbose(false)

	body := make(chan int)
	AdapterRequest("transcription", "POST", "https://api.test.com", nil, body)
}

func TestAdapterResponse_Success(t *testing.T) {
	SetVerbose(true)
	defer SetVerbose(false)

	body := `{"text":"hello there"}`
	AdapterResponse("transcription", 200, body, nil)
}

func TestAdapterResponse_Error(t *testing.T) {
	SetVerbose(true)
	defer SetVerbose(false)

	AdapterResponse("transcription", 500, "", errors.New("connection failed"))
}

func TestAdapterResponse_InvalidJSON(t *testing.T) {
	SetVerbose(true)
	defer SetVerbose(false)

	AdapterResponse("insights", 200, "not json", nil)
}

func TestAdapterResponse_WhenVerboseDisabled(t *testing.T) {
	SetVerbose(false)
	AdapterResponse("transcription", 200, `{"text":"ok"}`, nil)
}
