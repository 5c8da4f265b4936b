// Package config loads the Media Session Pipeline's operational settings
// from the environment, with an optional .env file for local development.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	pkgerrors "github.com/brightline-voice/mediapipeline/pkg/errors"
)

const (
	defaultAudioBufferSeconds = 4.0
	minAudioBufferSeconds     = 0.5
	maxAudioBufferSeconds     = 10.0

	defaultSilenceThreshold = 0.9

	defaultSampleRate = 8000
	minSampleRate     = 8000
	maxSampleRate     = 48000

	defaultTranscriptionModel   = "whisper-1"
	defaultTranscriptionTimeout = 60

	defaultInsightsModel   = "gpt-4o-mini"
	defaultInsightsTimeout = 90
)

// Config is the root configuration for the Media Session Pipeline process.
type Config struct {
	AudioBufferSeconds float64
	SilenceThreshold   float64
	SampleRate         int

	Transcription TranscriptionConfig
	Insights      InsightsConfig

	WebhookBaseURL string
}

// TranscriptionConfig configures the outbound speech-to-text adapter.
type TranscriptionConfig struct {
	APIKey         string
	Endpoint       string
	Model          string
	Temperature    float64
	TimeoutSeconds int
}

// InsightsConfig configures the outbound summary/location extraction adapter.
type InsightsConfig struct {
	APIKey         string
	Endpoint       string
	DefaultModel   string
	SummaryModel   string
	LocationModel  string
	TimeoutSeconds int
}

// Load reads configuration from the environment, loading a .env file first
// if one is present. Missing optional settings fall back to their defaults;
// out-of-range numeric settings are clamped rather than rejected, matching
// the adapters' own defensive-clamp discipline elsewhere in this module.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AudioBufferSeconds: clamp(getEnvFloat("AUDIO_BUFFER_SECONDS", defaultAudioBufferSeconds), minAudioBufferSeconds, maxAudioBufferSeconds),
		SilenceThreshold:   clamp(getEnvFloat("SILENCE_THRESHOLD", defaultSilenceThreshold), 0.0, 1.0),
		SampleRate:         clampInt(getEnvInt("SAMPLE_RATE", defaultSampleRate), minSampleRate, maxSampleRate),

		Transcription: TranscriptionConfig{
			APIKey:         getEnv("TRANSCRIPTION_API_KEY", ""),
			Endpoint:       getEnv("TRANSCRIPTION_ENDPOINT", ""),
			Model:          getEnv("TRANSCRIPTION_MODEL", defaultTranscriptionModel),
			Temperature:    getEnvFloat("TRANSCRIPTION_TEMPERATURE", 0),
			TimeoutSeconds: getEnvInt("TRANSCRIPTION_TIMEOUT_SECONDS", defaultTranscriptionTimeout),
		},

		Insights: InsightsConfig{
			APIKey:         getEnv("INSIGHTS_API_KEY", ""),
			Endpoint:       getEnv("INSIGHTS_ENDPOINT", ""),
			DefaultModel:   getEnv("INSIGHTS_DEFAULT_MODEL", defaultInsightsModel),
			SummaryModel:   getEnv("INSIGHTS_SUMMARY_MODEL", ""),
			LocationModel:  getEnv("INSIGHTS_LOCATION_MODEL", ""),
			TimeoutSeconds: getEnvInt("INSIGHTS_TIMEOUT_SECONDS", defaultInsightsTimeout),
		},

		WebhookBaseURL: getEnv("WEBHOOK_BASE_URL", ""),
	}

	if cfg.Insights.TimeoutSeconds < defaultInsightsTimeout {
		cfg.Insights.TimeoutSeconds = defaultInsightsTimeout
	}

	if cfg.Transcription.APIKey == "" {
		return nil, pkgerrors.New("config", "Load", nil).
			WithDetails(map[string]any{"key": "TRANSCRIPTION_API_KEY"})
	}
	if cfg.Insights.APIKey == "" {
		return nil, pkgerrors.New("config", "Load", nil).
			WithDetails(map[string]any{"key": "INSIGHTS_API_KEY"})
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
