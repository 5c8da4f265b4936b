package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TRANSCRIPTION_API_KEY", "tk-123")
	t.Setenv("INSIGHTS_API_KEY", "ik-456")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, defaultAudioBufferSeconds, cfg.AudioBufferSeconds)
	assert.Equal(t, defaultSilenceThreshold, cfg.SilenceThreshold)
	assert.Equal(t, defaultSampleRate, cfg.SampleRate)
	assert.Equal(t, defaultTranscriptionModel, cfg.Transcription.Model)
	assert.Equal(t, defaultInsightsModel, cfg.Insights.DefaultModel)
	assert.Equal(t, defaultInsightsTimeout, cfg.Insights.TimeoutSeconds)
}

func TestLoad_MissingRequiredKeysFail(t *testing.T) {
	t.Setenv("TRANSCRIPTION_API_KEY", "")
	t.Setenv("INSIGHTS_API_KEY", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ClampsOutOfRangeSettings(t *testing.T) {
	t.Setenv("TRANSCRIPTION_API_KEY", "tk-123")
	t.Setenv("INSIGHTS_API_KEY", "ik-456")
	t.Setenv("AUDIO_BUFFER_SECONDS", "100")
	t.Setenv("SILENCE_THRESHOLD", "5")
	t.Setenv("SAMPLE_RATE", "1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, maxAudioBufferSeconds, cfg.AudioBufferSeconds)
	assert.Equal(t, 1.0, cfg.SilenceThreshold)
	assert.Equal(t, minSampleRate, cfg.SampleRate)
}

func TestLoad_InsightsTimeoutHasAHardFloor(t *testing.T) {
	t.Setenv("TRANSCRIPTION_API_KEY", "tk-123")
	t.Setenv("INSIGHTS_API_KEY", "ik-456")
	t.Setenv("INSIGHTS_TIMEOUT_SECONDS", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, defaultInsightsTimeout, cfg.Insights.TimeoutSeconds)
}
