// Command mediaserver runs the Media Session Pipeline: it accepts carrier
// Media Streams connections, transcribes and extracts insights from call
// audio, and serves Prometheus metrics alongside the ingestion endpoints.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/time/rate"

	"github.com/brightline-voice/mediapipeline/audiobuffer"
	"github.com/brightline-voice/mediapipeline/broadcast"
	"github.com/brightline-voice/mediapipeline/config"
	"github.com/brightline-voice/mediapipeline/insights"
	"github.com/brightline-voice/mediapipeline/logger"
	"github.com/brightline-voice/mediapipeline/session"
	"github.com/brightline-voice/mediapipeline/store"
	"github.com/brightline-voice/mediapipeline/telemetry"
	"github.com/brightline-voice/mediapipeline/telemetry/metrics"
	"github.com/brightline-voice/mediapipeline/transcript"
	"github.com/brightline-voice/mediapipeline/transcription"
	"github.com/brightline-voice/mediapipeline/wsframe"
)

const (
	shutdownGrace = 10 * time.Second

	// transcriptionRPS/insightsRPS bound outbound call rate to the cloud
	// providers independently of their own 429 handling.
	transcriptionRPS = 5
	insightsRPS      = 2
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	telemetry.SetupPropagation()
	tracerProvider := newTracerProvider(context.Background())
	if tracerProvider != nil {
		otel.SetTracerProvider(tracerProvider)
	}

	backingStore := newStore()

	transcriptionClient := transcription.NewHTTPClient(
		cfg.Transcription.APIKey,
		cfg.Transcription.Endpoint,
		transcription.WithModel(cfg.Transcription.Model),
		transcription.WithTemperature(cfg.Transcription.Temperature),
		transcription.WithRateLimiter(rate.NewLimiter(rate.Limit(transcriptionRPS), transcriptionRPS)),
	)

	insightsExtractor := insights.NewHTTPExtractor(
		cfg.Insights.APIKey,
		cfg.Insights.Endpoint,
		cfg.Insights.DefaultModel,
		time.Duration(cfg.Insights.TimeoutSeconds)*time.Second,
		insights.WithRateLimiter(rate.NewLimiter(rate.Limit(insightsRPS), insightsRPS)),
	)

	broadcaster := broadcast.NewInMemoryBroadcaster()

	manager := session.NewManager(session.Dependencies{
		Transcription: transcriptionClient,
		Insights:      insightsExtractor,
		Broadcaster:   broadcaster,

		Calls:       backingStore,
		Transcripts: backingStore,
		Summaries:   backingStore,
		Locations:   backingStore,

		Accumulator: transcript.New(),
		Silence:     audiobuffer.NewSilenceDetector(cfg.SilenceThreshold),

		SampleRate:           cfg.SampleRate,
		BufferThresholdBytes: audiobuffer.BytesForSeconds(cfg.AudioBufferSeconds),
	})

	frameHandler := wsframe.New(manager)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/twilio/media-stream", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			frameHandler.ServeForm(w, r)
			return
		}
		frameHandler.ServeWebSocket(w, r)
	})
	tracedMux := telemetry.TraceMiddleware(mux)

	httpAddr := getEnv("HTTP_ADDR", ":8080")
	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           tracedMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsAddr := getEnv("METRICS_ADDR", ":9090")
	exporter := metrics.NewExporter(metricsAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("media stream server listening", "addr", httpAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("media stream server failed", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics exporter listening", "addr", metricsAddr)
		if err := exporter.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics exporter failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("media stream server shutdown error", "error", err)
	}
	if err := exporter.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics exporter shutdown error", "error", err)
	}
	if tracerProvider != nil {
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			logger.Error("tracer provider shutdown error", "error", err)
		}
	}
}

// newTracerProvider builds an OTLP/HTTP tracer provider when
// OTEL_EXPORTER_OTLP_ENDPOINT is configured, and returns nil otherwise so
// the pipeline runs against the global no-op provider (spans are created
// but discarded) when tracing isn't wired up in this environment.
func newTracerProvider(ctx context.Context) *sdktrace.TracerProvider {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		return nil
	}

	serviceName := getEnv("OTEL_SERVICE_NAME", "mediapipeline")
	tp, err := telemetry.NewTracerProvider(ctx, endpoint, serviceName)
	if err != nil {
		logger.Error("failed to set up tracer provider", "error", err)
		return nil
	}
	return tp
}

// mediaStore is the full set of Store roles a single backing
// implementation (MemoryStore or RedisStore) satisfies at once.
type mediaStore interface {
	store.CallStore
	store.TranscriptStore
	store.SummaryStore
	store.LocationStore
}

// newStore builds a Redis-backed store when REDIS_ADDR is configured, and
// falls back to the in-memory store for local development.
func newStore() mediaStore {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		logger.Info("REDIS_ADDR not set, using in-memory store")
		return store.NewMemoryStore()
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	logger.Info("using redis-backed store", "addr", addr)
	return store.NewRedisStore(client)
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}
