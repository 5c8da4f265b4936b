// Package metrics provides Prometheus instrumentation for the Media
// Session Pipeline: active sessions, flush timings, outbound adapter
// call rates, and dispatch failures. It observes the pipeline without
// influencing any of its control flow.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "mediapipeline"

var (
	// SessionsActive is a gauge of currently open Sessions.
	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of Sessions currently in Initializing/Active/Flushing/Finalizing state",
		},
	)

	// FlushDuration is a histogram of time spent draining, decoding,
	// transcribing, and dispatching one flush.
	FlushDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flush_duration_seconds",
			Help:      "Duration of a single AudioBuffer flush, from drain to dispatch",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"is_final", "outcome"}, // outcome: transcribed, silent, empty_result
	)

	// TranscriptionRequestDuration is a histogram of TranscriptionClient HTTP call latency.
	TranscriptionRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcription_request_duration_seconds",
			Help:      "Duration of TranscriptionClient HTTP calls in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"status"}, // status: ok, non_2xx, error
	)

	// InsightsRequestDuration is a histogram of InsightsExtractor HTTP call latency.
	InsightsRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "insights_request_duration_seconds",
			Help:      "Duration of InsightsExtractor HTTP calls in seconds",
			Buckets:   []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 90, 120},
		},
		[]string{"pass", "status"}, // pass: incremental, final; status: ok, non_2xx, error
	)

	// DispatchOutcomesTotal counts persistence/broadcast side-effect outcomes
	// for every dispatched artifact kind.
	DispatchOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_outcomes_total",
			Help:      "Total persist/broadcast side effects by artifact kind and outcome",
		},
		[]string{"artifact", "sink", "outcome"}, // sink: persist, broadcast; outcome: ok, error
	)

	// SequenceAssignedTotal counts TranscriptChunk sequence assignments per call,
	// useful for cross-checking the strictly-increasing-from-zero invariant.
	SequenceAssignedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcript_sequence_assigned_total",
			Help:      "Total TranscriptChunk sequence numbers assigned across all calls",
		},
	)

	// allMetrics lists every collector for registration with an Exporter.
	allMetrics = []prometheus.Collector{
		SessionsActive,
		FlushDuration,
		TranscriptionRequestDuration,
		InsightsRequestDuration,
		DispatchOutcomesTotal,
		SequenceAssignedTotal,
	}
)
