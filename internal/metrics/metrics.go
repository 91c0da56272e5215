// Package metrics exposes Prometheus collectors for the turn pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assistant_turns_total",
		Help: "Completed conversation turns",
	})

	TurnsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assistant_turns_rejected_total",
		Help: "Turn requests rejected by the re-entrancy guard",
	})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "assistant_stage_duration_seconds",
		Help:    "Per-stage latency",
		Buckets: []float64{0.05, 0.1, 0.2, 0.3, 0.5, 0.8, 1.0, 2.0, 5.0},
	}, []string{"stage"})

	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_errors_total",
		Help: "Error counts by stage",
	}, []string{"stage", "error_type"})

	ToolCalls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assistant_tool_calls_total",
		Help: "Backend tool invocations during reasoning",
	})

	NoSpeech = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assistant_no_speech_total",
		Help: "Voice turns aborted because no speech was detected",
	})

	AudioTooShort = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assistant_audio_too_short_total",
		Help: "Voice turns rejected before transcription for undersized audio",
	})
)
