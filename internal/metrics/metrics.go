package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Listening = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "session_listening",
		Help: "1 while the capture pipeline is running",
	})

	FramesCaptured = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audio_frames_captured_total",
		Help: "Audio frames read from the input device",
	})

	FramesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audio_frames_dropped_total",
		Help: "Frames dropped because the pipeline fell behind",
	})

	Utterances = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vad_utterances_total",
		Help: "Speech segments emitted by the assembler",
	})

	UtterancesForced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vad_utterances_forced_total",
		Help: "Segments closed by the max-utterance cap",
	})

	TranscriptsFiltered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "asr_noise_filtered_total",
		Help: "Transcripts dropped by the hallucination filter",
	})

	TranscribeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "asr_transcribe_duration_seconds",
		Help:    "Transcription latency by engine",
		Buckets: []float64{0.1, 0.2, 0.5, 0.8, 1.0, 2.0, 5.0, 10.0},
	}, []string{"engine"})

	AnswerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "answer_duration_seconds",
		Help:    "Backend answer latency by mode",
		Buckets: []float64{0.5, 1.0, 2.0, 3.0, 5.0, 8.0, 13.0, 21.0, 35.0},
	}, []string{"mode"})

	Answers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "answers_total",
		Help: "Answer outcomes by mode and result",
	}, []string{"mode", "result"})

	AnswersQueued = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "answers_in_flight",
		Help: "Questions currently awaiting an answer",
	})

	CreditsRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "credits_remaining",
		Help: "Credits available after the last reconcile",
	})

	CreditsConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "credits_consumed_total",
		Help: "Credits spent on answered questions",
	})

	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "session_errors_total",
		Help: "Error counts by stage",
	}, []string{"stage", "error_type"})
)
