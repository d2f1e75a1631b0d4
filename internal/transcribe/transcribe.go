// Package transcribe turns utterance audio into text through
// pluggable speech-to-text engines.
package transcribe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/liveinsight/companion/internal/audio"
)

// Transcriber produces a transcript from 16kHz mono samples.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32) (*Result, error)
}

// Result holds one engine response.
type Result struct {
	Text      string  `json:"text"`
	LatencyMs float64 `json:"latency_ms"`
}

// Router dispatches to a registered engine by name with a fallback
// default for unknown names.
type Router struct {
	engines  map[string]Transcriber
	fallback string
}

// NewRouter creates a router over the given engines. fallback is used
// when a requested engine is not registered.
func NewRouter(engines map[string]Transcriber, fallback string) *Router {
	return &Router{engines: engines, fallback: fallback}
}

// Route returns the engine for name, falling back to the default.
func (r *Router) Route(name string) (Transcriber, error) {
	if t, ok := r.engines[name]; ok {
		return t, nil
	}
	if t, ok := r.engines[r.fallback]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("no transcription engine for %q", name)
}

// Has reports whether name is registered.
func (r *Router) Has(name string) bool {
	_, ok := r.engines[name]
	return ok
}

// Engines lists registered engine names.
func (r *Router) Engines() []string {
	names := make([]string, 0, len(r.engines))
	for k := range r.engines {
		names = append(names, k)
	}
	return names
}

// maxChunk bounds what is sent to an engine in one request. Utterances
// can run over a minute when the cap closes them; engines degrade on
// clips that long.
const maxChunk = 30 * time.Second

// chunkOverlap is replayed at each split point so words cut by the
// split appear in both transcripts and the overlap merge can stitch
// them.
const chunkOverlap = time.Second

// Service wraps a Router with long-utterance chunking.
type Service struct {
	router *Router
}

// NewService builds the transcription service.
func NewService(router *Router) *Service {
	return &Service{router: router}
}

// Engines exposes the underlying router's engine names.
func (s *Service) Engines() []string { return s.router.Engines() }

// Transcribe routes samples to the named engine, splitting long
// utterances into overlapping chunks and merging the transcripts.
func (s *Service) Transcribe(ctx context.Context, samples []float32, engine string) (*Result, error) {
	t, err := s.router.Route(engine)
	if err != nil {
		return nil, err
	}

	chunkLen := int(maxChunk.Seconds()) * audio.SampleRate
	if len(samples) <= chunkLen {
		return t.Transcribe(ctx, samples)
	}

	overlapLen := int(chunkOverlap.Seconds()) * audio.SampleRate
	var text string
	var latency float64
	for start := 0; start < len(samples); start += chunkLen - overlapLen {
		end := min(start+chunkLen, len(samples))
		res, err := t.Transcribe(ctx, samples[start:end])
		if err != nil {
			return nil, fmt.Errorf("chunk at %d: %w", start, err)
		}
		text = MergeOverlap(text, res.Text)
		latency += res.LatencyMs
		if end == len(samples) {
			break
		}
	}
	return &Result{Text: strings.TrimSpace(text), LatencyMs: latency}, nil
}
