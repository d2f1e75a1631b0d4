package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/liveinsight/companion/internal/audio"
	"github.com/liveinsight/companion/internal/metrics"
)

// OpenAIClient transcribes through the hosted OpenAI audio API. Used
// when no local whisper server is configured.
type OpenAIClient struct {
	client openai.Client
	model  openai.AudioModel
}

// NewOpenAIClient builds a hosted transcription client. An empty
// model selects whisper-1.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	m := openai.AudioModelWhisper1
	if model != "" {
		m = openai.AudioModel(model)
	}
	return &OpenAIClient{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  m,
	}
}

// Transcribe uploads samples as WAV and returns the transcript.
func (c *OpenAIClient) Transcribe(ctx context.Context, samples []float32) (*Result, error) {
	start := time.Now()

	wavData := audio.EncodeWAV(samples, audio.SampleRate)
	resp, err := c.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: c.model,
		File:  openai.File(bytes.NewReader(wavData), "audio.wav", "audio/wav"),
	})
	if err != nil {
		metrics.Errors.WithLabelValues("asr", "openai").Inc()
		return nil, fmt.Errorf("openai transcription: %w", err)
	}

	latency := time.Since(start)
	metrics.TranscribeDuration.WithLabelValues("openai").Observe(latency.Seconds())

	return &Result{Text: resp.Text, LatencyMs: float64(latency.Milliseconds())}, nil
}
