package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/liveinsight/companion/internal/audio"
	"github.com/liveinsight/companion/internal/httpx"
	"github.com/liveinsight/companion/internal/metrics"
)

// WhisperClient sends audio as multipart WAV to a whisper.cpp-style
// HTTP server. Only the endpoint path varies between server builds.
type WhisperClient struct {
	url      string
	endpoint string
	client   *http.Client
}

// NewWhisperClient creates a client for a whisper server exposing the
// /inference endpoint.
func NewWhisperClient(url string, poolSize int) *WhisperClient {
	return &WhisperClient{
		url:      url,
		endpoint: "/inference",
		client:   httpx.NewPooledClient(poolSize, 30*time.Second),
	}
}

// Warmup sends a second of silence to verify the server is responsive
// and its model is loaded.
func (c *WhisperClient) Warmup(ctx context.Context) error {
	body, contentType, err := multipartWAV(make([]float32, audio.SampleRate))
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.url+c.endpoint, body)
	if err != nil {
		return fmt.Errorf("create warmup request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("whisper warmup: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("whisper warmup status %d", resp.StatusCode)
	}
	return nil
}

// Transcribe posts 16kHz mono samples and returns the transcript.
func (c *WhisperClient) Transcribe(ctx context.Context, samples []float32) (*Result, error) {
	start := time.Now()

	body, contentType, err := multipartWAV(samples)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url+c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create whisper request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.Errors.WithLabelValues("asr", "http").Inc()
		return nil, fmt.Errorf("whisper request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		metrics.Errors.WithLabelValues("asr", "status").Inc()
		return nil, fmt.Errorf("whisper status %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Text string `json:"text"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode whisper response: %w", err)
	}

	latency := time.Since(start)
	metrics.TranscribeDuration.WithLabelValues("whisper-server").Observe(latency.Seconds())

	return &Result{Text: result.Text, LatencyMs: float64(latency.Milliseconds())}, nil
}

func multipartWAV(samples []float32) (*bytes.Buffer, string, error) {
	wavData := audio.EncodeWAV(samples, audio.SampleRate)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err = part.Write(wavData); err != nil {
		return nil, "", fmt.Errorf("write wav data: %w", err)
	}
	if err = writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close writer: %w", err)
	}
	return &body, writer.FormDataContentType(), nil
}
