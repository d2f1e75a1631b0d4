// Package backend talks to the answer service. The service owns all
// prompt and retrieval logic; this client only moves questions, modes,
// and credit operations over HTTP.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/liveinsight/companion/internal/httpx"
	"github.com/liveinsight/companion/internal/metrics"
)

// Mode selects the answering strategy on the service side.
type Mode string

const (
	// ModeGeneral answers from general knowledge.
	ModeGeneral Mode = "general"
	// ModeResume answers grounded in the uploaded resume.
	ModeResume Mode = "resume"
)

// Turn is one past question/answer pair sent as conversation context.
type Turn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Answer is the service's reply to one question.
type Answer struct {
	Text string
	// NotCovered is set only when the service explicitly reported the
	// resume does not cover the question.
	NotCovered bool
	// Blocked means the service refused to answer, e.g. a moderation
	// template. Reason carries its explanation.
	Blocked   bool
	Reason    string
	LatencyMs float64
}

// ErrMalformed reports a 200 response whose body did not contain a
// usable answer.
var ErrMalformed = errors.New("malformed answer response")

// Client is the HTTP answer-service client. Safe for concurrent use.
type Client struct {
	baseURL string
	email   string
	token   string
	client  *http.Client
}

// NewClient builds a client for the service at baseURL. token is
// optional and sent as a bearer credential when set.
func NewClient(baseURL, email, token string, poolSize int) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		email:   email,
		token:   token,
		// The pool client carries no overall timeout; each call is
		// bounded by its context so profiles control the deadline.
		client: httpx.NewPooledClient(poolSize, 0),
	}
}

type askRequest struct {
	Email    string `json:"email"`
	Question string `json:"question"`
	Mode     Mode   `json:"mode"`
	Resume   string `json:"resume,omitempty"`
	History  []Turn `json:"history,omitempty"`
}

type askResponse struct {
	Answer  string `json:"answer"`
	Covered *bool  `json:"covered,omitempty"`
	Blocked bool   `json:"blocked,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Ask submits one question. In resume mode the resume text rides along
// so the service never needs companion-side storage.
func (c *Client) Ask(ctx context.Context, question string, mode Mode, resume string, history []Turn) (*Answer, error) {
	start := time.Now()

	var resp askResponse
	err := c.post(ctx, "/v1/answer", askRequest{
		Email:    c.email,
		Question: question,
		Mode:     mode,
		Resume:   resume,
		History:  history,
	}, &resp)
	if err != nil {
		metrics.Errors.WithLabelValues("backend", errorType(err)).Inc()
		return nil, err
	}

	latency := time.Since(start)
	metrics.AnswerDuration.WithLabelValues(string(mode)).Observe(latency.Seconds())

	out := &Answer{
		Text:      strings.TrimSpace(resp.Answer),
		Blocked:   resp.Blocked,
		Reason:    resp.Reason,
		LatencyMs: float64(latency.Milliseconds()),
	}
	if resp.Blocked {
		return out, nil
	}
	if mode == ModeResume && resp.Covered != nil && !*resp.Covered {
		out.NotCovered = true
		return out, nil
	}
	if out.Text == "" {
		// A covered answer with no text is a service bug, not a
		// fallback signal.
		return nil, fmt.Errorf("%w: empty answer with covered result", ErrMalformed)
	}
	return out, nil
}

type creditsResponse struct {
	Credits int `json:"credits"`
}

// CreditBalance fetches the authoritative credit count.
func (c *Client) CreditBalance(ctx context.Context) (int, error) {
	var resp creditsResponse
	if err := c.post(ctx, "/v1/credits/balance", map[string]string{"email": c.email}, &resp); err != nil {
		metrics.Errors.WithLabelValues("credits", errorType(err)).Inc()
		return 0, err
	}
	return resp.Credits, nil
}

// ConsumeCredit spends one credit and returns the remaining balance,
// which is authoritative.
func (c *Client) ConsumeCredit(ctx context.Context) (int, error) {
	var resp creditsResponse
	if err := c.post(ctx, "/v1/credits/consume", map[string]string{"email": c.email}, &resp); err != nil {
		metrics.Errors.WithLabelValues("credits", errorType(err)).Inc()
		return 0, err
	}
	return resp.Credits, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s status %d: %s", path, resp.StatusCode, string(respBody))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// IsTimeout reports whether err ended in a deadline, either from the
// request context or the transport.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func errorType(err error) string {
	if IsTimeout(err) {
		return "timeout"
	}
	return "http"
}
