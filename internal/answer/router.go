package answer

import (
	"context"
	"log/slog"
	"time"

	"github.com/liveinsight/companion/internal/backend"
	"github.com/liveinsight/companion/internal/metrics"
)

// Service is the part of the backend client the router needs.
type Service interface {
	Ask(ctx context.Context, question string, mode backend.Mode, resume string, history []backend.Turn) (*backend.Answer, error)
}

// Router turns a transcribed question into a Result. In smart mode it
// asks resume-grounded first and falls back to general knowledge only
// on an explicit not-covered reply.
type Router struct {
	svc     Service
	meter   *Meter
	timeout time.Duration
}

// NewRouter builds a router. timeout bounds each service attempt.
func NewRouter(svc Service, meter *Meter, timeout time.Duration) *Router {
	return &Router{svc: svc, meter: meter, timeout: timeout}
}

// Answer resolves one question. It never returns before a terminal
// Result; errors are folded into KindFailed.
func (r *Router) Answer(ctx context.Context, question string, smart bool, resume string, history []backend.Turn) Result {
	if !r.meter.CanSpend() {
		// Short-circuit before any network traffic.
		metrics.Answers.WithLabelValues("none", "blocked").Inc()
		return Block(ReasonNoCredits)
	}

	mode := backend.ModeGeneral
	if smart {
		mode = backend.ModeResume
	}

	ans, err := r.ask(ctx, question, mode, resume, history)
	if err != nil {
		return r.fail(mode, err)
	}
	if ans.Blocked {
		metrics.Answers.WithLabelValues(string(mode), "blocked").Inc()
		return Block(ans.Reason)
	}

	fellBack := false
	if mode == backend.ModeResume && ans.NotCovered {
		slog.Info("resume does not cover question, falling back", "question_len", len(question))
		mode = backend.ModeGeneral
		fellBack = true
		ans, err = r.ask(ctx, question, mode, "", history)
		if err != nil {
			return r.fail(mode, err)
		}
		if ans.Blocked {
			metrics.Answers.WithLabelValues(string(mode), "blocked").Inc()
			return Block(ans.Reason)
		}
	}

	metrics.Answers.WithLabelValues(string(mode), "success").Inc()
	return Success(ans.Text, mode, fellBack, ans.LatencyMs)
}

// ask performs one service attempt with the per-attempt deadline,
// retrying exactly once when the attempt times out.
func (r *Router) ask(ctx context.Context, question string, mode backend.Mode, resume string, history []backend.Turn) (*backend.Answer, error) {
	ans, err := r.attempt(ctx, question, mode, resume, history)
	if err != nil && backend.IsTimeout(err) && ctx.Err() == nil {
		slog.Warn("answer attempt timed out, retrying once", "mode", mode)
		ans, err = r.attempt(ctx, question, mode, resume, history)
	}
	return ans, err
}

func (r *Router) attempt(ctx context.Context, question string, mode backend.Mode, resume string, history []backend.Turn) (*backend.Answer, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.svc.Ask(attemptCtx, question, mode, resume, history)
}

func (r *Router) fail(mode backend.Mode, err error) Result {
	code := FailNetwork
	if backend.IsTimeout(err) {
		code = FailTimeout
	}
	slog.Error("answer failed", "mode", mode, "code", code, "err", err)
	metrics.Answers.WithLabelValues(string(mode), "failed").Inc()
	return Fail(code)
}
