// Package answer decides how a question is answered and what the
// session reports about the outcome.
package answer

import "github.com/liveinsight/companion/internal/backend"

// Kind is the outcome category of one question.
type Kind int

const (
	// KindSuccess carries answer text and consumes answering credit.
	KindSuccess Kind = iota
	// KindBlocked means the question was refused before or by the
	// service. Blocked outcomes never consume credit.
	KindBlocked
	// KindFailed means a pipeline error; the question can be re-asked.
	KindFailed
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindBlocked:
		return "blocked"
	default:
		return "failed"
	}
}

// FailCode names what went wrong for a KindFailed result.
type FailCode string

const (
	FailTranscription FailCode = "transcription_error"
	FailTimeout       FailCode = "timeout"
	FailNetwork       FailCode = "network_error"
	// FailFiltered marks transcripts dropped as ASR hallucinations.
	FailFiltered FailCode = "noise_filtered"
)

// Blocked reasons.
const (
	ReasonNoCredits = "insufficient credits"
)

// Result is the terminal outcome of one question.
type Result struct {
	Kind Kind
	// Text is the answer body for KindSuccess.
	Text string
	// Mode is the strategy that produced the answer.
	Mode backend.Mode
	// Reason explains KindBlocked.
	Reason string
	// Code classifies KindFailed.
	Code FailCode
	// FellBack marks smart-mode answers that came from the general
	// fallback after an explicit not-covered reply.
	FellBack  bool
	LatencyMs float64
}

// Success builds a successful result.
func Success(text string, mode backend.Mode, fellBack bool, latencyMs float64) Result {
	return Result{Kind: KindSuccess, Text: text, Mode: mode, FellBack: fellBack, LatencyMs: latencyMs}
}

// Block builds a blocked result.
func Block(reason string) Result {
	return Result{Kind: KindBlocked, Reason: reason}
}

// Fail builds a failed result.
func Fail(code FailCode) Result {
	return Result{Kind: KindFailed, Code: code}
}
