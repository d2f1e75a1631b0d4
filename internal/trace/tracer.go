package trace

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const maxIOLen = 500

type traceMsg struct {
	kind string // "question_create", "question_finish", "stage"
	// question fields
	questionID string
	sessionID  string
	seq        uint64
	durationMs float64
	transcript string
	answer     string
	mode       string
	status     string
	// stage fields
	stage Stage
}

// Tracer writes question traces asynchronously via a buffered channel
// so the session loop never blocks on the database. All methods are
// nil-safe (no-op on nil receiver).
type Tracer struct {
	store     *Store
	sessionID string
	ch        chan traceMsg
	done      chan struct{}
}

// NewTracer creates a tracer bound to a session. Must call Close when
// done.
func NewTracer(store *Store, sessionID string) *Tracer {
	t := &Tracer{
		store:     store,
		sessionID: sessionID,
		ch:        make(chan traceMsg, 64),
		done:      make(chan struct{}),
	}
	go t.drain()
	return t
}

func (t *Tracer) drain() {
	defer close(t.done)
	for msg := range t.ch {
		t.handle(msg)
	}
}

func (t *Tracer) handle(m traceMsg) {
	var err error
	switch m.kind {
	case "question_create":
		err = t.store.CreateQuestion(m.questionID, m.sessionID, m.seq)
	case "question_finish":
		err = t.store.FinishQuestion(m.questionID, m.durationMs, m.transcript, m.answer, m.mode, m.status)
	case "stage":
		err = t.store.CreateStage(m.stage)
	default:
		return
	}
	if err != nil {
		slog.Warn("trace write failed", "kind", m.kind, "error", err)
	}
}

// StartQuestion opens a question record and returns its trace ID.
func (t *Tracer) StartQuestion(seq uint64) string {
	if t == nil {
		return ""
	}
	id := uuid.NewString()
	t.ch <- traceMsg{kind: "question_create", questionID: id, sessionID: t.sessionID, seq: seq}
	return id
}

// FinishQuestion records a question's terminal outcome.
func (t *Tracer) FinishQuestion(questionID string, durationMs float64, transcript, answer, mode, status string) {
	if t == nil {
		return
	}
	t.ch <- traceMsg{
		kind:       "question_finish",
		questionID: questionID,
		durationMs: durationMs,
		transcript: truncate(transcript, maxIOLen),
		answer:     truncate(answer, maxIOLen),
		mode:       mode,
		status:     status,
	}
}

// RecordStage records one completed handling stage.
func (t *Tracer) RecordStage(questionID, name string, startedAt time.Time, durationMs float64, input, output, status, errMsg string) {
	if t == nil {
		return
	}
	t.ch <- traceMsg{
		kind: "stage",
		stage: Stage{
			ID:         uuid.NewString(),
			QuestionID: questionID,
			Name:       name,
			StartedAt:  startedAt,
			DurationMs: durationMs,
			Input:      truncate(input, maxIOLen),
			Output:     truncate(output, maxIOLen),
			Status:     status,
			Error:      errMsg,
		},
	}
}

// Close drains pending writes and stops the background goroutine.
func (t *Tracer) Close() {
	if t == nil {
		return
	}
	close(t.ch)
	<-t.done
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
