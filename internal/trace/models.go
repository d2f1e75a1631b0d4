package trace

import "time"

// Session represents one application run from launch to quit.
type Session struct {
	ID            string     `json:"id"`
	Metadata      string     `json:"metadata"`
	StartedAt     time.Time  `json:"started_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
	QuestionCount int        `json:"question_count,omitempty"`
}

// Question represents one captured question through transcription and
// answering. Seq is the session-local question order.
type Question struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Seq        uint64    `json:"seq"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs float64   `json:"duration_ms,omitempty"`
	Transcript string    `json:"transcript,omitempty"`
	Answer     string    `json:"answer,omitempty"`
	Mode       string    `json:"mode,omitempty"`
	Status     string    `json:"status"`
	StageCount int       `json:"stage_count,omitempty"`
}

// Stage represents one step of handling a question, e.g. transcribe
// or the resume and general answer attempts.
type Stage struct {
	ID         string    `json:"id"`
	QuestionID string    `json:"question_id"`
	Name       string    `json:"name"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs float64   `json:"duration_ms"`
	Input      string    `json:"input,omitempty"`
	Output     string    `json:"output,omitempty"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
}
