package trace

import (
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const maxSessions = 100

// Store persists question traces to PostgreSQL.
type Store struct {
	db *sql.DB
}

// Open connects to the trace database at connStr and applies pending
// migrations.
func Open(connStr string) (*Store, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("trace open: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("trace ping: %w", err)
	}
	if err = migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("trace migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`)
	if err != nil {
		return err
	}

	var current int
	row := db.QueryRow(`SELECT COALESCE(MAX(version), -1) FROM schema_version`)
	if err = row.Scan(&current); err != nil {
		return err
	}

	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	for i := current + 1; i < len(entries); i++ {
		data, readErr := migrationFS.ReadFile("migrations/" + entries[i].Name())
		if readErr != nil {
			return fmt.Errorf("read migration %d: %w", i, readErr)
		}
		if _, execErr := db.Exec(string(data)); execErr != nil {
			return fmt.Errorf("migration %d: %w", i, execErr)
		}
		if _, execErr := db.Exec(`INSERT INTO schema_version (version) VALUES ($1)`, i); execErr != nil {
			return fmt.Errorf("migration %d record: %w", i, execErr)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSession inserts a new session and prunes old ones.
func (s *Store) CreateSession(id, metadata string) error {
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, metadata, started_at) VALUES ($1, $2, $3)`,
		id, metadata, time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`DELETE FROM sessions WHERE id NOT IN (SELECT id FROM sessions ORDER BY started_at DESC LIMIT $1)`,
		maxSessions,
	)
	return err
}

// EndSession sets the ended_at timestamp.
func (s *Store) EndSession(id string) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET ended_at = $1 WHERE id = $2`,
		time.Now().UTC(), id,
	)
	return err
}

// CreateQuestion inserts a new question in the open state.
func (s *Store) CreateQuestion(id, sessionID string, seq uint64) error {
	_, err := s.db.Exec(
		`INSERT INTO questions (id, session_id, seq, started_at, status) VALUES ($1, $2, $3, $4, 'open')`,
		id, sessionID, seq, time.Now().UTC(),
	)
	return err
}

// FinishQuestion sets the question's terminal fields.
func (s *Store) FinishQuestion(id string, durationMs float64, transcript, answer, mode, status string) error {
	_, err := s.db.Exec(
		`UPDATE questions SET duration_ms = $1, transcript = $2, answer = $3, mode = $4, status = $5 WHERE id = $6`,
		durationMs, transcript, answer, mode, status, id,
	)
	return err
}

// CreateStage inserts one stage record.
func (s *Store) CreateStage(st Stage) error {
	_, err := s.db.Exec(
		`INSERT INTO stages (id, question_id, name, started_at, duration_ms, input, output, status, error_msg)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		st.ID, st.QuestionID, st.Name, st.StartedAt.UTC(),
		st.DurationMs, st.Input, st.Output, st.Status, st.Error,
	)
	return err
}

// ListSessions returns sessions ordered newest first, with question
// counts.
func (s *Store) ListSessions(limit, offset int) ([]Session, int, error) {
	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.Query(`
		SELECT s.id, s.metadata, s.started_at, s.ended_at, COUNT(q.id) as question_count
		FROM sessions s
		LEFT JOIN questions q ON q.session_id = s.id
		GROUP BY s.id
		ORDER BY s.started_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		var endedAt sql.NullTime
		if err = rows.Scan(&sess.ID, &sess.Metadata, &sess.StartedAt, &endedAt, &sess.QuestionCount); err != nil {
			return nil, 0, err
		}
		if endedAt.Valid {
			sess.EndedAt = &endedAt.Time
		}
		sessions = append(sessions, sess)
	}
	return sessions, total, rows.Err()
}

// GetSession returns a single session with its questions in ask order.
func (s *Store) GetSession(id string) (*Session, []Question, error) {
	var sess Session
	var endedAt sql.NullTime
	err := s.db.QueryRow(
		`SELECT id, metadata, started_at, ended_at FROM sessions WHERE id = $1`, id,
	).Scan(&sess.ID, &sess.Metadata, &sess.StartedAt, &endedAt)
	if err != nil {
		return nil, nil, err
	}
	if endedAt.Valid {
		sess.EndedAt = &endedAt.Time
	}

	rows, err := s.db.Query(`
		SELECT q.id, q.session_id, q.seq, q.started_at, q.duration_ms, q.transcript, q.answer, q.mode, q.status,
		       COUNT(st.id) as stage_count
		FROM questions q
		LEFT JOIN stages st ON st.question_id = q.id
		WHERE q.session_id = $1
		GROUP BY q.id
		ORDER BY q.seq ASC
	`, id)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var questions []Question
	for rows.Next() {
		var q Question
		if err = rows.Scan(&q.ID, &q.SessionID, &q.Seq, &q.StartedAt, &q.DurationMs, &q.Transcript, &q.Answer, &q.Mode, &q.Status, &q.StageCount); err != nil {
			return nil, nil, err
		}
		questions = append(questions, q)
	}
	return &sess, questions, rows.Err()
}

// GetQuestion returns a single question with its stages.
func (s *Store) GetQuestion(sessionID, questionID string) (*Question, []Stage, error) {
	var q Question
	err := s.db.QueryRow(
		`SELECT id, session_id, seq, started_at, duration_ms, transcript, answer, mode, status FROM questions WHERE id = $1 AND session_id = $2`,
		questionID, sessionID,
	).Scan(&q.ID, &q.SessionID, &q.Seq, &q.StartedAt, &q.DurationMs, &q.Transcript, &q.Answer, &q.Mode, &q.Status)
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.db.Query(
		`SELECT id, question_id, name, started_at, duration_ms, input, output, status, error_msg FROM stages WHERE question_id = $1 ORDER BY started_at ASC`,
		questionID,
	)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var stages []Stage
	for rows.Next() {
		var st Stage
		if err = rows.Scan(&st.ID, &st.QuestionID, &st.Name, &st.StartedAt, &st.DurationMs, &st.Input, &st.Output, &st.Status, &st.Error); err != nil {
			return nil, nil, err
		}
		stages = append(stages, st)
	}
	return &q, stages, rows.Err()
}
