package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/parleyhq/parley/internal/debate"
)

// SessionRecord is one stored review session: the artifact reviewed,
// every debate round it produced, and how it ended.
type SessionRecord struct {
	ID            string         `json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	ReviewType    debate.Kind    `json:"review_type"`
	Artifact      string         `json:"artifact"`
	Rounds        []debate.Round `json:"rounds,omitempty"`
	FinalDecision string         `json:"final_decision,omitempty"`
}

// NewSessionRecord creates a record with a fresh time-ordered id.
func NewSessionRecord(artifact string, reviewType debate.Kind, rounds []debate.Round) *SessionRecord {
	return &SessionRecord{
		ID:         ulid.Make().String(),
		CreatedAt:  time.Now().UTC(),
		ReviewType: reviewType,
		Artifact:   artifact,
		Rounds:     rounds,
	}
}

// Summary is a session listing entry without the round bodies.
type Summary struct {
	ID            string      `json:"id"`
	CreatedAt     time.Time   `json:"created_at"`
	ReviewType    debate.Kind `json:"review_type"`
	Artifact      string      `json:"artifact"`
	RoundCount    int         `json:"round_count"`
	FinalDecision string      `json:"final_decision,omitempty"`
}

// SaveSession inserts the record, or replaces the stored row when the
// id already exists (final_decision is typically filled in later).
func (s *Store) SaveSession(rec *SessionRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("session id is required")
	}

	roundsJSON, err := json.Marshal(rec.Rounds)
	if err != nil {
		return fmt.Errorf("failed to serialize rounds: %w", err)
	}

	var finalDecision *string
	if rec.FinalDecision != "" {
		finalDecision = &rec.FinalDecision
	}

	query := `
		INSERT INTO sessions (
			id, created_at, review_type, artifact, round_count,
			final_decision, rounds_json
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			review_type    = excluded.review_type,
			artifact       = excluded.artifact,
			round_count    = excluded.round_count,
			final_decision = excluded.final_decision,
			rounds_json    = excluded.rounds_json
	`

	_, err = s.conn.Exec(
		query,
		rec.ID,
		rec.CreatedAt,
		string(rec.ReviewType),
		rec.Artifact,
		len(rec.Rounds),
		finalDecision,
		string(roundsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// GetSession retrieves a session by id.
// Returns nil, nil if the session does not exist.
func (s *Store) GetSession(id string) (*SessionRecord, error) {
	query := `
		SELECT id, created_at, review_type, artifact, final_decision, rounds_json
		FROM sessions
		WHERE id = ?
	`

	rec := &SessionRecord{}
	var reviewType string
	var finalDecision sql.NullString
	var roundsJSON string

	err := s.conn.QueryRow(query, id).Scan(
		&rec.ID,
		&rec.CreatedAt,
		&reviewType,
		&rec.Artifact,
		&finalDecision,
		&roundsJSON,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	rec.ReviewType = debate.Kind(reviewType)
	if finalDecision.Valid {
		rec.FinalDecision = finalDecision.String
	}
	if err := json.Unmarshal([]byte(roundsJSON), &rec.Rounds); err != nil {
		return nil, fmt.Errorf("failed to decode rounds for session %s: %w", id, err)
	}

	return rec, nil
}

// ListSessions returns session summaries newest-first. reviewType
// filters when non-empty; limit caps the result when positive.
func (s *Store) ListSessions(reviewType debate.Kind, limit int) ([]*Summary, error) {
	query := `
		SELECT id, created_at, review_type, artifact, round_count, final_decision
		FROM sessions
	`
	var args []interface{}
	if reviewType != "" {
		query += ` WHERE review_type = ?`
		args = append(args, string(reviewType))
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit)

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// Search returns session summaries newest-first, bounded by creation
// time. Zero bounds are open; reviewType filters when non-empty.
func (s *Store) Search(from, to time.Time, reviewType debate.Kind) ([]*Summary, error) {
	query := `
		SELECT id, created_at, review_type, artifact, round_count, final_decision
		FROM sessions
		WHERE 1=1
	`
	var args []interface{}
	if !from.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, from)
	}
	if !to.IsZero() {
		query += ` AND created_at <= ?`
		args = append(args, to)
	}
	if reviewType != "" {
		query += ` AND review_type = ?`
		args = append(args, string(reviewType))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search sessions: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// DeleteSession removes a session by id.
func (s *Store) DeleteSession(id string) error {
	result, err := s.conn.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("session not found: %s", id)
	}

	return nil
}

func scanSummaries(rows *sql.Rows) ([]*Summary, error) {
	var summaries []*Summary
	for rows.Next() {
		sum := &Summary{}
		var reviewType string
		var finalDecision sql.NullString

		err := rows.Scan(
			&sum.ID,
			&sum.CreatedAt,
			&reviewType,
			&sum.Artifact,
			&sum.RoundCount,
			&finalDecision,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}

		sum.ReviewType = debate.Kind(reviewType)
		if finalDecision.Valid {
			sum.FinalDecision = finalDecision.String
		}
		summaries = append(summaries, sum)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return summaries, nil
}
