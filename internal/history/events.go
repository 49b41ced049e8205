package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/parleyhq/parley/internal/events"
)

// Record appends one bus event to the log. It satisfies the recorder
// contract used by events.RecordHandler.
func (s *Store) Record(evt events.Event) error {
	var sessionID *string
	if evt.Session != "" {
		sessionID = &evt.Session
	}

	var payloadJSON *string
	if evt.Payload != nil {
		data, err := json.Marshal(evt.Payload)
		if err != nil {
			return fmt.Errorf("failed to serialize payload: %w", err)
		}
		str := string(data)
		payloadJSON = &str
	}

	var errText *string
	if evt.Error != "" {
		errText = &evt.Error
	}

	createdAt := evt.Time
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO events (session_id, event_type, iteration, round, payload_json, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.conn.Exec(
		query,
		sessionID,
		string(evt.Type),
		evt.Iteration,
		evt.Round,
		payloadJSON,
		errText,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	return nil
}

// ListEvents returns logged events in append order. sessionID filters
// when non-empty; limit caps the result when positive.
func (s *Store) ListEvents(sessionID string, limit int) ([]events.Event, error) {
	query := `
		SELECT event_type, session_id, iteration, round, payload_json, error, created_at
		FROM events
	`
	var args []interface{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY id LIMIT ?`
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit)

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var out []events.Event
	for rows.Next() {
		var (
			evt         events.Event
			eventType   string
			session     sql.NullString
			iteration   sql.NullInt64
			round       sql.NullInt64
			payloadJSON sql.NullString
			errText     sql.NullString
		)

		err := rows.Scan(
			&eventType,
			&session,
			&iteration,
			&round,
			&payloadJSON,
			&errText,
			&evt.Time,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		evt.Type = events.EventType(eventType)
		if session.Valid {
			evt.Session = session.String
		}
		if iteration.Valid {
			n := int(iteration.Int64)
			evt.Iteration = &n
		}
		if round.Valid {
			n := int(round.Int64)
			evt.Round = &n
		}
		if payloadJSON.Valid {
			var payload interface{}
			if err := json.Unmarshal([]byte(payloadJSON.String), &payload); err != nil {
				return nil, fmt.Errorf("failed to decode event payload: %w", err)
			}
			evt.Payload = payload
		}
		if errText.Valid {
			evt.Error = errText.String
		}

		out = append(out, evt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return out, nil
}
