package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/soyeahso/aiosforge/internal/domain"
	"github.com/soyeahso/aiosforge/internal/wizard"
)

// Session is an in-progress wizard run: where the user is and the model
// they have built so far.
type Session struct {
	ID        string       `json:"id"`
	ProjectID string       `json:"projectId,omitempty"`
	State     wizard.State `json:"state"`
	Model     domain.Model `json:"model"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// SessionStore persists wizard sessions.
type SessionStore struct {
	db *DB
}

// NewSessionStore creates a session store using the given database.
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

// Create stores a new session and returns it with its ID and timestamps set.
func (s *SessionStore) Create(state wizard.State, m domain.Model) (Session, error) {
	model, err := encodeJSON(m)
	if err != nil {
		return Session{}, fmt.Errorf("encoding model: %w", err)
	}
	now := s.db.timestamp()
	sess := Session{
		ID:        uuid.New().String(),
		ProjectID: m.Project.ID,
		State:     state,
		Model:     m,
		CreatedAt: parseTime(now),
		UpdatedAt: parseTime(now),
	}

	_, err = s.db.sql.Exec(
		`INSERT INTO wizard_sessions (id, project_id, current_step, furthest_step, model, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.ProjectID, string(state.Current), string(state.Furthest), model, now, now,
	)
	if err != nil {
		return Session{}, fmt.Errorf("creating session: %w", err)
	}
	s.db.log.Debug().Str("session", sess.ID).Msg("wizard session created")
	return sess, nil
}

// Get returns the session with the given ID.
func (s *SessionStore) Get(id string) (Session, error) {
	var sess Session
	var current, furthest, model, createdAt, updatedAt string
	err := s.db.sql.QueryRow(
		`SELECT id, project_id, current_step, furthest_step, model, created_at, updated_at
		 FROM wizard_sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.ProjectID, &current, &furthest, &model, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("loading session %s: %w", id, err)
	}

	sess.State = wizard.State{Current: wizard.Step(current), Furthest: wizard.Step(furthest)}
	if err := decodeJSON(model, &sess.Model); err != nil {
		return Session{}, fmt.Errorf("decoding session model: %w", err)
	}
	sess.CreatedAt = parseTime(createdAt)
	sess.UpdatedAt = parseTime(updatedAt)
	return sess, nil
}

// Update overwrites the state, model and project link of an existing
// session and returns it with the new update time.
func (s *SessionStore) Update(sess Session) (Session, error) {
	model, err := encodeJSON(sess.Model)
	if err != nil {
		return Session{}, fmt.Errorf("encoding model: %w", err)
	}
	now := s.db.timestamp()
	res, err := s.db.sql.Exec(
		`UPDATE wizard_sessions
		 SET project_id = ?, current_step = ?, furthest_step = ?, model = ?, updated_at = ?
		 WHERE id = ?`,
		sess.ProjectID, string(sess.State.Current), string(sess.State.Furthest), model, now, sess.ID,
	)
	if err != nil {
		return Session{}, fmt.Errorf("updating session %s: %w", sess.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Session{}, fmt.Errorf("session %s: %w", sess.ID, ErrNotFound)
	}
	sess.UpdatedAt = parseTime(now)
	return sess, nil
}

// List returns all session IDs, most recently updated first.
func (s *SessionStore) List() ([]string, error) {
	rows, err := s.db.sql.Query(`SELECT id FROM wizard_sessions ORDER BY updated_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
