package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/soyeahso/aiosforge/internal/domain"
)

// ProjectSummary is one row of the project list.
type ProjectSummary struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Pattern   domain.Pattern `json:"pattern"`
	Agents    int            `json:"agents"`
	Squads    int            `json:"squads"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// ProjectStore persists complete project models.
type ProjectStore struct {
	db *DB
}

// NewProjectStore creates a project store using the given database.
func NewProjectStore(db *DB) *ProjectStore {
	return &ProjectStore{db: db}
}

// Save writes m and all of its agents, squads and integrations in one
// transaction. A model without a project ID is inserted under a new ID;
// otherwise the stored project is overwritten. Generated files are kept.
func (s *ProjectStore) Save(m domain.Model) (string, error) {
	id := m.Project.ID
	if id == "" {
		id = uuid.New().String()
	}

	workflows, err := encodeJSON(m.Workflows)
	if err != nil {
		return "", fmt.Errorf("encoding workflows: %w", err)
	}

	now := s.db.timestamp()
	err = s.db.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO projects (id, name, description, domain, pattern, workflows, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				description = excluded.description,
				domain = excluded.domain,
				pattern = excluded.pattern,
				workflows = excluded.workflows,
				updated_at = excluded.updated_at`,
			id, m.Project.Name, m.Project.Description, m.Project.Domain,
			string(m.Project.Pattern.OrDefault()), workflows, now, now,
		)
		if err != nil {
			return fmt.Errorf("saving project: %w", err)
		}

		for _, table := range []string{"agents", "squads", "integrations"} {
			if _, err := tx.Exec("DELETE FROM "+table+" WHERE project_id = ?", id); err != nil {
				return fmt.Errorf("clearing %s: %w", table, err)
			}
		}

		for i, a := range m.Agents {
			if err := insertAgent(tx, id, i, a); err != nil {
				return err
			}
		}
		for i, sq := range m.Squads {
			if err := insertSquad(tx, id, i, sq); err != nil {
				return err
			}
		}
		for i, in := range m.Integrations {
			if err := insertIntegration(tx, id, i, in); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.db.log.Debug().Str("project", id).Int("agents", len(m.Agents)).Int("squads", len(m.Squads)).Msg("project saved")
	return id, nil
}

func insertAgent(tx *sql.Tx, projectID string, pos int, a domain.Agent) error {
	cols := make([]string, 4)
	for i, v := range []any{a.Commands, a.Tools, a.Skills, a.Memory} {
		enc, err := encodeJSON(v)
		if err != nil {
			return fmt.Errorf("encoding agent %s: %w", a.Slug, err)
		}
		cols[i] = enc
	}
	_, err := tx.Exec(
		`INSERT INTO agents (project_id, position, slug, name, role, description, system_prompt,
			llm_model, visibility, commands, tools, skills, memory, custom)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		projectID, pos, a.Slug, a.Name, a.Role, a.Description, a.SystemPrompt,
		a.LLMModel, string(a.Visibility), cols[0], cols[1], cols[2], cols[3], boolInt(a.Custom),
	)
	if err != nil {
		return fmt.Errorf("saving agent %s: %w", a.Slug, err)
	}
	return nil
}

func insertSquad(tx *sql.Tx, projectID string, pos int, sq domain.Squad) error {
	cols := make([]string, 3)
	for i, v := range []any{sq.AgentIDs, sq.Tasks, sq.Workflows} {
		enc, err := encodeJSON(v)
		if err != nil {
			return fmt.Errorf("encoding squad %s: %w", sq.Slug, err)
		}
		cols[i] = enc
	}
	_, err := tx.Exec(
		`INSERT INTO squads (project_id, position, slug, name, description, agent_ids, tasks, workflows)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		projectID, pos, sq.Slug, sq.Name, sq.Description, cols[0], cols[1], cols[2],
	)
	if err != nil {
		return fmt.Errorf("saving squad %s: %w", sq.Slug, err)
	}
	return nil
}

func insertIntegration(tx *sql.Tx, projectID string, pos int, in domain.Integration) error {
	settings, err := encodeJSON(in.Settings)
	if err != nil {
		return fmt.Errorf("encoding integration %s: %w", in.Kind, err)
	}
	_, err = tx.Exec(
		`INSERT INTO integrations (project_id, position, kind, name, enabled, settings)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		projectID, pos, in.Kind, in.Name, boolInt(in.Enabled), settings,
	)
	if err != nil {
		return fmt.Errorf("saving integration %s: %w", in.Kind, err)
	}
	return nil
}

// Load returns the stored model for id.
func (s *ProjectStore) Load(id string) (domain.Model, error) {
	var m domain.Model
	var pattern, workflows string
	err := s.db.sql.QueryRow(
		`SELECT id, name, description, domain, pattern, workflows FROM projects WHERE id = ?`, id,
	).Scan(&m.Project.ID, &m.Project.Name, &m.Project.Description, &m.Project.Domain, &pattern, &workflows)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Model{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.Model{}, fmt.Errorf("loading project %s: %w", id, err)
	}
	m.Project.Pattern = domain.Pattern(pattern)
	if err := decodeJSON(workflows, &m.Workflows); err != nil {
		return domain.Model{}, fmt.Errorf("decoding workflows: %w", err)
	}

	if m.Agents, err = s.loadAgents(id); err != nil {
		return domain.Model{}, err
	}
	if m.Squads, err = s.loadSquads(id); err != nil {
		return domain.Model{}, err
	}
	if m.Integrations, err = s.loadIntegrations(id); err != nil {
		return domain.Model{}, err
	}
	return m, nil
}

func (s *ProjectStore) loadAgents(projectID string) ([]domain.Agent, error) {
	rows, err := s.db.sql.Query(
		`SELECT slug, name, role, description, system_prompt, llm_model, visibility,
			commands, tools, skills, memory, custom
		 FROM agents WHERE project_id = ? ORDER BY position`, projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading agents: %w", err)
	}
	defer rows.Close()

	var agents []domain.Agent
	for rows.Next() {
		var a domain.Agent
		var visibility, commands, tools, skills, memory string
		var custom int
		if err := rows.Scan(&a.Slug, &a.Name, &a.Role, &a.Description, &a.SystemPrompt, &a.LLMModel,
			&visibility, &commands, &tools, &skills, &memory, &custom); err != nil {
			return nil, fmt.Errorf("scanning agent: %w", err)
		}
		a.Visibility = domain.Visibility(visibility)
		a.Custom = custom != 0
		for _, col := range []struct {
			raw string
			dst any
		}{{commands, &a.Commands}, {tools, &a.Tools}, {skills, &a.Skills}, {memory, &a.Memory}} {
			if err := decodeJSON(col.raw, col.dst); err != nil {
				return nil, fmt.Errorf("decoding agent %s: %w", a.Slug, err)
			}
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

func (s *ProjectStore) loadSquads(projectID string) ([]domain.Squad, error) {
	rows, err := s.db.sql.Query(
		`SELECT slug, name, description, agent_ids, tasks, workflows
		 FROM squads WHERE project_id = ? ORDER BY position`, projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading squads: %w", err)
	}
	defer rows.Close()

	var squads []domain.Squad
	for rows.Next() {
		var sq domain.Squad
		var agentIDs, tasks, workflows string
		if err := rows.Scan(&sq.Slug, &sq.Name, &sq.Description, &agentIDs, &tasks, &workflows); err != nil {
			return nil, fmt.Errorf("scanning squad: %w", err)
		}
		if err := decodeJSON(agentIDs, &sq.AgentIDs); err != nil {
			return nil, fmt.Errorf("decoding squad %s: %w", sq.Slug, err)
		}
		if err := decodeJSON(tasks, &sq.Tasks); err != nil {
			return nil, fmt.Errorf("decoding squad %s: %w", sq.Slug, err)
		}
		if err := decodeJSON(workflows, &sq.Workflows); err != nil {
			return nil, fmt.Errorf("decoding squad %s: %w", sq.Slug, err)
		}
		squads = append(squads, sq)
	}
	return squads, rows.Err()
}

func (s *ProjectStore) loadIntegrations(projectID string) ([]domain.Integration, error) {
	rows, err := s.db.sql.Query(
		`SELECT kind, name, enabled, settings FROM integrations WHERE project_id = ? ORDER BY position`, projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading integrations: %w", err)
	}
	defer rows.Close()

	var list []domain.Integration
	for rows.Next() {
		var in domain.Integration
		var enabled int
		var settings string
		if err := rows.Scan(&in.Kind, &in.Name, &enabled, &settings); err != nil {
			return nil, fmt.Errorf("scanning integration: %w", err)
		}
		in.Enabled = enabled != 0
		if err := decodeJSON(settings, &in.Settings); err != nil {
			return nil, fmt.Errorf("decoding integration %s: %w", in.Kind, err)
		}
		list = append(list, in)
	}
	return list, rows.Err()
}

// List returns every project, most recently updated first.
func (s *ProjectStore) List() ([]ProjectSummary, error) {
	rows, err := s.db.sql.Query(
		`SELECT p.id, p.name, p.pattern, p.created_at, p.updated_at,
			(SELECT COUNT(*) FROM agents a WHERE a.project_id = p.id),
			(SELECT COUNT(*) FROM squads q WHERE q.project_id = p.id)
		 FROM projects p ORDER BY p.updated_at DESC, p.rowid DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	out := []ProjectSummary{}
	for rows.Next() {
		var p ProjectSummary
		var pattern, createdAt, updatedAt string
		if err := rows.Scan(&p.ID, &p.Name, &pattern, &createdAt, &updatedAt, &p.Agents, &p.Squads); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		p.Pattern = domain.Pattern(pattern)
		p.CreatedAt = parseTime(createdAt)
		p.UpdatedAt = parseTime(updatedAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Delete removes a project together with its members and generated files.
func (s *ProjectStore) Delete(id string) error {
	res, err := s.db.sql.Exec(`DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting project %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	s.db.log.Info().Str("project", id).Msg("project deleted")
	return nil
}
