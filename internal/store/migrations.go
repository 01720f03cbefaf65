package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create projects, agents, squads and integrations",
		SQL: `
			CREATE TABLE projects (
				id          TEXT PRIMARY KEY,
				name        TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				domain      TEXT NOT NULL DEFAULT '',
				pattern     TEXT NOT NULL DEFAULT 'sequential_pipeline',
				workflows   TEXT NOT NULL DEFAULT '[]',
				created_at  TEXT NOT NULL DEFAULT (datetime('now')),
				updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE TABLE agents (
				project_id    TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
				position      INTEGER NOT NULL,
				slug          TEXT NOT NULL,
				name          TEXT NOT NULL DEFAULT '',
				role          TEXT NOT NULL DEFAULT '',
				description   TEXT NOT NULL DEFAULT '',
				system_prompt TEXT NOT NULL DEFAULT '',
				llm_model     TEXT NOT NULL DEFAULT '',
				visibility    TEXT NOT NULL DEFAULT 'full',
				commands      TEXT NOT NULL DEFAULT '[]',
				tools         TEXT NOT NULL DEFAULT '[]',
				skills        TEXT NOT NULL DEFAULT '[]',
				memory        TEXT NOT NULL DEFAULT '[]',
				custom        INTEGER NOT NULL DEFAULT 0,
				PRIMARY KEY (project_id, slug)
			);

			CREATE INDEX idx_agents_position ON agents (project_id, position);

			CREATE TABLE squads (
				project_id  TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
				position    INTEGER NOT NULL,
				slug        TEXT NOT NULL,
				name        TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				agent_ids   TEXT NOT NULL DEFAULT '[]',
				tasks       TEXT NOT NULL DEFAULT '[]',
				workflows   TEXT NOT NULL DEFAULT '[]',
				PRIMARY KEY (project_id, slug)
			);

			CREATE TABLE integrations (
				project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
				position   INTEGER NOT NULL,
				kind       TEXT NOT NULL,
				name       TEXT NOT NULL DEFAULT '',
				enabled    INTEGER NOT NULL DEFAULT 0,
				settings   TEXT NOT NULL DEFAULT '{}',
				PRIMARY KEY (project_id, position)
			);
		`,
	},
	{
		Version: 2,
		Name:    "create generated files",
		SQL: `
			CREATE TABLE generated_files (
				id                INTEGER PRIMARY KEY AUTOINCREMENT,
				project_id        TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
				position          INTEGER NOT NULL,
				path              TEXT NOT NULL,
				content           TEXT NOT NULL,
				type              TEXT NOT NULL,
				compliance_status TEXT NOT NULL DEFAULT 'pending',
				compliance_notes  TEXT NOT NULL DEFAULT '',
				created_at        TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE UNIQUE INDEX idx_generated_files_path ON generated_files (project_id, path);
		`,
	},
	{
		Version: 3,
		Name:    "create wizard sessions",
		SQL: `
			CREATE TABLE wizard_sessions (
				id            TEXT PRIMARY KEY,
				project_id    TEXT NOT NULL DEFAULT '',
				current_step  TEXT NOT NULL,
				furthest_step TEXT NOT NULL,
				model         TEXT NOT NULL,
				created_at    TEXT NOT NULL DEFAULT (datetime('now')),
				updated_at    TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_wizard_sessions_updated ON wizard_sessions (updated_at);
		`,
	},
}
