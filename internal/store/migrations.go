package store

import (
	"fmt"
	"strconv"
)

func (s *Store) migrate() error {
	if err := s.migrateV1(); err != nil {
		return err
	}
	if err := s.migrateV2(); err != nil {
		return err
	}
	return s.migrateV3()
}

// SchemaVersion returns the applied schema version, or 0 if unknown.
func (s *Store) SchemaVersion() int {
	var version string
	if err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&version); err != nil {
		return 0
	}
	v, _ := strconv.Atoi(version)
	return v
}

func (s *Store) setSchemaVersion(v int) error {
	if _, err := s.db.Exec(`INSERT OR REPLACE INTO meta(key, value) VALUES ('schema_version', ?)`, strconv.Itoa(v)); err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}
	return nil
}

// migrateV1 creates projects with their cursor, answers and transcript.
func (s *Store) migrateV1() error {
	schema := `
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS projects (
		id           TEXT PRIMARY KEY,
		owner_id     TEXT NOT NULL,
		name         TEXT NOT NULL,
		initial_idea TEXT NOT NULL DEFAULT '',
		locale       TEXT NOT NULL DEFAULT 'en',
		cursor       TEXT NOT NULL,
		created_at   INTEGER NOT NULL,
		updated_at   INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_projects_owner ON projects(owner_id);

	CREATE TABLE IF NOT EXISTS project_answers (
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		field_key  TEXT NOT NULL,
		value      TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (project_id, field_key)
	);

	CREATE TABLE IF NOT EXISTS project_messages (
		id            TEXT PRIMARY KEY,
		project_id    TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		seq           INTEGER NOT NULL,
		sender        TEXT NOT NULL,
		text          TEXT NOT NULL,
		stage         TEXT NOT NULL DEFAULT '',
		is_suggestion INTEGER NOT NULL DEFAULT 0,
		sources       TEXT,
		created_at    INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pmsg_project ON project_messages(project_id, seq);

	CREATE TABLE IF NOT EXISTS ai_usage (
		subject_id  TEXT PRIMARY KEY,
		ai_messages INTEGER NOT NULL DEFAULT 0,
		updated_at  INTEGER NOT NULL
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute migration v1: %w", err)
	}
	if s.SchemaVersion() >= 1 {
		return nil
	}
	return s.setSchemaVersion(1)
}

// migrateV2 adds feature grants and the admin audit log.
func (s *Store) migrateV2() error {
	if s.SchemaVersion() >= 2 {
		return nil
	}

	schema := `
	CREATE TABLE IF NOT EXISTS user_features (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		feature_key TEXT NOT NULL,
		is_enabled  INTEGER NOT NULL DEFAULT 1,
		expires_at  INTEGER,
		granted_by  TEXT NOT NULL DEFAULT '',
		notes       TEXT,
		created_at  INTEGER NOT NULL,
		updated_at  INTEGER NOT NULL,
		UNIQUE (user_id, feature_key)
	);

	CREATE INDEX IF NOT EXISTS idx_features_user ON user_features(user_id);

	CREATE TABLE IF NOT EXISTS admin_audit_log (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		admin_id       TEXT NOT NULL,
		action         TEXT NOT NULL,
		target_user_id TEXT,
		details        TEXT,
		created_at     INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_created ON admin_audit_log(created_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute migration v2: %w", err)
	}
	return s.setSchemaVersion(2)
}

// migrateV3 adds upgrade requests and project team members.
func (s *Store) migrateV3() error {
	if s.SchemaVersion() >= 3 {
		return nil
	}

	schema := `
	CREATE TABLE IF NOT EXISTS upgrade_requests (
		id             TEXT PRIMARY KEY,
		user_id        TEXT NOT NULL,
		requested_plan TEXT NOT NULL,
		status         TEXT NOT NULL DEFAULT 'pending',
		admin_notes    TEXT,
		reviewed_by    TEXT,
		expires_at     INTEGER,
		created_at     INTEGER NOT NULL,
		updated_at     INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_upgrade_user ON upgrade_requests(user_id, status);
	CREATE INDEX IF NOT EXISTS idx_upgrade_status ON upgrade_requests(status);

	CREATE TABLE IF NOT EXISTS project_members (
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		user_id    TEXT NOT NULL,
		role       TEXT NOT NULL DEFAULT 'viewer',
		added_at   INTEGER NOT NULL,
		PRIMARY KEY (project_id, user_id)
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute migration v3: %w", err)
	}
	return s.setSchemaVersion(3)
}
