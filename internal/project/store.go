package project

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/catalog"
	perrors "github.com/Ali-xra/ai-startup-mentor-sub000/internal/errors"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/store"
)

// Store handles project-related SQLite operations.
type Store struct {
	ds     *store.Store
	logger zerolog.Logger
}

// NewStore creates a new project store.
func NewStore(ds *store.Store, logger zerolog.Logger) *Store {
	return &Store{
		ds:     ds,
		logger: logger.With().Str("component", "project.store").Logger(),
	}
}

// Create inserts a project with its cursor at first.
func (s *Store) Create(ctx context.Context, input CreateProjectInput, first catalog.StageID) (*Snapshot, error) {
	locale := input.Locale
	if locale == "" {
		locale = catalog.LocaleEnglish
	}

	now := time.Now().UnixMilli()
	snap := &Snapshot{
		Project: Project{
			ID:          uuid.New().String(),
			OwnerID:     input.OwnerID,
			Name:        strings.TrimSpace(input.Name),
			InitialIdea: strings.TrimSpace(input.InitialIdea),
			Locale:      locale,
			Cursor:      first,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		Answers: catalog.Answers{},
	}

	_, err := s.ds.DB().ExecContext(ctx, `
		INSERT INTO projects (id, owner_id, name, initial_idea, locale, cursor, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.OwnerID, snap.Name, snap.InitialIdea, snap.Locale, string(snap.Cursor), now, now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, fmt.Errorf("project %q already exists", snap.ID)
		}
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.logger.Info().Str("project_id", snap.ID).Str("owner", snap.OwnerID).Msg("project created")
	return snap, nil
}

const projectColumns = `id, owner_id, name, initial_idea, locale, cursor, created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (*Project, error) {
	p := &Project{}
	var cursor string
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.InitialIdea, &p.Locale, &cursor, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Cursor = catalog.StageID(cursor)
	return p, nil
}

// Get returns the project row without answers or transcript.
func (s *Store) Get(ctx context.Context, id string) (*Project, error) {
	p, err := scanProject(s.ds.DB().QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("project %s: %w", id, perrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

// Load returns the full snapshot of a project.
func (s *Store) Load(ctx context.Context, id string) (*Snapshot, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{Project: *p, Answers: catalog.Answers{}}

	rows, err := s.ds.DB().QueryContext(ctx, `SELECT field_key, value FROM project_answers WHERE project_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		k, ok := catalog.ParseFieldKey(key)
		if !ok {
			s.logger.Warn().Str("project_id", id).Str("field", key).Msg("skipping unknown answer field")
			continue
		}
		snap.Answers[k] = value
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}

	rows, err = s.ds.DB().QueryContext(ctx, `
		SELECT id, sender, text, stage, is_suggestion, sources, created_at
		FROM project_messages WHERE project_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load transcript: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			m          Message
			sender     string
			stage      string
			suggestion int
			sources    sql.NullString
		)
		if err := rows.Scan(&m.ID, &sender, &m.Text, &stage, &suggestion, &sources, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Sender = Sender(sender)
		m.Stage = catalog.StageID(stage)
		m.Suggestion = suggestion == 1
		if sources.Valid && sources.String != "" {
			if err := json.Unmarshal([]byte(sources.String), &m.Sources); err != nil {
				s.logger.Warn().Err(err).Str("message_id", m.ID).Msg("unreadable message sources")
			}
		}
		snap.Transcript = append(snap.Transcript, m)
	}
	return snap, rows.Err()
}

// Save writes the cursor, answers and transcript of snap in one transaction.
func (s *Store) Save(ctx context.Context, snap *Snapshot) error {
	now := time.Now().UnixMilli()

	err := s.ds.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE projects SET name = ?, initial_idea = ?, locale = ?, cursor = ?, updated_at = ?
			WHERE id = ?`,
			snap.Name, snap.InitialIdea, snap.Locale, string(snap.Cursor), now, snap.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update project: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("project %s: %w", snap.ID, perrors.ErrNotFound)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM project_answers WHERE project_id = ?`, snap.ID); err != nil {
			return fmt.Errorf("failed to clear answers: %w", err)
		}
		for k, v := range snap.Answers {
			if v == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO project_answers (project_id, field_key, value, updated_at) VALUES (?, ?, ?, ?)`,
				snap.ID, string(k), v, now,
			); err != nil {
				return fmt.Errorf("failed to save answer %s: %w", k, err)
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM project_messages WHERE project_id = ?`, snap.ID); err != nil {
			return fmt.Errorf("failed to clear transcript: %w", err)
		}
		for i, m := range snap.Transcript {
			var sources sql.NullString
			if len(m.Sources) > 0 {
				raw, err := json.Marshal(m.Sources)
				if err != nil {
					return fmt.Errorf("failed to encode sources: %w", err)
				}
				sources = sql.NullString{String: string(raw), Valid: true}
			}
			suggestion := 0
			if m.Suggestion {
				suggestion = 1
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO project_messages (id, project_id, seq, sender, text, stage, is_suggestion, sources, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				m.ID, snap.ID, i, string(m.Sender), m.Text, string(m.Stage), suggestion, sources, m.CreatedAt,
			); err != nil {
				return fmt.Errorf("failed to save message: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	snap.UpdatedAt = now
	return nil
}

// ListOwned returns the projects owned by ownerID, newest first.
func (s *Store) ListOwned(ctx context.Context, ownerID string) ([]*Project, error) {
	return s.list(ctx, `SELECT `+projectColumns+` FROM projects WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
}

// ListShared returns projects shared with userID, newest first.
func (s *Store) ListShared(ctx context.Context, userID string) ([]*Project, error) {
	return s.list(ctx, `
		SELECT p.id, p.owner_id, p.name, p.initial_idea, p.locale, p.cursor, p.created_at, p.updated_at
		FROM projects p JOIN project_members m ON m.project_id = p.id
		WHERE m.user_id = ? ORDER BY p.created_at DESC`, userID)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]*Project, error) {
	rows, err := s.ds.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// CountOwned returns how many projects ownerID owns.
func (s *Store) CountOwned(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	if err := s.ds.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM projects WHERE owner_id = ?`, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return n, nil
}

// Rename changes a project's display name.
func (s *Store) Rename(ctx context.Context, id, name string) error {
	res, err := s.ds.DB().ExecContext(ctx,
		`UPDATE projects SET name = ?, updated_at = ? WHERE id = ?`,
		strings.TrimSpace(name), time.Now().UnixMilli(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to rename project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("project %s: %w", id, perrors.ErrNotFound)
	}
	return nil
}

// Delete removes a project with its answers, transcript and members.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.ds.DB().ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("project %s: %w", id, perrors.ErrNotFound)
	}
	s.logger.Info().Str("project_id", id).Msg("project deleted")
	return nil
}

// StorageBytes returns the bytes of answer and transcript text across ownerID's projects.
func (s *Store) StorageBytes(ctx context.Context, ownerID string) (int64, error) {
	var answers, messages sql.NullInt64
	err := s.ds.DB().QueryRowContext(ctx, `
		SELECT
			(SELECT SUM(LENGTH(CAST(a.value AS BLOB))) FROM project_answers a JOIN projects p ON p.id = a.project_id WHERE p.owner_id = ?),
			(SELECT SUM(LENGTH(CAST(m.text AS BLOB))) FROM project_messages m JOIN projects p ON p.id = m.project_id WHERE p.owner_id = ?)`,
		ownerID, ownerID,
	).Scan(&answers, &messages)
	if err != nil {
		return 0, fmt.Errorf("failed to compute storage: %w", err)
	}
	return answers.Int64 + messages.Int64, nil
}
