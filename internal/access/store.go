package access

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/store"
)

// GrantUpdate sets one feature's state for a subject.
type GrantUpdate struct {
	Feature   Feature
	Enabled   bool
	ExpiresAt *time.Time
	Actor     string
	Notes     string
}

// GrantStore persists feature grants.
type GrantStore interface {
	// ListGrants returns every grant row for subject, enabled or not.
	ListGrants(ctx context.Context, subject string) ([]Grant, error)
	// SetGrants applies updates atomically, inserting missing rows.
	SetGrants(ctx context.Context, subject string, updates []GrantUpdate) error
	// ReplaceGrants atomically disables every enabled grant not in features, then
	// enables every feature in features with the given expiry.
	ReplaceGrants(ctx context.Context, subject string, features []Feature, expiresAt *time.Time, actor string) error
}

// SQLiteGrantStore stores grants in the user_features table.
type SQLiteGrantStore struct {
	ds     *store.Store
	logger zerolog.Logger
}

// NewSQLiteGrantStore creates a grant store over ds.
func NewSQLiteGrantStore(ds *store.Store, logger zerolog.Logger) *SQLiteGrantStore {
	return &SQLiteGrantStore{
		ds:     ds,
		logger: logger.With().Str("component", "access.store").Logger(),
	}
}

// ListGrants implements GrantStore.
func (s *SQLiteGrantStore) ListGrants(ctx context.Context, subject string) ([]Grant, error) {
	rows, err := s.ds.DB().QueryContext(ctx, `
		SELECT feature_key, is_enabled, expires_at, granted_by, notes, updated_at
		FROM user_features WHERE user_id = ? ORDER BY feature_key`, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}
	defer rows.Close()

	var grants []Grant
	for rows.Next() {
		var (
			g         Grant
			feature   string
			enabled   int
			expiresAt sql.NullInt64
			notes     sql.NullString
			updatedAt int64
		)
		if err := rows.Scan(&feature, &enabled, &expiresAt, &g.GrantedBy, &notes, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan grant: %w", err)
		}
		g.Subject = subject
		g.Feature = Feature(feature)
		g.Enabled = enabled == 1
		g.Notes = notes.String
		g.UpdatedAt = time.UnixMilli(updatedAt)
		if expiresAt.Valid {
			t := time.UnixMilli(expiresAt.Int64)
			g.ExpiresAt = &t
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

// SetGrants implements GrantStore.
func (s *SQLiteGrantStore) SetGrants(ctx context.Context, subject string, updates []GrantUpdate) error {
	return s.ds.WithTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().UnixMilli()
		for _, u := range updates {
			if err := upsertGrant(ctx, tx, subject, u, now); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceGrants implements GrantStore.
func (s *SQLiteGrantStore) ReplaceGrants(ctx context.Context, subject string, features []Feature, expiresAt *time.Time, actor string) error {
	keep := make(map[Feature]bool, len(features))
	for _, f := range features {
		keep[f] = true
	}

	err := s.ds.WithTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().UnixMilli()

		rows, err := tx.QueryContext(ctx,
			`SELECT feature_key FROM user_features WHERE user_id = ? AND is_enabled = 1`, subject)
		if err != nil {
			return fmt.Errorf("failed to read enabled grants: %w", err)
		}
		var stale []string
		for rows.Next() {
			var f string
			if err := rows.Scan(&f); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan grant: %w", err)
			}
			if !keep[Feature(f)] {
				stale = append(stale, f)
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to read enabled grants: %w", err)
		}

		// Disable before enabling so the subject never holds both plans at once.
		for _, f := range stale {
			if _, err := tx.ExecContext(ctx,
				`UPDATE user_features SET is_enabled = 0, granted_by = ?, updated_at = ? WHERE user_id = ? AND feature_key = ?`,
				actor, now, subject, f,
			); err != nil {
				return fmt.Errorf("failed to disable grant %s: %w", f, err)
			}
		}

		for _, f := range features {
			u := GrantUpdate{Feature: f, Enabled: true, ExpiresAt: expiresAt, Actor: actor}
			if err := upsertGrant(ctx, tx, subject, u, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("subject", subject).
		Int("features", len(features)).
		Str("actor", actor).
		Msg("grants replaced")
	return nil
}

func upsertGrant(ctx context.Context, tx *sql.Tx, subject string, u GrantUpdate, now int64) error {
	var expires sql.NullInt64
	if u.ExpiresAt != nil {
		expires = sql.NullInt64{Int64: u.ExpiresAt.UnixMilli(), Valid: true}
	}
	enabled := 0
	if u.Enabled {
		enabled = 1
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO user_features (id, user_id, feature_key, is_enabled, expires_at, granted_by, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, feature_key) DO UPDATE SET
			is_enabled = excluded.is_enabled,
			expires_at = excluded.expires_at,
			granted_by = excluded.granted_by,
			notes = COALESCE(excluded.notes, user_features.notes),
			updated_at = excluded.updated_at`,
		uuid.New().String(), subject, string(u.Feature), enabled, expires, u.Actor,
		sql.NullString{String: u.Notes, Valid: u.Notes != ""}, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to set grant %s: %w", u.Feature, err)
	}
	return nil
}
