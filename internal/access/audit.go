package access

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/store"
)

// Audit actions recorded for grant changes.
const (
	ActionGrantFeature      = "grant_feature"
	ActionRevokeFeature     = "revoke_feature"
	ActionRevokeAllFeatures = "revoke_all_features"
	ActionGrantPlan         = "grant_plan"
)

// AuditEntry is one administrative action.
type AuditEntry struct {
	ID        int64          `json:"id"`
	Actor     string         `json:"actor"`
	Action    string         `json:"action"`
	Subject   string         `json:"subject,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// AuditLog records administrative actions in admin_audit_log.
type AuditLog struct {
	ds     *store.Store
	logger zerolog.Logger
}

// NewAuditLog creates a new audit log.
func NewAuditLog(ds *store.Store, logger zerolog.Logger) *AuditLog {
	return &AuditLog{
		ds:     ds,
		logger: logger.With().Str("component", "audit").Logger(),
	}
}

// Record adds a new audit entry.
func (a *AuditLog) Record(ctx context.Context, entry AuditEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	var details sql.NullString
	if len(entry.Details) > 0 {
		raw, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("failed to encode audit details: %w", err)
		}
		details = sql.NullString{String: string(raw), Valid: true}
	}

	_, err := a.ds.DB().ExecContext(ctx,
		`INSERT INTO admin_audit_log (admin_id, action, target_user_id, details, created_at) VALUES (?, ?, ?, ?, ?)`,
		entry.Actor, entry.Action, sql.NullString{String: entry.Subject, Valid: entry.Subject != ""},
		details, entry.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}

	a.logger.Info().
		Str("actor", entry.Actor).
		Str("action", entry.Action).
		Str("subject", entry.Subject).
		Msg("audit event")
	return nil
}

// List returns the newest entries first, optionally filtered by subject.
func (a *AuditLog) List(ctx context.Context, subject string, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, admin_id, action, target_user_id, details, created_at FROM admin_audit_log`
	args := []any{}
	if subject != "" {
		query += ` WHERE target_user_id = ?`
		args = append(args, subject)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := a.ds.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var (
			e         AuditEntry
			target    sql.NullString
			details   sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &target, &details, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Subject = target.String
		e.CreatedAt = time.UnixMilli(createdAt)
		if details.Valid {
			if err := json.Unmarshal([]byte(details.String), &e.Details); err != nil {
				a.logger.Warn().Err(err).Int64("id", e.ID).Msg("unreadable audit details")
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
