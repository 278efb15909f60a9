package store

import (
	"context"
	"fmt"
	"time"
)

// RetentionPolicy controls how long historical rows are kept.
type RetentionPolicy struct {
	AuditLog       time.Duration
	ClosedUpgrades time.Duration
	DisabledGrants time.Duration
}

// DefaultRetention keeps audit entries for 180 days and closed requests for a year.
var DefaultRetention = RetentionPolicy{
	AuditLog:       180 * 24 * time.Hour,
	ClosedUpgrades: 365 * 24 * time.Hour,
	DisabledGrants: 90 * 24 * time.Hour,
}

// RunRetention deletes rows older than the policy allows.
func (s *Store) RunRetention(ctx context.Context, policy RetentionPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()

	if policy.AuditLog > 0 {
		if _, err := s.db.ExecContext(ctx,
			"DELETE FROM admin_audit_log WHERE created_at < ?",
			now.Add(-policy.AuditLog).UnixMilli(),
		); err != nil {
			return fmt.Errorf("failed to delete old audit entries: %w", err)
		}
	}

	if policy.ClosedUpgrades > 0 {
		if _, err := s.db.ExecContext(ctx,
			"DELETE FROM upgrade_requests WHERE status != 'pending' AND updated_at < ?",
			now.Add(-policy.ClosedUpgrades).UnixMilli(),
		); err != nil {
			return fmt.Errorf("failed to delete old upgrade requests: %w", err)
		}
	}

	if policy.DisabledGrants > 0 {
		if _, err := s.db.ExecContext(ctx,
			"DELETE FROM user_features WHERE is_enabled = 0 AND updated_at < ?",
			now.Add(-policy.DisabledGrants).UnixMilli(),
		); err != nil {
			return fmt.Errorf("failed to delete disabled grants: %w", err)
		}
	}

	return nil
}

// DBSizeBytes returns the database size in bytes
func (s *Store) DBSizeBytes() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pageCount int64
	var pageSize int64

	err := s.db.QueryRow("PRAGMA page_count").Scan(&pageCount)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}

	err = s.db.QueryRow("PRAGMA page_size").Scan(&pageSize)
	if err != nil {
		return 0, fmt.Errorf("failed to get page size: %w", err)
	}

	return pageCount * pageSize, nil
}
