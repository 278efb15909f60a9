package project

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AIUsage returns how many generations subject has consumed.
func (s *Store) AIUsage(ctx context.Context, subject string) (int64, error) {
	var n int64
	err := s.ds.DB().QueryRowContext(ctx, `SELECT ai_messages FROM ai_usage WHERE subject_id = ?`, subject).Scan(&n)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read AI usage: %w", err)
	}
	return n, nil
}

// IncrementAIUsage records one generation and returns the new total.
func (s *Store) IncrementAIUsage(ctx context.Context, subject string) (int64, error) {
	now := time.Now().UnixMilli()
	_, err := s.ds.DB().ExecContext(ctx, `
		INSERT INTO ai_usage (subject_id, ai_messages, updated_at) VALUES (?, 1, ?)
		ON CONFLICT(subject_id) DO UPDATE SET ai_messages = ai_messages + 1, updated_at = excluded.updated_at`,
		subject, now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record AI usage: %w", err)
	}
	return s.AIUsage(ctx, subject)
}

// ResetAIUsage sets subject's usage back to zero.
func (s *Store) ResetAIUsage(ctx context.Context, subject string) error {
	if _, err := s.ds.DB().ExecContext(ctx, `DELETE FROM ai_usage WHERE subject_id = ?`, subject); err != nil {
		return fmt.Errorf("failed to reset AI usage: %w", err)
	}
	return nil
}
