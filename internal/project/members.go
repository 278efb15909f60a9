package project

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	perrors "github.com/Ali-xra/ai-startup-mentor-sub000/internal/errors"
)

// AddMember shares a project with userID.
func (s *Store) AddMember(ctx context.Context, projectID, userID, role string) (*Member, error) {
	if role == "" {
		role = RoleViewer
	}
	m := &Member{ProjectID: projectID, UserID: userID, Role: role, AddedAt: time.Now().UnixMilli()}

	_, err := s.ds.DB().ExecContext(ctx,
		`INSERT INTO project_members (project_id, user_id, role, added_at) VALUES (?, ?, ?, ?)`,
		m.ProjectID, m.UserID, m.Role, m.AddedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") || strings.Contains(err.Error(), "PRIMARY KEY") {
			return nil, fmt.Errorf("%w: %s is already a member", perrors.ErrInvalidInput, userID)
		}
		if strings.Contains(err.Error(), "FOREIGN KEY") {
			return nil, fmt.Errorf("project %s: %w", projectID, perrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	return m, nil
}

// RemoveMember stops sharing a project with userID.
func (s *Store) RemoveMember(ctx context.Context, projectID, userID string) error {
	res, err := s.ds.DB().ExecContext(ctx,
		`DELETE FROM project_members WHERE project_id = ? AND user_id = ?`, projectID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("member %s: %w", userID, perrors.ErrNotFound)
	}
	return nil
}

// ListMembers returns the members of a project, oldest first.
func (s *Store) ListMembers(ctx context.Context, projectID string) ([]*Member, error) {
	rows, err := s.ds.DB().QueryContext(ctx,
		`SELECT project_id, user_id, role, added_at FROM project_members WHERE project_id = ? ORDER BY added_at, user_id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		m := &Member{}
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.Role, &m.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// CountMembers returns how many users a project is shared with.
func (s *Store) CountMembers(ctx context.Context, projectID string) (int64, error) {
	var n int64
	if err := s.ds.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM project_members WHERE project_id = ?`, projectID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return n, nil
}

// MemberRole returns userID's role on a project; the owner is reported as RoleOwner.
// ok is false when the user has no access.
func (s *Store) MemberRole(ctx context.Context, projectID, userID string) (string, bool, error) {
	p, err := s.Get(ctx, projectID)
	if err != nil {
		return "", false, err
	}
	if p.OwnerID == userID {
		return RoleOwner, true, nil
	}

	var role string
	err = s.ds.DB().QueryRowContext(ctx,
		`SELECT role FROM project_members WHERE project_id = ? AND user_id = ?`, projectID, userID).Scan(&role)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read member role: %w", err)
	}
	return role, true, nil
}
