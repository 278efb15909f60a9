package upgrade

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/access"
	perrors "github.com/Ali-xra/ai-startup-mentor-sub000/internal/errors"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/store"
)

// Store persists upgrade requests.
type Store struct {
	ds     *store.Store
	logger zerolog.Logger
}

// NewStore creates an upgrade request store.
func NewStore(ds *store.Store, logger zerolog.Logger) *Store {
	return &Store{
		ds:     ds,
		logger: logger.With().Str("component", "upgrade.store").Logger(),
	}
}

const requestColumns = `id, user_id, requested_plan, status, admin_notes, reviewed_by, expires_at, created_at, updated_at`

// Create inserts a pending request. A subject may have only one pending request.
func (s *Store) Create(ctx context.Context, userID string, plan access.Plan, at time.Time) (*Request, error) {
	r := &Request{
		ID:            uuid.NewString(),
		UserID:        userID,
		RequestedPlan: plan,
		Status:        StatusPending,
		CreatedAt:     at,
		UpdatedAt:     at,
	}

	err := s.ds.WithTx(ctx, func(tx *sql.Tx) error {
		var pending int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM upgrade_requests WHERE user_id = ? AND status = ?`,
			userID, string(StatusPending),
		).Scan(&pending); err != nil {
			return fmt.Errorf("failed to check pending requests: %w", err)
		}
		if pending > 0 {
			return fmt.Errorf("subject %s already has a pending request: %w", userID, perrors.ErrInvalidInput)
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO upgrade_requests (id, user_id, requested_plan, status, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			r.ID, r.UserID, string(r.RequestedPlan), string(r.Status), at.UnixMilli(), at.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert upgrade request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Get returns a request by ID.
func (s *Store) Get(ctx context.Context, id string) (*Request, error) {
	row := s.ds.DB().QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM upgrade_requests WHERE id = ?`, id)
	r, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("upgrade request %s: %w", id, perrors.ErrNotFound)
	}
	return r, err
}

// List returns requests, newest first. An empty status lists all; an empty userID lists
// every subject.
func (s *Store) List(ctx context.Context, status Status, userID string) ([]*Request, error) {
	var (
		where []string
		args  []any
	)
	if status != "" {
		where = append(where, "status = ?")
		args = append(args, string(status))
	}
	if userID != "" {
		where = append(where, "user_id = ?")
		args = append(args, userID)
	}
	query := `SELECT ` + requestColumns + ` FROM upgrade_requests`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	return s.query(ctx, query, args...)
}

// Expired returns approved requests whose expiry is before now.
func (s *Store) Expired(ctx context.Context, now time.Time) ([]*Request, error) {
	return s.query(ctx,
		`SELECT `+requestColumns+` FROM upgrade_requests
		 WHERE status = ? AND expires_at IS NOT NULL AND expires_at < ?
		 ORDER BY expires_at`,
		string(StatusApproved), now.UnixMilli())
}

// CountPending returns the number of pending requests.
func (s *Store) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := s.ds.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM upgrade_requests WHERE status = ?`, string(StatusPending)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending requests: %w", err)
	}
	return n, nil
}

// Update writes the review fields of r.
func (s *Store) Update(ctx context.Context, r *Request) error {
	var expires sql.NullInt64
	if r.ExpiresAt != nil {
		expires = sql.NullInt64{Int64: r.ExpiresAt.UnixMilli(), Valid: true}
	}
	res, err := s.ds.DB().ExecContext(ctx,
		`UPDATE upgrade_requests
		 SET status = ?, admin_notes = ?, reviewed_by = ?, expires_at = ?, updated_at = ?
		 WHERE id = ?`,
		string(r.Status), nullString(r.AdminNotes), nullString(r.ReviewedBy), expires, r.UpdatedAt.UnixMilli(), r.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update upgrade request: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("upgrade request %s: %w", r.ID, perrors.ErrNotFound)
	}
	return nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]*Request, error) {
	rows, err := s.ds.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query upgrade requests: %w", err)
	}
	defer rows.Close()

	var out []*Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRequest(row interface{ Scan(...any) error }) (*Request, error) {
	var (
		r                 Request
		plan, status      string
		notes, reviewedBy sql.NullString
		expires           sql.NullInt64
		created, updated  int64
	)
	if err := row.Scan(&r.ID, &r.UserID, &plan, &status, &notes, &reviewedBy, &expires, &created, &updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan upgrade request: %w", err)
	}
	r.RequestedPlan = access.Plan(plan)
	r.Status = Status(status)
	r.AdminNotes = notes.String
	r.ReviewedBy = reviewedBy.String
	if expires.Valid {
		t := time.UnixMilli(expires.Int64)
		r.ExpiresAt = &t
	}
	r.CreatedAt = time.UnixMilli(created)
	r.UpdatedAt = time.UnixMilli(updated)
	return &r, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
