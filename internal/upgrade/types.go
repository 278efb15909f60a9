// Package upgrade handles plan upgrade requests: founders ask for a paid plan and an
// admin approves it for a number of months, after which the grant lapses back to free.
package upgrade

import (
	"time"

	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/access"
)

// Status is the lifecycle state of a request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// ParseStatus validates a status filter.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusPending, StatusApproved, StatusRejected, StatusExpired:
		return st, true
	}
	return "", false
}

// Request is a subject's request for a paid plan.
type Request struct {
	ID            string      `json:"id"`
	UserID        string      `json:"user_id"`
	RequestedPlan access.Plan `json:"requested_plan"`
	Status        Status      `json:"status"`
	AdminNotes    string      `json:"admin_notes,omitempty"`
	ReviewedBy    string      `json:"reviewed_by,omitempty"`
	ExpiresAt     *time.Time  `json:"expires_at,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Requestable reports whether plan can be asked for.
func Requestable(plan access.Plan) bool {
	return plan == access.PlanPro || plan == access.PlanEnterprise
}
