package api

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/access"
	perrors "github.com/Ali-xra/ai-startup-mentor-sub000/internal/errors"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/upgrade"
)

type grantPlanRequest struct {
	Plan      string     `json:"plan" validate:"required"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type setFeatureRequest struct {
	Feature   string     `json:"feature" validate:"required"`
	Enabled   *bool      `json:"enabled" validate:"required"`
	Notes     string     `json:"notes" validate:"max=1000"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type reviewRequest struct {
	Months int    `json:"months" validate:"gte=0,lte=60"`
	Notes  string `json:"notes" validate:"max=1000"`
}

func adminActor(c *fiber.Ctx) string {
	return "admin:" + identity(c).Subject
}

// SubjectStatus handles GET /api/v1/admin/subjects/:subject.
func (h *Handlers) SubjectStatus(c *fiber.Ctx) error {
	status, err := h.deps.Gate.Status(c.UserContext(), c.Params("subject"))
	if err != nil {
		return err
	}
	return c.JSON(status)
}

// GrantPlan handles POST /api/v1/admin/subjects/:subject/plan.
func (h *Handlers) GrantPlan(c *fiber.Ctx) error {
	var req grantPlanRequest
	if err := h.bind(c, &req); err != nil {
		return errorResponse(c, err)
	}
	plan, err := access.ParsePlan(req.Plan)
	if err != nil {
		return errorResponse(c, fmt.Errorf("%w: %v", perrors.ErrInvalidInput, err))
	}

	ctx := c.UserContext()
	subject := c.Params("subject")
	if err := h.deps.Gate.GrantPlan(ctx, subject, plan, adminActor(c), req.ExpiresAt); err != nil {
		return errorResponse(c, err)
	}
	status, err := h.deps.Gate.Status(ctx, subject)
	if err != nil {
		return err
	}
	return c.JSON(status)
}

// SetFeature handles POST /api/v1/admin/subjects/:subject/features.
func (h *Handlers) SetFeature(c *fiber.Ctx) error {
	var req setFeatureRequest
	if err := h.bind(c, &req); err != nil {
		return errorResponse(c, err)
	}
	feature, err := access.ParseFeature(req.Feature)
	if err != nil {
		return errorResponse(c, fmt.Errorf("%w: %v", perrors.ErrInvalidInput, err))
	}

	ctx := c.UserContext()
	subject := c.Params("subject")
	if err := h.deps.Gate.SetFeature(ctx, subject, feature, *req.Enabled, adminActor(c), req.Notes, req.ExpiresAt); err != nil {
		return errorResponse(c, err)
	}
	status, err := h.deps.Gate.Status(ctx, subject)
	if err != nil {
		return err
	}
	return c.JSON(status)
}

// RevokeAll handles DELETE /api/v1/admin/subjects/:subject/features.
func (h *Handlers) RevokeAll(c *fiber.Ctx) error {
	if err := h.deps.Gate.RevokeAll(c.UserContext(), c.Params("subject"), adminActor(c)); err != nil {
		return errorResponse(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListAudit handles GET /api/v1/admin/audit?subject=&limit=.
func (h *Handlers) ListAudit(c *fiber.Ctx) error {
	if h.deps.Audit == nil {
		return c.JSON(fiber.Map{"entries": []access.AuditEntry{}})
	}
	entries, err := h.deps.Audit.List(c.UserContext(), c.Query("subject"), c.QueryInt("limit", 100))
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []access.AuditEntry{}
	}
	return c.JSON(fiber.Map{"entries": entries})
}

func (h *Handlers) upgrades() (*upgrade.Service, error) {
	if h.deps.Upgrades == nil {
		return nil, fmt.Errorf("upgrade requests: %w", perrors.ErrUnavailable)
	}
	return h.deps.Upgrades, nil
}

// ListUpgrades handles GET /api/v1/admin/upgrades?status=&subject=.
func (h *Handlers) ListUpgrades(c *fiber.Ctx) error {
	svc, err := h.upgrades()
	if err != nil {
		return errorResponse(c, err)
	}
	var status upgrade.Status
	if s := c.Query("status"); s != "" {
		var ok bool
		if status, ok = upgrade.ParseStatus(s); !ok {
			return errorResponse(c, fmt.Errorf("%w: unknown status %q", perrors.ErrInvalidInput, s))
		}
	}
	reqs, err := svc.List(c.UserContext(), status, c.Query("subject"))
	if err != nil {
		return err
	}
	if reqs == nil {
		reqs = []*upgrade.Request{}
	}
	return c.JSON(fiber.Map{"requests": reqs})
}

// ApproveUpgrade handles POST /api/v1/admin/upgrades/:id/approve. A zero months uses the
// configured default.
func (h *Handlers) ApproveUpgrade(c *fiber.Ctx) error {
	svc, err := h.upgrades()
	if err != nil {
		return errorResponse(c, err)
	}
	var req reviewRequest
	if err := h.bindOptional(c, &req); err != nil {
		return errorResponse(c, err)
	}
	r, err := svc.Approve(c.UserContext(), c.Params("id"), identity(c).Subject, req.Months, req.Notes)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(r)
}

// RejectUpgrade handles POST /api/v1/admin/upgrades/:id/reject.
func (h *Handlers) RejectUpgrade(c *fiber.Ctx) error {
	svc, err := h.upgrades()
	if err != nil {
		return errorResponse(c, err)
	}
	var req reviewRequest
	if err := h.bindOptional(c, &req); err != nil {
		return errorResponse(c, err)
	}
	r, err := svc.Reject(c.UserContext(), c.Params("id"), identity(c).Subject, req.Notes)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(r)
}

// ExtendUpgrade handles POST /api/v1/admin/upgrades/:id/extend.
func (h *Handlers) ExtendUpgrade(c *fiber.Ctx) error {
	svc, err := h.upgrades()
	if err != nil {
		return errorResponse(c, err)
	}
	var req reviewRequest
	if err := h.bindOptional(c, &req); err != nil {
		return errorResponse(c, err)
	}
	r, err := svc.Extend(c.UserContext(), c.Params("id"), identity(c).Subject, req.Months)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(r)
}
