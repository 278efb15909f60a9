package api

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/access"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/catalog"
	perrors "github.com/Ali-xra/ai-startup-mentor-sub000/internal/errors"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/upgrade"
)

type stageView struct {
	ID            catalog.StageID  `json:"id"`
	Title         string           `json:"title"`
	Question      string           `json:"question,omitempty"`
	Guidance      string           `json:"guidance,omitempty"`
	DataKey       catalog.FieldKey `json:"data_key,omitempty"`
	InputRequired bool             `json:"input_required"`
	Summary       bool             `json:"summary,omitempty"`
	AutoGenerated bool             `json:"auto_generated,omitempty"`
}

type subsectionView struct {
	ID     string      `json:"id"`
	Title  string      `json:"title"`
	Stages []stageView `json:"stages"`
}

type phaseView struct {
	Number      int              `json:"number"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Subsections []subsectionView `json:"subsections"`
}

// Catalog handles GET /api/v1/catalog?locale=. Text is localized, falling back to English.
func (h *Handlers) Catalog(c *fiber.Ctx) error {
	locale := c.Query("locale", catalog.LocaleEnglish)

	phases := make([]phaseView, 0, len(h.deps.Catalog.Phases()))
	for _, p := range h.deps.Catalog.Phases() {
		pv := phaseView{
			Number:      p.Number,
			Title:       p.Title.In(locale),
			Description: p.Description.In(locale),
		}
		for _, sub := range p.Subsections {
			sv := subsectionView{ID: sub.ID, Title: sub.Title.In(locale)}
			for _, st := range sub.Stages {
				sv.Stages = append(sv.Stages, stageView{
					ID:            st.ID,
					Title:         st.Title.In(locale),
					Question:      st.Question.In(locale),
					Guidance:      st.Guidance.In(locale),
					DataKey:       st.DataKey,
					InputRequired: st.InputRequired,
					Summary:       st.Summary,
					AutoGenerated: st.AutoGenerated,
				})
			}
			pv.Subsections = append(pv.Subsections, sv)
		}
		phases = append(phases, pv)
	}
	return c.JSON(fiber.Map{"stages": h.deps.Catalog.Len(), "phases": phases})
}

type usageView struct {
	Projects     int64 `json:"projects"`
	AIMessages   int64 `json:"ai_messages"`
	StorageBytes int64 `json:"storage_bytes"`
}

type meResponse struct {
	*access.Status
	Role  string    `json:"role"`
	Usage usageView `json:"usage"`
}

// Me handles GET /api/v1/me: the caller's plan, limits and current usage.
func (h *Handlers) Me(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id := identity(c)

	status, err := h.deps.Gate.Status(ctx, id.Subject)
	if err != nil {
		return err
	}
	var usage usageView
	if usage.Projects, err = h.deps.Projects.CountOwned(ctx, id.Subject); err != nil {
		return err
	}
	if usage.AIMessages, err = h.deps.Projects.AIUsage(ctx, id.Subject); err != nil {
		return err
	}
	if usage.StorageBytes, err = h.deps.Projects.StorageBytes(ctx, id.Subject); err != nil {
		return err
	}
	return c.JSON(meResponse{Status: status, Role: id.Role, Usage: usage})
}

type upgradeRequestBody struct {
	Plan string `json:"plan" validate:"required,oneof=pro enterprise"`
}

// RequestUpgrade handles POST /api/v1/me/upgrades.
func (h *Handlers) RequestUpgrade(c *fiber.Ctx) error {
	if h.deps.Upgrades == nil {
		return errorResponse(c, fmt.Errorf("upgrade requests: %w", perrors.ErrUnavailable))
	}
	var req upgradeRequestBody
	if err := h.bind(c, &req); err != nil {
		return errorResponse(c, err)
	}
	r, err := h.deps.Upgrades.Request(c.UserContext(), identity(c).Subject, access.Plan(req.Plan))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(r)
}

// MyUpgrades handles GET /api/v1/me/upgrades.
func (h *Handlers) MyUpgrades(c *fiber.Ctx) error {
	if h.deps.Upgrades == nil {
		return c.JSON(fiber.Map{"requests": []*upgrade.Request{}})
	}
	reqs, err := h.deps.Upgrades.List(c.UserContext(), "", identity(c).Subject)
	if err != nil {
		return err
	}
	if reqs == nil {
		reqs = []*upgrade.Request{}
	}
	return c.JSON(fiber.Map{"requests": reqs})
}
