package api

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/access"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/catalog"
	perrors "github.com/Ali-xra/ai-startup-mentor-sub000/internal/errors"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/export"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/project"
)

type createProjectRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	InitialIdea string `json:"initial_idea" validate:"max=5000"`
	Locale      string `json:"locale" validate:"omitempty,bcp47_language_tag"`
}

type renameProjectRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type messageRequest struct {
	Text string `json:"text" validate:"required,max=10000"`
}

type suggestionRequest struct {
	UserInput string `json:"user_input" validate:"max=10000"`
}

type refineRequest struct {
	Instruction string `json:"instruction" validate:"required,max=2000"`
}

type updateAnswerRequest struct {
	Value string `json:"value" validate:"max=50000"`
}

type jumpRequest struct {
	Stage string `json:"stage" validate:"required"`
}

type addMemberRequest struct {
	UserID string `json:"user_id" validate:"required,max=200"`
	Role   string `json:"role" validate:"omitempty,oneof=editor viewer"`
}

// CreateProject handles POST /api/v1/projects.
func (h *Handlers) CreateProject(c *fiber.Ctx) error {
	var req createProjectRequest
	if err := h.bind(c, &req); err != nil {
		return errorResponse(c, err)
	}

	subject := identity(c).Subject
	out, err := h.deps.Journey.Start(c.UserContext(), subject, project.CreateProjectInput{
		OwnerID:     subject,
		Name:        req.Name,
		InitialIdea: req.InitialIdea,
		Locale:      req.Locale,
	})
	if err != nil {
		return errorResponse(c, err)
	}
	if out.Denial != nil {
		return limitResponse(c, out.Denial)
	}

	resp := newOutcomeResponse(out.Snapshot.ID, out)
	resp.Project = &out.Snapshot.Project
	return c.Status(fiber.StatusCreated).JSON(resp)
}

type projectListResponse struct {
	Owned  []*project.Project `json:"owned"`
	Shared []*project.Project `json:"shared"`
}

// ListProjects handles GET /api/v1/projects.
func (h *Handlers) ListProjects(c *fiber.Ctx) error {
	ctx := c.UserContext()
	subject := identity(c).Subject

	owned, err := h.deps.Projects.ListOwned(ctx, subject)
	if err != nil {
		return err
	}
	shared, err := h.deps.Projects.ListShared(ctx, subject)
	if err != nil {
		return err
	}
	if owned == nil {
		owned = []*project.Project{}
	}
	if shared == nil {
		shared = []*project.Project{}
	}
	return c.JSON(projectListResponse{Owned: owned, Shared: shared})
}

type projectResponse struct {
	Project *project.Snapshot `json:"project"`
	State   outcomeResponse   `json:"state"`
}

// GetProject handles GET /api/v1/projects/:id.
func (h *Handlers) GetProject(c *fiber.Ctx) error {
	p, err := h.authorize(c, levelRead)
	if err != nil {
		return errorResponse(c, err)
	}
	out, err := h.deps.Journey.Resume(c.UserContext(), p.ID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(projectResponse{Project: out.Snapshot, State: newOutcomeResponse(p.ID, out)})
}

// RenameProject handles PATCH /api/v1/projects/:id.
func (h *Handlers) RenameProject(c *fiber.Ctx) error {
	p, err := h.authorize(c, levelEdit)
	if err != nil {
		return errorResponse(c, err)
	}
	var req renameProjectRequest
	if err := h.bind(c, &req); err != nil {
		return errorResponse(c, err)
	}
	if err := h.deps.Projects.Rename(c.UserContext(), p.ID, req.Name); err != nil {
		return errorResponse(c, err)
	}
	updated, err := h.deps.Projects.Get(c.UserContext(), p.ID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(updated)
}

// DeleteProject handles DELETE /api/v1/projects/:id.
func (h *Handlers) DeleteProject(c *fiber.Ctx) error {
	p, err := h.authorize(c, levelOwner)
	if err != nil {
		return errorResponse(c, err)
	}
	if err := h.deps.Projects.Delete(c.UserContext(), p.ID); err != nil {
		return errorResponse(c, err)
	}
	h.logger.Info().Str("project_id", p.ID).Str("subject", identity(c).Subject).Msg("project deleted")
	return c.SendStatus(fiber.StatusNoContent)
}

// SendMessage handles POST /api/v1/projects/:id/messages.
func (h *Handlers) SendMessage(c *fiber.Ctx) error {
	p, err := h.authorize(c, levelEdit)
	if err != nil {
		return errorResponse(c, err)
	}
	var req messageRequest
	if err := h.bind(c, &req); err != nil {
		return errorResponse(c, err)
	}
	out, err := h.deps.Journey.SendMessage(c.UserContext(), p.OwnerID, p.ID, req.Text)
	return h.respond(c, p, out, err)
}

// RequestSuggestion handles POST /api/v1/projects/:id/suggestions.
func (h *Handlers) RequestSuggestion(c *fiber.Ctx) error {
	p, err := h.authorize(c, levelEdit)
	if err != nil {
		return errorResponse(c, err)
	}
	var req suggestionRequest
	if err := h.bindOptional(c, &req); err != nil {
		return errorResponse(c, err)
	}
	out, err := h.deps.Journey.RequestSuggestion(c.UserContext(), p.OwnerID, p.ID, req.UserInput)
	return h.respond(c, p, out, err)
}

// AcceptSuggestion handles POST /api/v1/projects/:id/suggestions/:messageId/accept.
func (h *Handlers) AcceptSuggestion(c *fiber.Ctx) error {
	p, err := h.authorize(c, levelEdit)
	if err != nil {
		return errorResponse(c, err)
	}
	out, err := h.deps.Journey.AcceptSuggestion(c.UserContext(), p.OwnerID, p.ID, c.Params("messageId"))
	return h.respond(c, p, out, err)
}

// RefineSuggestion handles POST /api/v1/projects/:id/suggestions/:messageId/refine.
func (h *Handlers) RefineSuggestion(c *fiber.Ctx) error {
	p, err := h.authorize(c, levelEdit)
	if err != nil {
		return errorResponse(c, err)
	}
	var req refineRequest
	if err := h.bind(c, &req); err != nil {
		return errorResponse(c, err)
	}
	out, err := h.deps.Journey.RefineSuggestion(c.UserContext(), p.OwnerID, p.ID, c.Params("messageId"), req.Instruction)
	return h.respond(c, p, out, err)
}

func fieldParam(c *fiber.Ctx) (catalog.FieldKey, error) {
	field, ok := catalog.ParseFieldKey(c.Params("field"))
	if !ok {
		return "", fmt.Errorf("%w: unknown field %q", perrors.ErrInvalidInput, c.Params("field"))
	}
	return field, nil
}

// UpdateAnswer handles PUT /api/v1/projects/:id/answers/:field. An empty value clears it.
func (h *Handlers) UpdateAnswer(c *fiber.Ctx) error {
	p, err := h.authorize(c, levelEdit)
	if err != nil {
		return errorResponse(c, err)
	}
	field, err := fieldParam(c)
	if err != nil {
		return errorResponse(c, err)
	}
	var req updateAnswerRequest
	if err := h.bind(c, &req); err != nil {
		return errorResponse(c, err)
	}
	out, err := h.deps.Journey.UpdateAnswer(c.UserContext(), p.ID, field, req.Value)
	return h.respond(c, p, out, err)
}

// RefineAnswer handles POST /api/v1/projects/:id/answers/:field/refine.
func (h *Handlers) RefineAnswer(c *fiber.Ctx) error {
	p, err := h.authorize(c, levelEdit)
	if err != nil {
		return errorResponse(c, err)
	}
	field, err := fieldParam(c)
	if err != nil {
		return errorResponse(c, err)
	}
	var req refineRequest
	if err := h.bind(c, &req); err != nil {
		return errorResponse(c, err)
	}
	out, err := h.deps.Journey.RefineAnswer(c.UserContext(), p.OwnerID, p.ID, field, req.Instruction)
	return h.respond(c, p, out, err)
}

// ProceedFromSummary handles POST /api/v1/projects/:id/summary.
func (h *Handlers) ProceedFromSummary(c *fiber.Ctx) error {
	p, err := h.authorize(c, levelEdit)
	if err != nil {
		return errorResponse(c, err)
	}
	out, err := h.deps.Journey.ProceedFromSummary(c.UserContext(), p.OwnerID, p.ID)
	return h.respond(c, p, out, err)
}

// Generate handles POST /api/v1/projects/:id/generate.
func (h *Handlers) Generate(c *fiber.Ctx) error {
	p, err := h.authorize(c, levelEdit)
	if err != nil {
		return errorResponse(c, err)
	}
	out, err := h.deps.Journey.Generate(c.UserContext(), p.OwnerID, p.ID)
	return h.respond(c, p, out, err)
}

// JumpTo handles POST /api/v1/projects/:id/jump. Jumps forward are ignored, reported by
// "moved": false.
func (h *Handlers) JumpTo(c *fiber.Ctx) error {
	p, err := h.authorize(c, levelEdit)
	if err != nil {
		return errorResponse(c, err)
	}
	var req jumpRequest
	if err := h.bind(c, &req); err != nil {
		return errorResponse(c, err)
	}
	out, err := h.deps.Journey.JumpTo(c.UserContext(), p.ID, catalog.StageID(req.Stage))
	return h.respond(c, p, out, err)
}

// Restart handles POST /api/v1/projects/:id/restart.
func (h *Handlers) Restart(c *fiber.Ctx) error {
	p, err := h.authorize(c, levelOwner)
	if err != nil {
		return errorResponse(c, err)
	}
	out, err := h.deps.Journey.Restart(c.UserContext(), p.ID)
	return h.respond(c, p, out, err)
}

// ListMembers handles GET /api/v1/projects/:id/members.
func (h *Handlers) ListMembers(c *fiber.Ctx) error {
	p, err := h.authorize(c, levelRead)
	if err != nil {
		return errorResponse(c, err)
	}
	members, err := h.deps.Projects.ListMembers(c.UserContext(), p.ID)
	if err != nil {
		return err
	}
	if members == nil {
		members = []*project.Member{}
	}
	return c.JSON(fiber.Map{"owner_id": p.OwnerID, "members": members})
}

// AddMember handles POST /api/v1/projects/:id/members. The owner's team_members limit
// caps how many users a project can be shared with.
func (h *Handlers) AddMember(c *fiber.Ctx) error {
	p, err := h.authorize(c, levelOwner)
	if err != nil {
		return errorResponse(c, err)
	}
	var req addMemberRequest
	if err := h.bind(c, &req); err != nil {
		return errorResponse(c, err)
	}
	if req.UserID == p.OwnerID {
		return errorResponse(c, fmt.Errorf("%w: the owner cannot be added as a member", perrors.ErrInvalidInput))
	}

	ctx := c.UserContext()
	count, err := h.deps.Projects.CountMembers(ctx, p.ID)
	if err != nil {
		return err
	}
	denied, err := h.checkLimit(ctx, p.OwnerID, access.KindTeamMembers, count)
	if err != nil {
		return err
	}
	if denied != nil {
		return limitResponse(c, denied)
	}

	m, err := h.deps.Projects.AddMember(ctx, p.ID, req.UserID, req.Role)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(m)
}

// RemoveMember handles DELETE /api/v1/projects/:id/members/:userId. Members may remove
// themselves.
func (h *Handlers) RemoveMember(c *fiber.Ctx) error {
	userID := c.Params("userId")
	level := levelOwner
	if userID == identity(c).Subject {
		level = levelRead
	}
	p, err := h.authorize(c, level)
	if err != nil {
		return errorResponse(c, err)
	}
	if err := h.deps.Projects.RemoveMember(c.UserContext(), p.ID, userID); err != nil {
		return errorResponse(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Export handles GET /api/v1/projects/:id/export?format=markdown|json.
func (h *Handlers) Export(c *fiber.Ctx) error {
	p, err := h.authorize(c, levelRead)
	if err != nil {
		return errorResponse(c, err)
	}
	format, err := export.ParseFormat(c.Query("format", string(export.FormatMarkdown)))
	if err != nil {
		return errorResponse(c, err)
	}

	ctx := c.UserContext()
	denied, err := h.checkLimit(ctx, p.OwnerID, access.KindExport, int64(format.Tier()))
	if err != nil {
		return err
	}
	if denied != nil {
		return limitResponse(c, denied)
	}

	snap, err := h.deps.Projects.Load(ctx, p.ID)
	if err != nil {
		return errorResponse(c, err)
	}
	progress := h.deps.Journey.Engine().Progress(snap.Cursor)
	data, err := export.Render(export.Build(h.deps.Catalog, snap, progress, time.Now()), format)
	if err != nil {
		return err
	}

	ext := "md"
	if format == export.FormatJSON {
		ext = "json"
	}
	c.Set(fiber.HeaderContentType, format.ContentType())
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="project-%s.%s"`, p.ID, ext))
	return c.Send(data)
}
