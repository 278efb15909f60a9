package api

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/access"
	perrors "github.com/Ali-xra/ai-startup-mentor-sub000/internal/errors"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/journey"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/progression"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/project"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	deps     Deps
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps Deps, logger zerolog.Logger) *Handlers {
	return &Handlers{
		deps:     deps,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With().Str("component", "handlers").Logger(),
	}
}

// bind parses and validates a JSON body.
func (h *Handlers) bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", perrors.ErrInvalidInput, err)
	}
	if err := h.validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", perrors.ErrInvalidInput, err)
	}
	return nil
}

// bindOptional binds the body only when one was sent.
func (h *Handlers) bindOptional(c *fiber.Ctx, dst any) error {
	if len(c.Body()) == 0 {
		if err := h.validate.Struct(dst); err != nil {
			return fmt.Errorf("%w: %v", perrors.ErrInvalidInput, err)
		}
		return nil
	}
	return h.bind(c, dst)
}

// Project access levels, lowest first.
const (
	levelRead = iota
	levelEdit
	levelOwner
)

// authorize loads the project and checks the caller may act on it at level.
// Projects the caller cannot see at all are reported as not found.
func (h *Handlers) authorize(c *fiber.Ctx, level int) (*project.Project, error) {
	ctx := c.UserContext()
	p, err := h.deps.Projects.Get(ctx, c.Params("id"))
	if err != nil {
		return nil, err
	}

	id := identity(c)
	if id.IsAdmin() || p.OwnerID == id.Subject {
		return p, nil
	}

	role, ok, err := h.deps.Projects.MemberRole(ctx, p.ID, id.Subject)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("project %s: %w", p.ID, perrors.ErrNotFound)
	}
	have := levelRead
	if role == project.RoleEditor {
		have = levelEdit
	}
	if have < level {
		return nil, fmt.Errorf("%s access to project %s: %w", role, p.ID, perrors.ErrDenied)
	}
	return p, nil
}

// checkLimit returns the decision when kind is denied for subject.
func (h *Handlers) checkLimit(ctx context.Context, subject string, kind access.Kind, current int64) (*access.Decision, error) {
	d, err := h.deps.Gate.CheckLimit(ctx, subject, kind, current)
	if err != nil {
		return nil, err
	}
	if d.Allowed {
		return nil, nil
	}
	if h.deps.Metrics != nil {
		h.deps.Metrics.RecordDenial(string(kind))
	}
	return &d, nil
}

// outcomeResponse is the body of every journey action. A limit denial is reported in the
// embedded outcome's "limit" field with status 200.
type outcomeResponse struct {
	ProjectID string           `json:"project_id"`
	Project   *project.Project `json:"project,omitempty"`
	*journey.Outcome
	GenerationError string `json:"generation_error,omitempty"`
	SaveError       string `json:"save_error,omitempty"`
}

func newOutcomeResponse(projectID string, out *journey.Outcome) outcomeResponse {
	resp := outcomeResponse{ProjectID: projectID, Outcome: out}
	if out.GenerationErr != nil {
		resp.GenerationError = out.GenerationErr.Error()
	}
	if out.SaveErr != nil {
		resp.SaveError = out.SaveErr.Error()
	}
	return resp
}

// respond writes a journey outcome, continuing through a reached summary stage when the
// client asked for auto_continue.
func (h *Handlers) respond(c *fiber.Ctx, p *project.Project, out *journey.Outcome, err error) error {
	if err != nil {
		return errorResponse(c, err)
	}

	if c.QueryBool("auto_continue") && summaryReady(out) {
		next, err := h.deps.Journey.ProceedFromSummary(c.UserContext(), p.OwnerID, p.ID)
		if err != nil {
			h.logger.Warn().Err(err).Str("project_id", p.ID).Msg("auto continue failed")
			resp := newOutcomeResponse(p.ID, out)
			resp.GenerationError = err.Error()
			return c.JSON(resp)
		}
		next.Messages = append(out.Messages, next.Messages...)
		out = next
	}
	return c.JSON(newOutcomeResponse(p.ID, out))
}

func summaryReady(out *journey.Outcome) bool {
	return out.Denial == nil && out.GenerationErr == nil && out.SaveErr == nil &&
		out.Pending == progression.ActionSummarize
}
