// Package journey sequences a founder's conversation through the workflow: it checks the
// access gate, moves the cursor, builds prompts, calls the generator and keeps the transcript.
//
// Calls for one project are expected to be sequential; there is no per-project locking.
package journey

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/access"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/catalog"
	perrors "github.com/Ali-xra/ai-startup-mentor-sub000/internal/errors"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/llm"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/metrics"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/progression"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/project"
)

// ProjectStore is the persistence the orchestrator needs.
type ProjectStore interface {
	Create(ctx context.Context, input project.CreateProjectInput, first catalog.StageID) (*project.Snapshot, error)
	Load(ctx context.Context, id string) (*project.Snapshot, error)
	Save(ctx context.Context, snap *project.Snapshot) error
	CountOwned(ctx context.Context, ownerID string) (int64, error)
	AIUsage(ctx context.Context, subject string) (int64, error)
	IncrementAIUsage(ctx context.Context, subject string) (int64, error)
}

// LimitChecker evaluates a subject's usage against its limits.
type LimitChecker interface {
	CheckLimit(ctx context.Context, subject string, kind access.Kind, current int64) (access.Decision, error)
}

// Config tunes the orchestrator.
type Config struct {
	GenerationTimeout time.Duration
	DefaultLocale     string
}

// Orchestrator runs journey operations.
type Orchestrator struct {
	cat      *catalog.Catalog
	engine   *progression.Engine
	projects ProjectStore
	gate     LimitChecker
	gen      llm.Generator
	metrics  *metrics.Metrics
	cfg      Config
	logger   zerolog.Logger

	now   func() time.Time
	newID func() string
}

// New creates an orchestrator. gen may be nil when no provider is configured; generation
// calls then fail with ErrUnavailable.
func New(cat *catalog.Catalog, projects ProjectStore, gate LimitChecker, gen llm.Generator, m *metrics.Metrics, cfg Config, logger zerolog.Logger) *Orchestrator {
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 90 * time.Second
	}
	if cfg.DefaultLocale == "" {
		cfg.DefaultLocale = catalog.LocaleEnglish
	}
	return &Orchestrator{
		cat:      cat,
		engine:   progression.New(cat, projects, logger),
		projects: projects,
		gate:     gate,
		gen:      gen,
		metrics:  m,
		cfg:      cfg,
		logger:   logger.With().Str("component", "journey").Logger(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Engine returns the progression engine the orchestrator drives.
func (o *Orchestrator) Engine() *progression.Engine {
	return o.engine
}

// Outcome is the result of a journey operation.
//
// A denial is not an error: Denial is set and nothing was generated or moved past the gate.
// GenerationErr reports a failed automatic generation that followed a successful step;
// the step itself was kept and the generation can be retried with Generate.
type Outcome struct {
	Snapshot      *project.Snapshot       `json:"-"`
	Cursor        catalog.StageID         `json:"cursor"`
	Progress      float64                 `json:"progress"`
	Pending       progression.Action      `json:"pending"`
	Transition    *progression.Transition `json:"transition,omitempty"`
	Moved         bool                    `json:"moved"`
	Messages      []project.Message       `json:"messages,omitempty"`
	Answer        string                  `json:"answer,omitempty"`
	Denial        *access.Decision        `json:"limit,omitempty"`
	Resume        catalog.StageID         `json:"first_uncompleted,omitempty"`
	GenerationErr error                   `json:"-"`
	SaveErr       error                   `json:"-"`
}

// Start creates a project for subject and surfaces the first stage.
// The projects limit is checked against the number of projects subject already owns.
func (o *Orchestrator) Start(ctx context.Context, subject string, input project.CreateProjectInput) (*Outcome, error) {
	owned, err := o.projects.CountOwned(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}
	denied, err := o.check(ctx, subject, access.KindProjects, owned)
	if err != nil {
		return nil, err
	}
	if denied != nil {
		return &Outcome{Denial: denied}, nil
	}

	input.OwnerID = subject
	if input.Locale == "" {
		input.Locale = o.cfg.DefaultLocale
	}
	snap, err := o.projects.Create(ctx, input, o.cat.First())
	if err != nil {
		return nil, err
	}

	out := &Outcome{}
	tr := o.engine.Current(snap)
	out.Transition = &tr
	o.ask(snap, out, tr)
	o.finish(ctx, snap, out)

	o.logger.Info().
		Str("project_id", snap.ID).
		Str("subject", subject).
		Str("locale", snap.Locale).
		Msg("project started")
	return out, nil
}

// Resume reports where a project stands: the stage under the cursor, what it still
// needs, and the first earlier stage left unanswered. Only a cursor the catalog no
// longer knows is moved.
func (o *Orchestrator) Resume(ctx context.Context, projectID string) (*Outcome, error) {
	snap, err := o.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	tr := o.engine.Current(snap)
	out := &Outcome{Transition: &tr}
	if id, ok := o.engine.FirstUncompleted(snap.Cursor, snap.Answers); ok {
		out.Resume = id
	}
	o.summarize(snap, out)
	return out, nil
}

// JumpTo moves the cursor back to target. A target at or after the cursor is a no-op,
// reported by Moved=false.
func (o *Orchestrator) JumpTo(ctx context.Context, projectID string, target catalog.StageID) (*Outcome, error) {
	snap, err := o.load(ctx, projectID)
	if err != nil {
		return nil, err
	}

	out := &Outcome{}
	tr, ok := o.engine.JumpTo(snap, target)
	if !ok {
		o.logger.Debug().
			Str("project_id", snap.ID).
			Str("cursor", string(snap.Cursor)).
			Str("target", string(target)).
			Msg("jump ignored")
		o.summarize(snap, out)
		return out, nil
	}

	out.Moved = true
	out.Transition = &tr
	o.recordTransition(tr)
	o.ask(snap, out, tr)
	o.finish(ctx, snap, out)
	return out, nil
}

// Restart clears answers and transcript and returns the cursor to the first stage.
// Name, initial idea and locale are kept.
func (o *Orchestrator) Restart(ctx context.Context, projectID string) (*Outcome, error) {
	snap, err := o.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	snap.Answers = catalog.Answers{}
	snap.Transcript = nil
	snap.Cursor = o.cat.First()

	out := &Outcome{Moved: true}
	tr := o.engine.Current(snap)
	out.Transition = &tr
	o.ask(snap, out, tr)
	o.finish(ctx, snap, out)

	o.logger.Info().Str("project_id", snap.ID).Msg("project restarted")
	return out, nil
}

// advance moves past the current stage and keeps going through auto-generated stages.
// It stops at a stage that needs input, a summary stage, Complete, a denial, or a failed
// generation.
func (o *Orchestrator) advance(ctx context.Context, subject string, snap *project.Snapshot, out *Outcome) error {
	for i := 0; i < o.cat.Positions(); i++ {
		next := o.engine.Peek(snap.Cursor)
		if next != catalog.Complete && next != snap.Cursor {
			phase := int64(o.cat.PhaseOf(next))
			denied, err := o.check(ctx, subject, access.KindPhase, phase)
			if err != nil {
				return err
			}
			if denied != nil {
				out.Denial = denied
				return nil
			}
		}

		tr := o.engine.Advance(ctx, snap)
		if tr.From == tr.To {
			return nil
		}
		out.Moved = true
		out.Transition = &tr
		o.recordTransition(tr)
		if tr.SaveErr != nil {
			out.SaveErr = perrors.Persistence(tr.SaveErr)
		}

		switch tr.Action {
		case progression.ActionGenerate:
			o.ask(snap, out, tr)
			if err := o.generateStage(ctx, subject, snap, tr.Stage, out); err != nil {
				out.GenerationErr = err
				return nil
			}
			if out.Denial != nil {
				return nil
			}
		case progression.ActionAwaitInput:
			o.ask(snap, out, tr)
			return nil
		default:
			return nil
		}
	}
	return nil
}

// ask appends the stage question to the transcript.
func (o *Orchestrator) ask(snap *project.Snapshot, out *Outcome, tr progression.Transition) {
	if tr.Question == "" || tr.To == catalog.Complete {
		return
	}
	o.appendMessage(snap, out, project.Message{
		Sender: project.SenderAI,
		Text:   tr.Question,
		Stage:  tr.To,
	})
}

func (o *Orchestrator) appendMessage(snap *project.Snapshot, out *Outcome, msg project.Message) {
	msg.ID = o.newID()
	msg.CreatedAt = o.now().UnixMilli()
	snap.Append(msg)
	out.Messages = append(out.Messages, msg)
}

// check returns the decision when kind is denied for subject, nil when allowed.
func (o *Orchestrator) check(ctx context.Context, subject string, kind access.Kind, current int64) (*access.Decision, error) {
	d, err := o.gate.CheckLimit(ctx, subject, kind, current)
	if err != nil {
		return nil, fmt.Errorf("failed to check %s limit: %w", kind, err)
	}
	if d.Allowed {
		return nil, nil
	}
	if o.metrics != nil {
		o.metrics.RecordDenial(string(kind))
	}
	return &d, nil
}

// finish persists the snapshot and fills the outcome's position fields.
// A failed save is reported on the outcome, not returned.
func (o *Orchestrator) finish(ctx context.Context, snap *project.Snapshot, out *Outcome) {
	if err := o.projects.Save(ctx, snap); err != nil {
		o.logger.Error().Err(err).
			Str("project_id", snap.ID).
			Str("cursor", string(snap.Cursor)).
			Msg("failed to save project")
		if o.metrics != nil {
			o.metrics.RecordError("journey", "persistence")
		}
		out.SaveErr = perrors.Persistence(err)
	}
	o.summarize(snap, out)
}

func (o *Orchestrator) summarize(snap *project.Snapshot, out *Outcome) {
	out.Snapshot = snap
	out.Cursor = snap.Cursor
	out.Progress = o.engine.Progress(snap.Cursor)
	out.Pending = o.engine.Pending(snap)
}

func (o *Orchestrator) recordTransition(tr progression.Transition) {
	if o.metrics != nil {
		o.metrics.RecordTransition(string(tr.Action))
	}
}

// load reads a project and re-seats a cursor left behind by a catalog change.
func (o *Orchestrator) load(ctx context.Context, projectID string) (*project.Snapshot, error) {
	snap, err := o.projects.Load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if o.engine.Reseat(snap) {
		if err := o.projects.Save(ctx, snap); err != nil {
			o.logger.Error().Err(err).Str("project_id", snap.ID).Msg("failed to save reseated cursor")
		}
	}
	return snap, nil
}

// currentStage returns the stage under the cursor, or ErrInvalidInput at Complete.
func (o *Orchestrator) currentStage(snap *project.Snapshot) (*catalog.Stage, error) {
	st, ok := o.cat.Stage(snap.Cursor)
	if !ok {
		return nil, fmt.Errorf("project %s has no active stage: %w", snap.ID, perrors.ErrInvalidInput)
	}
	return st, nil
}
