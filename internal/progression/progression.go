// Package progression owns a project's position in the stage catalog.
//
// The cursor moves forward only through Advance and backward only through JumpTo;
// once it reaches catalog.Complete it stays there.
package progression

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/catalog"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/project"
)

// Action tells the caller what the stage under the cursor needs next.
type Action string

const (
	// ActionAwaitInput: surface the question and wait for an answer or a suggestion request.
	ActionAwaitInput Action = "await_input"
	// ActionGenerate: request a generated answer for the stage now.
	ActionGenerate Action = "generate"
	// ActionSummarize: synthesize the section summary, then advance again.
	ActionSummarize Action = "summarize"
	// ActionComplete: the workflow is finished.
	ActionComplete Action = "complete"
)

// Persister saves a project snapshot.
type Persister interface {
	Save(ctx context.Context, snap *project.Snapshot) error
}

// Transition describes a cursor move.
type Transition struct {
	From     catalog.StageID `json:"from"`
	To       catalog.StageID `json:"to"`
	Action   Action          `json:"action"`
	Question string          `json:"question,omitempty"`
	Guidance string          `json:"guidance,omitempty"`
	Progress float64         `json:"progress"`
	// SaveErr is set when the move could not be persisted. The cursor has moved regardless.
	SaveErr error `json:"-"`

	Stage *catalog.Stage `json:"-"`
}

// Engine moves project cursors through a catalog.
type Engine struct {
	cat    *catalog.Catalog
	store  Persister
	logger zerolog.Logger
}

// New creates an engine over cat. store may be nil, in which case nothing is persisted.
func New(cat *catalog.Catalog, store Persister, logger zerolog.Logger) *Engine {
	return &Engine{
		cat:    cat,
		store:  store,
		logger: logger.With().Str("component", "progression").Logger(),
	}
}

// Catalog returns the engine's catalog.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.cat
}

// Advance moves the cursor to the next stage in catalog order.
//
// The snapshot is persisted when the new position is Complete or a summary stage; other
// moves are saved by the caller together with the answer that caused them.
func (e *Engine) Advance(ctx context.Context, snap *project.Snapshot) Transition {
	from := snap.Cursor
	if from == catalog.Complete {
		return Transition{From: from, To: from, Action: ActionComplete, Progress: 100}
	}
	if !e.cat.Valid(from) {
		e.logger.Warn().Str("project_id", snap.ID).Str("cursor", string(from)).Msg("cursor not in catalog, not advancing")
		return Transition{From: from, To: from, Action: ActionAwaitInput}
	}

	to := e.cat.Next(from)
	snap.Cursor = to
	tr := e.describe(from, to, snap.Locale)

	if tr.Action == ActionComplete || tr.Action == ActionSummarize {
		tr.SaveErr = e.save(ctx, snap)
	}

	e.logger.Debug().
		Str("project_id", snap.ID).
		Str("from", string(from)).
		Str("to", string(to)).
		Str("action", string(tr.Action)).
		Msg("advanced")
	return tr
}

// Peek returns the stage Advance would move to, without moving.
func (e *Engine) Peek(cursor catalog.StageID) catalog.StageID {
	if cursor == catalog.Complete || !e.cat.Valid(cursor) {
		return cursor
	}
	return e.cat.Next(cursor)
}

// Reseat moves a cursor the catalog does not know, such as a stage removed since the
// project was saved, to the first unanswered stage, or Complete when none is left.
// It reports whether the cursor changed.
func (e *Engine) Reseat(snap *project.Snapshot) bool {
	if e.cat.Valid(snap.Cursor) {
		return false
	}
	from := snap.Cursor
	snap.Cursor = catalog.Complete
	for _, st := range e.cat.Stages() {
		if st.DataKey != "" && !snap.Answers.Has(st.DataKey) {
			snap.Cursor = st.ID
			break
		}
	}
	e.logger.Warn().
		Str("project_id", snap.ID).
		Str("from", string(from)).
		Str("to", string(snap.Cursor)).
		Msg("reseated unknown cursor")
	return true
}

// JumpTo moves the cursor back to target. It reports false, leaving the cursor unchanged,
// when target is not strictly before the cursor or is not a stage.
func (e *Engine) JumpTo(snap *project.Snapshot, target catalog.StageID) (Transition, bool) {
	if target == catalog.Complete {
		return Transition{}, false
	}
	targetOrd, ok := e.cat.Ordinal(target)
	if !ok {
		return Transition{}, false
	}
	curOrd, ok := e.cat.Ordinal(snap.Cursor)
	if !ok || targetOrd >= curOrd {
		return Transition{}, false
	}

	from := snap.Cursor
	snap.Cursor = target
	tr := e.describe(from, target, snap.Locale)
	// Revisited stages are edited, never regenerated automatically.
	tr.Action = ActionAwaitInput
	return tr, true
}

// Current describes the stage under the cursor without moving it.
func (e *Engine) Current(snap *project.Snapshot) Transition {
	tr := e.describe(snap.Cursor, snap.Cursor, snap.Locale)
	tr.Action = e.Pending(snap)
	return tr
}

// FirstUncompleted returns the first stage at or before cursor whose answer field is unset.
// It reports false when there is no gap or the cursor is Complete.
func (e *Engine) FirstUncompleted(cursor catalog.StageID, answers catalog.Answers) (catalog.StageID, bool) {
	if cursor == catalog.Complete {
		return "", false
	}
	limit, ok := e.cat.Ordinal(cursor)
	if !ok {
		return "", false
	}
	for _, st := range e.cat.Stages()[:limit+1] {
		if st.DataKey != "" && !answers.Has(st.DataKey) {
			return st.ID, true
		}
	}
	return "", false
}

// Pending reports what the stage under the cursor still needs on resume.
func (e *Engine) Pending(snap *project.Snapshot) Action {
	if snap.Cursor == catalog.Complete {
		return ActionComplete
	}
	st, ok := e.cat.Stage(snap.Cursor)
	if !ok {
		return ActionAwaitInput
	}
	answered := st.DataKey != "" && snap.Answers.Has(st.DataKey)
	switch {
	case st.Summary && !answered:
		return ActionSummarize
	case st.AutoGenerated && !answered:
		return ActionGenerate
	default:
		return ActionAwaitInput
	}
}

// Progress returns the percentage of positions entered, counting Complete as the last one.
// It depends only on the cursor.
func (e *Engine) Progress(cursor catalog.StageID) float64 {
	ord, ok := e.cat.Ordinal(cursor)
	if !ok {
		return 0
	}
	last := e.cat.Positions() - 1
	if last <= 0 {
		return 100
	}
	return float64(ord) / float64(last) * 100
}

func (e *Engine) describe(from, to catalog.StageID, locale string) Transition {
	tr := Transition{From: from, To: to, Progress: e.Progress(to)}
	if to == catalog.Complete {
		tr.Action = ActionComplete
		return tr
	}

	st, ok := e.cat.Stage(to)
	if !ok {
		tr.Action = ActionAwaitInput
		return tr
	}
	tr.Stage = st
	tr.Action = actionFor(st)
	tr.Question = st.Question.In(locale)
	tr.Guidance = st.Guidance.In(locale)
	return tr
}

// actionFor decides what entering st requires. Summary wins over the input flag.
func actionFor(st *catalog.Stage) Action {
	switch {
	case st.Summary:
		return ActionSummarize
	case st.AutoGenerated:
		return ActionGenerate
	default:
		return ActionAwaitInput
	}
}

func (e *Engine) save(ctx context.Context, snap *project.Snapshot) error {
	if e.store == nil {
		return nil
	}
	if err := e.store.Save(ctx, snap); err != nil {
		e.logger.Error().Err(err).
			Str("project_id", snap.ID).
			Str("cursor", string(snap.Cursor)).
			Msg("failed to persist progress")
		return err
	}
	return nil
}
