package journey

import (
	"context"
	"fmt"
	"strings"

	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/catalog"
	perrors "github.com/Ali-xra/ai-startup-mentor-sub000/internal/errors"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/project"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/prompt"
)

// SendMessage records text as the answer to the current stage and moves on.
func (o *Orchestrator) SendMessage(ctx context.Context, subject, projectID, text string) (*Outcome, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty message: %w", perrors.ErrInvalidInput)
	}
	snap, err := o.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	st, err := o.inputStage(snap)
	if err != nil {
		return nil, err
	}

	out := &Outcome{}
	o.appendMessage(snap, out, project.Message{Sender: project.SenderUser, Text: text, Stage: st.ID})
	return o.answerAndAdvance(ctx, subject, snap, st, text, out)
}

// RequestSuggestion generates a draft answer for the current stage. userInput is the
// founder's own partial answer or hint and may be empty.
func (o *Orchestrator) RequestSuggestion(ctx context.Context, subject, projectID, userInput string) (*Outcome, error) {
	snap, err := o.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	st, err := o.inputStage(snap)
	if err != nil {
		return nil, err
	}

	out := &Outcome{}
	resp, denied, err := o.generate(ctx, subject, kindSuggestion, o.stageRequest(snap, st, strings.TrimSpace(userInput)))
	if err != nil {
		return nil, err
	}
	if denied != nil {
		out.Denial = denied
		o.summarize(snap, out)
		return out, nil
	}

	out.Answer = resp.Text
	o.appendMessage(snap, out, project.Message{
		Sender:     project.SenderAI,
		Text:       resp.Text,
		Stage:      st.ID,
		Suggestion: true,
		Sources:    sources(resp.Citations),
	})
	o.finish(ctx, snap, out)
	return out, nil
}

// AcceptSuggestion takes a suggestion of the current stage as its answer and moves on.
func (o *Orchestrator) AcceptSuggestion(ctx context.Context, subject, projectID, messageID string) (*Outcome, error) {
	snap, err := o.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	st, err := o.inputStage(snap)
	if err != nil {
		return nil, err
	}
	msg, err := suggestionFor(snap, st.ID, messageID)
	if err != nil {
		return nil, err
	}

	text := msg.Text
	out := &Outcome{}
	o.appendMessage(snap, out, project.Message{Sender: project.SenderUser, Text: text, Stage: st.ID})
	return o.answerAndAdvance(ctx, subject, snap, st, text, out)
}

// RefineSuggestion rewrites a pending suggestion following instruction.
func (o *Orchestrator) RefineSuggestion(ctx context.Context, subject, projectID, messageID, instruction string) (*Outcome, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return nil, fmt.Errorf("empty instruction: %w", perrors.ErrInvalidInput)
	}
	snap, err := o.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	st, err := o.currentStage(snap)
	if err != nil {
		return nil, err
	}
	msg, err := suggestionFor(snap, st.ID, messageID)
	if err != nil {
		return nil, err
	}

	out := &Outcome{}
	resp, denied, err := o.generate(ctx, subject, kindRefine, prompt.Refine(msg.Text, instruction, snap.Locale))
	if err != nil {
		return nil, err
	}
	if denied != nil {
		out.Denial = denied
		o.summarize(snap, out)
		return out, nil
	}

	msg.Text = resp.Text
	if cited := sources(resp.Citations); cited != nil {
		msg.Sources = cited
	}
	out.Answer = resp.Text
	out.Messages = append(out.Messages, *msg)
	o.finish(ctx, snap, out)
	return out, nil
}

// UpdateAnswer overwrites the answer of a stage the cursor has already reached.
// An empty value clears the answer. The cursor does not move.
func (o *Orchestrator) UpdateAnswer(ctx context.Context, projectID string, field catalog.FieldKey, value string) (*Outcome, error) {
	snap, err := o.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := o.reachable(snap, field); err != nil {
		return nil, err
	}

	value = strings.TrimSpace(value)
	if value == "" {
		delete(snap.Answers, field)
	} else {
		snap.Answers[field] = value
	}

	out := &Outcome{Answer: value}
	o.finish(ctx, snap, out)
	return out, nil
}

// RefineAnswer rewrites a stored answer following instruction and stores the result.
func (o *Orchestrator) RefineAnswer(ctx context.Context, subject, projectID string, field catalog.FieldKey, instruction string) (*Outcome, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return nil, fmt.Errorf("empty instruction: %w", perrors.ErrInvalidInput)
	}
	snap, err := o.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := o.reachable(snap, field); err != nil {
		return nil, err
	}
	original, ok := snap.Answers[field]
	if !ok || original == "" {
		return nil, fmt.Errorf("field %s has no answer: %w", field, perrors.ErrInvalidInput)
	}

	out := &Outcome{}
	resp, denied, err := o.generate(ctx, subject, kindRefine, prompt.Refine(original, instruction, snap.Locale))
	if err != nil {
		return nil, err
	}
	if denied != nil {
		out.Denial = denied
		o.summarize(snap, out)
		return out, nil
	}

	snap.Answers[field] = resp.Text
	out.Answer = resp.Text
	o.finish(ctx, snap, out)
	return out, nil
}

// ProceedFromSummary synthesizes the current summary stage, when not done already, and
// moves on. A failed synthesis leaves the cursor on the summary stage.
func (o *Orchestrator) ProceedFromSummary(ctx context.Context, subject, projectID string) (*Outcome, error) {
	snap, err := o.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	st, err := o.currentStage(snap)
	if err != nil {
		return nil, err
	}
	if !st.Summary {
		return nil, fmt.Errorf("stage %s is not a summary: %w", st.ID, perrors.ErrInvalidInput)
	}

	out := &Outcome{}
	if st.DataKey == "" || !snap.Answers.Has(st.DataKey) {
		if err := o.generateSummary(ctx, subject, snap, st, out); err != nil {
			return nil, err
		}
		if out.Denial != nil {
			o.summarize(snap, out)
			return out, nil
		}
	}

	if err := o.advance(ctx, subject, snap, out); err != nil {
		return nil, err
	}
	o.finish(ctx, snap, out)
	return out, nil
}

// Generate produces the answer of the current auto-generated stage and moves on.
// A failed generation leaves the cursor where it is.
func (o *Orchestrator) Generate(ctx context.Context, subject, projectID string) (*Outcome, error) {
	snap, err := o.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	st, err := o.currentStage(snap)
	if err != nil {
		return nil, err
	}
	if !st.AutoGenerated {
		return nil, fmt.Errorf("stage %s is not auto-generated: %w", st.ID, perrors.ErrInvalidInput)
	}

	out := &Outcome{}
	if err := o.generateStage(ctx, subject, snap, st, out); err != nil {
		return nil, err
	}
	if out.Denial != nil {
		o.summarize(snap, out)
		return out, nil
	}

	if err := o.advance(ctx, subject, snap, out); err != nil {
		return nil, err
	}
	o.finish(ctx, snap, out)
	return out, nil
}

// answerAndAdvance stores text as the answer of st, drops pending suggestions and moves on.
func (o *Orchestrator) answerAndAdvance(ctx context.Context, subject string, snap *project.Snapshot, st *catalog.Stage, text string, out *Outcome) (*Outcome, error) {
	if st.DataKey != "" {
		snap.Answers[st.DataKey] = text
	}
	snap.RemoveSuggestions()

	if err := o.advance(ctx, subject, snap, out); err != nil {
		// Keep the answer even when the gate could not be read.
		o.finish(ctx, snap, out)
		return nil, err
	}
	o.finish(ctx, snap, out)
	return out, nil
}

// inputStage returns the current stage when it takes founder input. Summary and
// auto-generated stages are filled by ProceedFromSummary and Generate.
func (o *Orchestrator) inputStage(snap *project.Snapshot) (*catalog.Stage, error) {
	st, err := o.currentStage(snap)
	if err != nil {
		return nil, err
	}
	switch {
	case st.Summary:
		return nil, fmt.Errorf("stage %s is a summary, use proceed: %w", st.ID, perrors.ErrInvalidInput)
	case st.AutoGenerated:
		return nil, fmt.Errorf("stage %s is auto-generated, use generate: %w", st.ID, perrors.ErrInvalidInput)
	}
	return st, nil
}

// reachable rejects fields that are unknown or belong to a stage after the cursor.
func (o *Orchestrator) reachable(snap *project.Snapshot, field catalog.FieldKey) error {
	owner, ok := o.cat.Owner(field)
	if !ok {
		return fmt.Errorf("unknown field %q: %w", field, perrors.ErrInvalidInput)
	}
	cur, _ := o.cat.Ordinal(snap.Cursor)
	if owner.Order > cur {
		return fmt.Errorf("field %s is not reached yet: %w", field, perrors.ErrInvalidInput)
	}
	return nil
}

func suggestionFor(snap *project.Snapshot, stage catalog.StageID, messageID string) (*project.Message, error) {
	msg, ok := snap.Message(messageID)
	if !ok {
		return nil, fmt.Errorf("message %s: %w", messageID, perrors.ErrNotFound)
	}
	if !msg.Suggestion || msg.Stage != stage {
		return nil, fmt.Errorf("message %s is not a suggestion for %s: %w", messageID, stage, perrors.ErrInvalidInput)
	}
	return msg, nil
}
