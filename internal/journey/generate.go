package journey

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/access"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/catalog"
	perrors "github.com/Ali-xra/ai-startup-mentor-sub000/internal/errors"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/llm"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/project"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/prompt"
)

// Generation kinds, used as the metrics label.
const (
	kindSuggestion = "suggestion"
	kindAuto       = "auto"
	kindSummary    = "summary"
	kindRefine     = "refine"
)

// generate spends one AI credit of subject on req. It returns a decision instead of a
// response when the subject is out of credits. Credits are only counted for successful calls.
func (o *Orchestrator) generate(ctx context.Context, subject, kind string, req *prompt.Request) (*llm.Response, *access.Decision, error) {
	used, err := o.projects.AIUsage(ctx, subject)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read AI usage: %w", err)
	}
	denied, err := o.check(ctx, subject, access.KindAIMessages, used)
	if err != nil || denied != nil {
		return nil, denied, err
	}

	if o.gen == nil {
		return nil, nil, perrors.Generation(perrors.ErrUnavailable)
	}

	tokens := prompt.EstimateTokens(req)
	genCtx, cancel := context.WithTimeout(ctx, o.cfg.GenerationTimeout)
	defer cancel()

	start := time.Now()
	resp, err := o.gen.Generate(genCtx, req.LLM())
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(genCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, perrors.ErrTimeout) {
			err = fmt.Errorf("%w: %w", perrors.ErrTimeout, err)
		}
		if o.metrics != nil {
			o.metrics.RecordGeneration(kind, "error", elapsed.Seconds(), tokens)
			o.metrics.RecordError("journey", "generation")
		}
		o.logger.Warn().Err(err).
			Str("kind", kind).
			Str("stage", string(req.Stage)).
			Str("generator", o.gen.Name()).
			Dur("elapsed", elapsed).
			Msg("generation failed")
		return nil, nil, perrors.Generation(err)
	}

	if o.metrics != nil {
		o.metrics.RecordGeneration(kind, "ok", elapsed.Seconds(), tokens)
	}
	if _, err := o.projects.IncrementAIUsage(ctx, subject); err != nil {
		o.logger.Error().Err(err).Str("subject", subject).Msg("failed to count AI usage")
	}

	o.logger.Debug().
		Str("kind", kind).
		Str("stage", string(req.Stage)).
		Str("model", resp.Model).
		Int("prompt_tokens_est", tokens).
		Int("output_tokens", resp.OutputTokens).
		Int("citations", len(resp.Citations)).
		Dur("elapsed", elapsed).
		Msg("generated")
	return resp, nil, nil
}

// stageRequest assembles the template request for st, falling back to the generic
// suggestion prompt when the stage has none.
func (o *Orchestrator) stageRequest(snap *project.Snapshot, st *catalog.Stage, userInput string) *prompt.Request {
	in := promptInput(snap, userInput)
	req, err := prompt.Assemble(st, in)
	if err != nil {
		o.logger.Warn().Err(err).Str("stage", string(st.ID)).Msg("using fallback prompt")
		return prompt.Fallback(st.ID, in)
	}
	return req
}

// generateStage produces and stores the answer of an auto-generated stage.
func (o *Orchestrator) generateStage(ctx context.Context, subject string, snap *project.Snapshot, st *catalog.Stage, out *Outcome) error {
	resp, denied, err := o.generate(ctx, subject, kindAuto, o.stageRequest(snap, st, ""))
	if err != nil {
		return err
	}
	if denied != nil {
		out.Denial = denied
		return nil
	}
	o.store(snap, st, resp, out)
	return nil
}

// generateSummary produces and stores the recap of a summary stage.
func (o *Orchestrator) generateSummary(ctx context.Context, subject string, snap *project.Snapshot, st *catalog.Stage, out *Outcome) error {
	section := st.Title.In(snap.Locale)
	if sub, ok := o.cat.Subsection(st.Subsection); ok && !sub.Title.IsZero() {
		section = sub.Title.In(snap.Locale)
	}
	req, err := prompt.Summary(st.ID, section, promptInput(snap, ""))
	if err != nil {
		return err
	}

	resp, denied, err := o.generate(ctx, subject, kindSummary, req)
	if err != nil {
		return err
	}
	if denied != nil {
		out.Denial = denied
		return nil
	}
	o.store(snap, st, resp, out)
	return nil
}

// store writes a generated answer for st and adds it to the transcript.
func (o *Orchestrator) store(snap *project.Snapshot, st *catalog.Stage, resp *llm.Response, out *Outcome) {
	if st.DataKey != "" {
		snap.Answers[st.DataKey] = resp.Text
	}
	out.Answer = resp.Text
	o.appendMessage(snap, out, project.Message{
		Sender:  project.SenderAI,
		Text:    resp.Text,
		Stage:   st.ID,
		Sources: sources(resp.Citations),
	})
}

func promptInput(snap *project.Snapshot, userInput string) prompt.Input {
	return prompt.Input{
		Answers:     snap.Answers,
		InitialIdea: snap.InitialIdea,
		ProjectName: snap.Name,
		UserInput:   userInput,
		Locale:      snap.Locale,
	}
}

func sources(cs []llm.Citation) []project.Source {
	if len(cs) == 0 {
		return nil
	}
	out := make([]project.Source, len(cs))
	for i, c := range cs {
		out[i] = project.Source{URI: c.URI, Title: c.Title}
	}
	return out
}
