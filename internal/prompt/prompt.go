// Package prompt turns a stage template and the accumulated answers into a generation request.
// Assembly is pure: the same stage, answers and input always produce the same request.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/catalog"
	perrors "github.com/Ali-xra/ai-startup-mentor-sub000/internal/errors"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/llm"
)

// Generation defaults used when a template declares no settings.
const (
	DefaultTemperature     float32 = 0.7
	DefaultTopK            float32 = 40
	DefaultTopP            float32 = 0.95
	DefaultMaxOutputTokens int32   = 2048
)

// MentorPersona is the role line for requests that are not driven by a stage template.
const MentorPersona = "You are an AI startup mentor helping entrepreneurs develop their business ideas."

// Input is everything assembly reads besides the stage itself.
type Input struct {
	Answers     catalog.Answers
	InitialIdea string
	ProjectName string
	UserInput   string
	Locale      string
}

// Request is a resolved generation request. It is never persisted.
type Request struct {
	Stage             catalog.StageID
	SystemInstruction string
	UserMessage       string
	Constraints       catalog.Constraints
	WebSearch         bool
	Settings          catalog.Settings
}

// LLM converts r into the generator's request type.
func (r *Request) LLM() *llm.Request {
	return &llm.Request{
		SystemInstruction: r.SystemInstruction,
		UserMessage:       r.UserMessage,
		Temperature:       r.Settings.Temperature,
		TopK:              r.Settings.TopK,
		TopP:              r.Settings.TopP,
		MaxOutputTokens:   r.Settings.MaxOutputTokens,
		WebSearch:         r.WebSearch,
	}
}

// Assemble builds the request for st. It returns ErrMissingTemplate when the stage has
// no template; callers then use Fallback.
func Assemble(st *catalog.Stage, in Input) (*Request, error) {
	if st == nil || st.Template == nil {
		id := catalog.StageID("")
		if st != nil {
			id = st.ID
		}
		return nil, fmt.Errorf("stage %s: %w", id, perrors.ErrMissingTemplate)
	}
	tpl := st.Template

	req := &Request{
		Stage:             st.ID,
		SystemInstruction: instruction(tpl, in.Locale),
		UserMessage:       substitute(tpl.Prompt, tpl.ContextKeys, in),
		WebSearch:         tpl.WebSearch,
		Settings:          resolveSettings(tpl.Settings),
	}
	if tpl.Constraints != nil {
		req.Constraints = *tpl.Constraints
	}
	return req, nil
}

func instruction(tpl *catalog.Template, locale string) string {
	var b strings.Builder

	role := tpl.Role
	if role == "" {
		role = MentorPersona
	}
	b.WriteString(role)
	b.WriteString(" Always respond in ")
	b.WriteString(LanguageName(locale))
	b.WriteString(".")

	if lines := constraintLines(tpl.Constraints); len(lines) > 0 {
		b.WriteString("\n\nConstraints:")
		for _, l := range lines {
			b.WriteString("\n")
			b.WriteString(l)
		}
	}
	if tpl.Goal != "" {
		b.WriteString("\n\nGoal: ")
		b.WriteString(tpl.Goal)
	}
	if tpl.OutputFormat != "" {
		b.WriteString("\n\nOutput Format: ")
		b.WriteString(tpl.OutputFormat)
	}
	return b.String()
}

func constraintLines(c *catalog.Constraints) []string {
	if c == nil {
		return nil
	}
	var lines []string
	if c.Tone != "" {
		lines = append(lines, "Tone: "+c.Tone)
	}
	if c.Complexity != "" {
		lines = append(lines, "Complexity: "+c.Complexity)
	}
	if c.Length != "" {
		lines = append(lines, "Length: "+c.Length)
	}
	if c.MaxWords > 0 {
		lines = append(lines, fmt.Sprintf("Max words: %d", c.MaxWords))
	}
	if c.Count > 0 {
		lines = append(lines, fmt.Sprintf("Count: %d items", c.Count))
	}
	return lines
}

// substitute replaces {key} for each declared context key and the reserved names.
// Absent values resolve to "".
func substitute(raw string, keys []string, in Input) string {
	names := make([]string, 0, len(keys)+2)
	names = append(names, keys...)
	names = append(names, catalog.ContextInitialIdea, catalog.ContextUserInput)

	out := raw
	for _, k := range names {
		out = strings.ReplaceAll(out, "{"+k+"}", contextValue(k, in))
	}
	return out
}

func contextValue(key string, in Input) string {
	switch key {
	case catalog.ContextInitialIdea:
		return in.InitialIdea
	case catalog.ContextUserInput:
		return in.UserInput
	case catalog.ContextProjectName:
		return in.ProjectName
	default:
		return in.Answers[catalog.FieldKey(key)]
	}
}

func resolveSettings(s *catalog.Settings) catalog.Settings {
	out := catalog.Settings{
		Temperature:     DefaultTemperature,
		TopK:            DefaultTopK,
		TopP:            DefaultTopP,
		MaxOutputTokens: DefaultMaxOutputTokens,
	}
	if s == nil {
		return out
	}
	if s.Temperature > 0 {
		out.Temperature = s.Temperature
	}
	if s.TopK > 0 {
		out.TopK = s.TopK
	}
	if s.TopP > 0 {
		out.TopP = s.TopP
	}
	if s.MaxOutputTokens > 0 {
		out.MaxOutputTokens = s.MaxOutputTokens
	}
	return out
}

func mentorRequest(stage catalog.StageID, locale, user string) *Request {
	return &Request{
		Stage:             stage,
		SystemInstruction: MentorPersona + " Always respond in " + LanguageName(locale) + ".",
		UserMessage:       user,
		Settings:          resolveSettings(nil),
	}
}

// Fallback is the generic suggestion request used when a stage has no template.
func Fallback(stage catalog.StageID, in Input) *Request {
	return mentorRequest(stage, in.Locale, fmt.Sprintf(
		"Based on the startup idea \"%s\" and current stage \"%s\", provide a helpful suggestion for the entrepreneur. Be specific and actionable.",
		in.InitialIdea, string(stage)))
}

// Refine asks for a revision of original that follows instruction.
func Refine(original, instruction, locale string) *Request {
	return mentorRequest("", locale, fmt.Sprintf(
		"Original text: \"%s\"\n\nUser instruction: \"%s\"\n\nPlease refine the text according to the instruction while maintaining its core meaning.",
		original, instruction))
}

// Summary asks for a recap of everything answered so far, for the named section.
func Summary(stage catalog.StageID, section string, in Input) (*Request, error) {
	data := make(map[string]string, len(in.Answers)+2)
	for k, v := range in.Answers {
		data[string(k)] = v
	}
	if in.InitialIdea != "" {
		data[catalog.ContextInitialIdea] = in.InitialIdea
	}
	if in.ProjectName != "" {
		data[catalog.ContextProjectName] = in.ProjectName
	}

	// encoding/json sorts map keys, so the payload is deterministic.
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answers: %w", err)
	}
	return mentorRequest(stage, in.Locale, fmt.Sprintf(
		"Generate a comprehensive summary for the \"%s\" section based on all the information provided so far: %s",
		section, raw)), nil
}
