package prompt

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/catalog"
	perrors "github.com/Ali-xra/ai-startup-mentor-sub000/internal/errors"
)

func defaultCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	return c
}

func stage(t *testing.T, c *catalog.Catalog, id catalog.StageID) *catalog.Stage {
	t.Helper()
	st, ok := c.Stage(id)
	require.True(t, ok, "stage %s", id)
	return st
}

func TestAssemble_ElevatorPitchSubstitution(t *testing.T) {
	c := defaultCatalog(t)
	in := Input{
		Answers:   catalog.Answers{catalog.FieldIdeaTitle: "Foo"},
		UserInput: "make it punchy",
		Locale:    "en",
	}

	req, err := Assemble(stage(t, c, "ELEVATOR_PITCH"), in)
	require.NoError(t, err)

	assert.Contains(t, req.UserMessage, "Foo")
	assert.Contains(t, req.UserMessage, "make it punchy")
	assert.NotContains(t, req.UserMessage, "{idea_title}")
	assert.NotContains(t, req.UserMessage, "{userInput}")
	assert.NotContains(t, req.UserMessage, "{initialIdea}")
}

func TestAssemble_IsPure(t *testing.T) {
	c := defaultCatalog(t)
	in := Input{
		Answers: catalog.Answers{
			catalog.FieldIdeaTitle:          "Foo",
			catalog.FieldProblemDescription: "Bar",
		},
		InitialIdea: "A marketplace for bikes",
		UserInput:   "shorter",
		Locale:      "fa",
	}

	for _, st := range c.Stages() {
		a, err := Assemble(st, in)
		require.NoError(t, err)
		b, err := Assemble(st, in)
		require.NoError(t, err)
		assert.Equal(t, a, b, "stage %s", st.ID)
	}
}

func TestAssemble_NoDeclaredPlaceholderSurvives(t *testing.T) {
	c := defaultCatalog(t)
	placeholder := regexp.MustCompile(`\{(\w+)\}`)

	for _, st := range c.Stages() {
		// Empty answers: every declared key must still resolve.
		req, err := Assemble(st, Input{Locale: "en"})
		require.NoError(t, err)

		declared := map[string]bool{
			catalog.ContextInitialIdea: true,
			catalog.ContextUserInput:   true,
		}
		for _, k := range st.Template.ContextKeys {
			declared[k] = true
		}
		for _, m := range placeholder.FindAllStringSubmatch(req.UserMessage, -1) {
			assert.False(t, declared[m[1]], "stage %s left {%s} unresolved", st.ID, m[1])
		}
	}
}

func TestAssemble_InstructionOrder(t *testing.T) {
	st := &catalog.Stage{
		ID: "X",
		Template: &catalog.Template{
			Role:         "You are a namer.",
			Goal:         "Name it.",
			OutputFormat: "A list.",
			Constraints: &catalog.Constraints{
				Tone:       "playful",
				Complexity: "simple",
				Length:     "short",
				MaxWords:   25,
				Count:      3,
			},
			Prompt: "Idea: {initialIdea}",
		},
	}

	req, err := Assemble(st, Input{InitialIdea: "bikes", Locale: "en"})
	require.NoError(t, err)

	want := "You are a namer. Always respond in English." +
		"\n\nConstraints:\nTone: playful\nComplexity: simple\nLength: short\nMax words: 25\nCount: 3 items" +
		"\n\nGoal: Name it." +
		"\n\nOutput Format: A list."
	assert.Equal(t, want, req.SystemInstruction)
	assert.Equal(t, "Idea: bikes", req.UserMessage)
}

func TestAssemble_OmitsAbsentParts(t *testing.T) {
	st := &catalog.Stage{
		ID: "X",
		Template: &catalog.Template{
			Role:        "You are terse.",
			Constraints: &catalog.Constraints{Tone: "dry"},
			Prompt:      "{userInput}",
		},
	}

	req, err := Assemble(st, Input{Locale: "fa"})
	require.NoError(t, err)
	assert.Equal(t, "You are terse. Always respond in Persian (Farsi).\n\nConstraints:\nTone: dry", req.SystemInstruction)
	assert.Empty(t, req.UserMessage)
	assert.NotContains(t, req.SystemInstruction, "Goal:")
}

func TestAssemble_WebSearchAndSettings(t *testing.T) {
	c := defaultCatalog(t)

	req, err := Assemble(stage(t, c, "TAM_ANALYSIS"), Input{})
	require.NoError(t, err)
	assert.True(t, req.WebSearch)
	assert.Equal(t, catalog.Settings{Temperature: 0.7, TopK: 40, TopP: 0.95, MaxOutputTokens: 2048}, req.Settings)

	req, err = Assemble(stage(t, c, "SWOT_ANALYSIS"), Input{})
	require.NoError(t, err)
	assert.False(t, req.WebSearch)

	custom := &catalog.Stage{ID: "X", Template: &catalog.Template{
		Role: "r", Prompt: "p",
		Settings: &catalog.Settings{Temperature: 0.2, MaxOutputTokens: 512},
	}}
	req, err = Assemble(custom, Input{})
	require.NoError(t, err)
	assert.Equal(t, catalog.Settings{Temperature: 0.2, TopK: 40, TopP: 0.95, MaxOutputTokens: 512}, req.Settings)

	gen := req.LLM()
	assert.Equal(t, float32(0.2), gen.Temperature)
	assert.Equal(t, int32(512), gen.MaxOutputTokens)
	assert.Equal(t, "p", gen.UserMessage)
}

func TestAssemble_MissingTemplate(t *testing.T) {
	_, err := Assemble(&catalog.Stage{ID: "BARE"}, Input{})
	require.Error(t, err)
	assert.ErrorIs(t, err, perrors.ErrMissingTemplate)

	req := Fallback("BARE", Input{InitialIdea: "bikes", Locale: "en"})
	assert.Equal(t,
		`Based on the startup idea "bikes" and current stage "BARE", provide a helpful suggestion for the entrepreneur. Be specific and actionable.`,
		req.UserMessage)
	assert.Equal(t, MentorPersona+" Always respond in English.", req.SystemInstruction)
}

func TestRefine(t *testing.T) {
	req := Refine("Old pitch", "make it shorter", "fa")
	assert.Equal(t,
		"Original text: \"Old pitch\"\n\nUser instruction: \"make it shorter\"\n\nPlease refine the text according to the instruction while maintaining its core meaning.",
		req.UserMessage)
	assert.True(t, strings.HasSuffix(req.SystemInstruction, "Always respond in Persian (Farsi)."))
	assert.False(t, req.WebSearch)
}

func TestSummary(t *testing.T) {
	in := Input{
		Answers:     catalog.Answers{catalog.FieldIdeaTitle: "Foo", catalog.FieldElevatorPitch: "Pitch"},
		InitialIdea: "bikes",
		Locale:      "en",
	}
	a, err := Summary("EXECUTIVE_SUMMARY", "Idea Definition", in)
	require.NoError(t, err)
	b, err := Summary("EXECUTIVE_SUMMARY", "Idea Definition", in)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t,
		`Generate a comprehensive summary for the "Idea Definition" section based on all the information provided so far: {"elevator_pitch":"Pitch","idea_title":"Foo","initialIdea":"bikes"}`,
		a.UserMessage)
}

func TestLanguageName(t *testing.T) {
	assert.Equal(t, "English", LanguageName("en"))
	assert.Equal(t, "English", LanguageName("en-US"))
	assert.Equal(t, "Persian (Farsi)", LanguageName("fa"))
	assert.Equal(t, "Persian (Farsi)", LanguageName("fa-IR"))
	assert.Equal(t, "German", LanguageName("de"))
	assert.Equal(t, "English", LanguageName(""))
	assert.Equal(t, "English", LanguageName("not a tag!"))
}

func TestEstimateTokens(t *testing.T) {
	assert.Zero(t, EstimateTokens(nil))
	req := Refine("Old pitch", "make it shorter", "en")
	assert.Greater(t, EstimateTokens(req), 10)
}
