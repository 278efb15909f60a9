package export

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/access"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/catalog"
	perrors "github.com/Ali-xra/ai-startup-mentor-sub000/internal/errors"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/project"
)

func testSnapshot() *project.Snapshot {
	return &project.Snapshot{
		Project: project.Project{
			ID: "p1", Name: "Bike Hub", InitialIdea: "Rent bikes", Locale: "en", Cursor: "PESTEL_ANALYSIS",
		},
		Answers: catalog.Answers{
			catalog.FieldIdeaTitle:          "Spokes",
			catalog.FieldElevatorPitch:      "Bikes on demand.",
			catalog.FieldProblemDescription: "Parking is scarce.",
		},
	}
}

func TestBuild_GroupsInCatalogOrder(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	doc := Build(cat, testSnapshot(), 20, now)
	require.Len(t, doc.Phases, 1)
	assert.Equal(t, 1, doc.Phases[0].Number)

	subs := doc.Phases[0].Subsections
	require.Len(t, subs, 2)
	assert.Equal(t, "IDEA_DEFINITION", subs[0].ID)
	require.Len(t, subs[0].Answers, 2)
	assert.Equal(t, catalog.StageID("IDEA_TITLE"), subs[0].Answers[0].Stage)
	assert.Equal(t, "Idea Title", subs[0].Answers[0].Title)
	assert.Equal(t, "PROBLEM_STATEMENT", subs[1].ID)
}

func TestBuild_Localized(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	snap := testSnapshot()
	snap.Locale = "fa"

	doc := Build(cat, snap, 0, time.Now())
	assert.Equal(t, "عنوان ایده", doc.Phases[0].Subsections[0].Answers[0].Title)
}

func TestRender(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	doc := Build(cat, testSnapshot(), 20, time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))

	md, err := Render(doc, FormatMarkdown)
	require.NoError(t, err)
	text := string(md)
	assert.True(t, strings.HasPrefix(text, "# Bike Hub\n\n> Rent bikes\n"))
	assert.Contains(t, text, "## Phase 1: Core Concept & Validation")
	assert.Contains(t, text, "#### Idea Title\n\nSpokes\n")
	assert.Contains(t, text, "Exported 2026-05-01")

	raw, err := Render(doc, FormatJSON)
	require.NoError(t, err)
	var back Document
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, "Bike Hub", back.Name)
	assert.Len(t, back.Phases[0].Subsections, 2)

	_, err = Render(doc, "pdf")
	assert.ErrorIs(t, err, perrors.ErrInvalidInput)
}

func TestFormat(t *testing.T) {
	f, err := ParseFormat("json")
	require.NoError(t, err)
	assert.Equal(t, access.ExportAdvanced, f.Tier())
	assert.Equal(t, "application/json", f.ContentType())
	assert.Equal(t, access.ExportBasic, FormatMarkdown.Tier())

	_, err = ParseFormat("docx")
	assert.ErrorIs(t, err, perrors.ErrInvalidInput)
}

func TestBuild_EmptyProject(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	snap := testSnapshot()
	snap.Answers = catalog.Answers{}

	doc := Build(cat, snap, 0, time.Now())
	assert.Empty(t, doc.Phases)
	assert.NotNil(t, doc.Phases)
}
