// Package export renders a project's answers as a document, grouped by phase and subsection.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/access"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/catalog"
	perrors "github.com/Ali-xra/ai-startup-mentor-sub000/internal/errors"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/project"
)

// Format is an export rendering.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatMarkdown, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q: %w", s, perrors.ErrInvalidInput)
}

// Tier is the export tier a format requires.
func (f Format) Tier() access.ExportTier {
	if f == FormatJSON {
		return access.ExportAdvanced
	}
	return access.ExportBasic
}

// ContentType is the HTTP content type of the rendering.
func (f Format) ContentType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "text/markdown; charset=utf-8"
}

// Document is the export of one project.
type Document struct {
	ProjectID   string    `json:"project_id"`
	Name        string    `json:"name"`
	InitialIdea string    `json:"initial_idea,omitempty"`
	Locale      string    `json:"locale"`
	Cursor      string    `json:"cursor"`
	Progress    float64   `json:"progress"`
	GeneratedAt time.Time `json:"generated_at"`
	Phases      []Phase   `json:"phases"`
}

// Phase groups the answered subsections of a catalog phase.
type Phase struct {
	Number      int          `json:"number"`
	Title       string       `json:"title"`
	Subsections []Subsection `json:"subsections"`
}

// Subsection groups answered stages.
type Subsection struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Answers []Answer `json:"answers"`
}

// Answer is one stage's stored answer.
type Answer struct {
	Stage catalog.StageID  `json:"stage"`
	Field catalog.FieldKey `json:"field"`
	Title string           `json:"title"`
	Text  string           `json:"text"`
}

// Build collects the answered stages of snap in catalog order. Phases and subsections
// without answers are left out.
func Build(cat *catalog.Catalog, snap *project.Snapshot, progress float64, now time.Time) *Document {
	doc := &Document{
		ProjectID:   snap.ID,
		Name:        snap.Name,
		InitialIdea: snap.InitialIdea,
		Locale:      snap.Locale,
		Cursor:      string(snap.Cursor),
		Progress:    progress,
		GeneratedAt: now.UTC(),
		Phases:      []Phase{},
	}

	for _, p := range cat.Phases() {
		phase := Phase{Number: p.Number, Title: p.Title.In(snap.Locale)}
		for _, sub := range p.Subsections {
			section := Subsection{ID: sub.ID, Title: sub.Title.In(snap.Locale)}
			for _, st := range sub.Stages {
				if st.DataKey == "" || !snap.Answers.Has(st.DataKey) {
					continue
				}
				section.Answers = append(section.Answers, Answer{
					Stage: st.ID,
					Field: st.DataKey,
					Title: st.Title.In(snap.Locale),
					Text:  snap.Answers[st.DataKey],
				})
			}
			if len(section.Answers) > 0 {
				phase.Subsections = append(phase.Subsections, section)
			}
		}
		if len(phase.Subsections) > 0 {
			doc.Phases = append(doc.Phases, phase)
		}
	}
	return doc
}

// Render writes doc in format.
func Render(doc *Document, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case FormatMarkdown:
		return Markdown(doc), nil
	default:
		return nil, fmt.Errorf("unknown export format %q: %w", format, perrors.ErrInvalidInput)
	}
}

// Markdown renders doc as a markdown business plan.
func Markdown(doc *Document) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# %s\n\n", doc.Name)
	if doc.InitialIdea != "" {
		fmt.Fprintf(&b, "> %s\n\n", doc.InitialIdea)
	}
	fmt.Fprintf(&b, "_Progress: %.0f%% · Exported %s_\n", doc.Progress, doc.GeneratedAt.Format("2006-01-02"))

	for _, p := range doc.Phases {
		fmt.Fprintf(&b, "\n## Phase %d: %s\n", p.Number, p.Title)
		for _, sub := range p.Subsections {
			fmt.Fprintf(&b, "\n### %s\n", sub.Title)
			for _, a := range sub.Answers {
				fmt.Fprintf(&b, "\n#### %s\n\n%s\n", a.Title, a.Text)
			}
		}
	}
	return b.Bytes()
}
