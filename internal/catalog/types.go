// Package catalog holds the ordered stage definitions of the guided workflow.
// A Catalog is built once at startup and never mutated; engines receive it by reference.
package catalog

import "strings"

// StageID identifies a stage. Complete is the terminal marker that follows the last stage.
type StageID string

// Complete is the cursor value once every stage has been passed.
const Complete StageID = "COMPLETE"

// FieldKey names an answer field. The set of valid keys is closed; see AllFields.
type FieldKey string

// OutputType describes the shape of a stage's answer.
type OutputType string

const (
	OutputText     OutputType = "text"
	OutputList     OutputType = "list"
	OutputAnalysis OutputType = "analysis"
)

// Locale codes with bundled stage text.
const (
	LocaleEnglish = "en"
	LocalePersian = "fa"
)

// Reserved template context names that are not answer fields.
const (
	ContextInitialIdea = "initialIdea"
	ContextUserInput   = "userInput"
	ContextProjectName = "projectName"
)

// Text is a bilingual string.
type Text struct {
	EN string `yaml:"en" json:"en"`
	FA string `yaml:"fa,omitempty" json:"fa,omitempty"`
}

// In returns the text for locale, falling back to English.
func (t Text) In(locale string) string {
	if strings.HasPrefix(strings.ToLower(locale), LocalePersian) && t.FA != "" {
		return t.FA
	}
	return t.EN
}

// IsZero reports whether no text is set.
func (t Text) IsZero() bool {
	return t.EN == "" && t.FA == ""
}

// Constraints are optional output constraints declared by a template.
type Constraints struct {
	Tone       string `yaml:"tone,omitempty"`
	Complexity string `yaml:"complexity,omitempty"`
	Length     string `yaml:"length,omitempty"`
	MaxWords   int    `yaml:"max_words,omitempty" validate:"gte=0"`
	Count      int    `yaml:"count,omitempty" validate:"gte=0"`
}

// Settings are generation parameters. Zero fields take the defaults.
type Settings struct {
	Temperature     float32 `yaml:"temperature,omitempty" validate:"gte=0,lte=2"`
	TopK            float32 `yaml:"top_k,omitempty" validate:"gte=0"`
	TopP            float32 `yaml:"top_p,omitempty" validate:"gte=0,lte=1"`
	MaxOutputTokens int32   `yaml:"max_output_tokens,omitempty" validate:"gte=0"`
}

// Template is the declarative prompt for a stage.
type Template struct {
	Role         string       `yaml:"role" validate:"required"`
	ContextKeys  []string     `yaml:"context_keys"`
	Goal         string       `yaml:"goal"`
	OutputFormat string       `yaml:"output_format"`
	Constraints  *Constraints `yaml:"constraints,omitempty"`
	Prompt       string       `yaml:"prompt" validate:"required"`
	WebSearch    bool         `yaml:"web_search,omitempty"`
	Settings     *Settings    `yaml:"settings,omitempty"`
}

// Stage is one step of the workflow.
type Stage struct {
	ID            StageID    `yaml:"id" validate:"required"`
	Title         Text       `yaml:"title"`
	Guidance      Text       `yaml:"guidance,omitempty"`
	Question      Text       `yaml:"question,omitempty"`
	InputRequired bool       `yaml:"input_required"`
	OutputType    OutputType `yaml:"output_type" validate:"omitempty,oneof=text list analysis"`
	DataKey       FieldKey   `yaml:"data_key,omitempty"`
	Summary       bool       `yaml:"summary,omitempty"`
	AutoGenerated bool       `yaml:"auto_generated,omitempty"`
	Template      *Template  `yaml:"template,omitempty"`

	// Filled in when the catalog is built.
	Order      int    `yaml:"-"`
	Phase      int    `yaml:"-"`
	Subsection string `yaml:"-"`
}

// Subsection groups stages for display.
type Subsection struct {
	ID     string   `yaml:"id" validate:"required"`
	Title  Text     `yaml:"title"`
	Stages []*Stage `yaml:"stages" validate:"dive"`
}

// Phase is a top-level group of subsections.
type Phase struct {
	ID          string        `yaml:"id" validate:"required"`
	Number      int           `yaml:"number" validate:"gte=1"`
	Title       Text          `yaml:"title"`
	Description Text          `yaml:"description,omitempty"`
	Subsections []*Subsection `yaml:"subsections" validate:"dive"`
}

// Answers is the sparse answer set of a project.
type Answers map[FieldKey]string

// Has reports whether k holds a non-empty answer.
func (a Answers) Has(k FieldKey) bool {
	return a[k] != ""
}

// Clone returns a copy of a. A nil set clones to an empty one.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
