package catalog

import (
	_ "embed"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed stages.yaml
var defaultStages []byte

var validate = validator.New()

// Catalog is the immutable, ordered set of stages.
type Catalog struct {
	phases      []*Phase
	stages      []*Stage
	byID        map[StageID]*Stage
	byKey       map[FieldKey]*Stage
	subsections map[string]*Subsection
}

type document struct {
	Phases []*Phase `yaml:"phases" validate:"required,min=1,dive"`
}

// Default returns the bundled catalog.
func Default() (*Catalog, error) {
	return Parse(defaultStages)
}

// Parse builds a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	if err := validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("catalog: invalid: %w", err)
	}
	return New(doc.Phases)
}

// New builds a catalog from phases in the given order. Stage ordinals follow declaration order.
func New(phases []*Phase) (*Catalog, error) {
	c := &Catalog{
		phases:      phases,
		byID:        make(map[StageID]*Stage),
		byKey:       make(map[FieldKey]*Stage),
		subsections: make(map[string]*Subsection),
	}

	for _, p := range phases {
		for _, sub := range p.Subsections {
			if _, dup := c.subsections[sub.ID]; dup {
				return nil, fmt.Errorf("catalog: duplicate subsection %q", sub.ID)
			}
			c.subsections[sub.ID] = sub

			for _, st := range sub.Stages {
				if err := c.add(p, sub, st); err != nil {
					return nil, err
				}
			}
		}
	}

	if len(c.stages) == 0 {
		return nil, fmt.Errorf("catalog: no stages")
	}
	return c, nil
}

func (c *Catalog) add(p *Phase, sub *Subsection, st *Stage) error {
	if st.ID == "" || st.ID == Complete {
		return fmt.Errorf("catalog: invalid stage id %q", st.ID)
	}
	if _, dup := c.byID[st.ID]; dup {
		return fmt.Errorf("catalog: duplicate stage %q", st.ID)
	}
	if st.AutoGenerated && st.Summary {
		return fmt.Errorf("catalog: stage %s is both auto-generated and a summary", st.ID)
	}
	if st.DataKey != "" {
		if !st.DataKey.Known() {
			return fmt.Errorf("catalog: stage %s has unknown data key %q", st.ID, st.DataKey)
		}
		if other, dup := c.byKey[st.DataKey]; dup {
			return fmt.Errorf("catalog: data key %q owned by both %s and %s", st.DataKey, other.ID, st.ID)
		}
		c.byKey[st.DataKey] = st
	}

	if st.Template != nil {
		for _, k := range st.Template.ContextKeys {
			switch k {
			case ContextInitialIdea, ContextUserInput, ContextProjectName:
			default:
				if !FieldKey(k).Known() {
					return fmt.Errorf("catalog: stage %s references unknown context key %q", st.ID, k)
				}
			}
		}
	}

	st.Order = len(c.stages)
	st.Phase = p.Number
	st.Subsection = sub.ID
	c.stages = append(c.stages, st)
	c.byID[st.ID] = st
	return nil
}

// Len returns the number of stages, excluding Complete.
func (c *Catalog) Len() int {
	return len(c.stages)
}

// Positions returns the number of cursor positions: every stage plus Complete.
func (c *Catalog) Positions() int {
	return len(c.stages) + 1
}

// First returns the initial cursor.
func (c *Catalog) First() StageID {
	return c.stages[0].ID
}

// Stages returns the stages in order. The slice must not be modified.
func (c *Catalog) Stages() []*Stage {
	return c.stages
}

// Phases returns the phases in order.
func (c *Catalog) Phases() []*Phase {
	return c.phases
}

// Stage looks up a stage by ID. Complete is not a stage.
func (c *Catalog) Stage(id StageID) (*Stage, bool) {
	st, ok := c.byID[id]
	return st, ok
}

// Owner returns the stage that writes field k.
func (c *Catalog) Owner(k FieldKey) (*Stage, bool) {
	st, ok := c.byKey[k]
	return st, ok
}

// Subsection looks up a subsection by ID.
func (c *Catalog) Subsection(id string) (*Subsection, bool) {
	sub, ok := c.subsections[id]
	return sub, ok
}

// Ordinal returns the position of id. Complete sorts after every stage.
func (c *Catalog) Ordinal(id StageID) (int, bool) {
	if id == Complete {
		return len(c.stages), true
	}
	st, ok := c.byID[id]
	if !ok {
		return 0, false
	}
	return st.Order, true
}

// Valid reports whether id is a stage or Complete.
func (c *Catalog) Valid(id StageID) bool {
	_, ok := c.Ordinal(id)
	return ok
}

// Next returns the stage after id, or Complete when id is the last stage or Complete.
func (c *Catalog) Next(id StageID) StageID {
	ord, ok := c.Ordinal(id)
	if !ok || ord+1 >= len(c.stages) {
		return Complete
	}
	return c.stages[ord+1].ID
}

// MaxPhase returns the highest phase number.
func (c *Catalog) MaxPhase() int {
	n := 0
	for _, p := range c.phases {
		if p.Number > n {
			n = p.Number
		}
	}
	return n
}

// PhaseOf returns the phase number of id. Complete belongs to no phase.
func (c *Catalog) PhaseOf(id StageID) int {
	if st, ok := c.byID[id]; ok {
		return st.Phase
	}
	return 0
}
