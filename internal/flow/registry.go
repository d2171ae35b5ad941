// Package flow runs interactive troubleshooting decision trees: static
// step graphs where each user answer selects the next step or a terminal
// solution.
package flow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/deskd-io/deskd/pkg/protocol"
)

// Registry holds the available flow definitions and matches incoming
// text against their trigger phrases.
type Registry struct {
	flows map[string]*protocol.FlowDefinition
	order []string // IDs in registration order for deterministic matching
}

func NewRegistry(defs ...protocol.FlowDefinition) (*Registry, error) {
	r := &Registry{flows: make(map[string]*protocol.FlowDefinition)}
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register validates a definition and adds it. Registering an existing
// ID replaces the previous definition.
func (r *Registry) Register(def protocol.FlowDefinition) error {
	if err := validate(&def); err != nil {
		return err
	}
	if _, exists := r.flows[def.ID]; !exists {
		r.order = append(r.order, def.ID)
	}
	d := def
	r.flows[def.ID] = &d
	return nil
}

// Get returns a flow definition by ID.
func (r *Registry) Get(id string) (*protocol.FlowDefinition, bool) {
	d, ok := r.flows[id]
	return d, ok
}

// List returns all definitions sorted by ID.
func (r *Registry) List() []*protocol.FlowDefinition {
	out := make([]*protocol.FlowDefinition, 0, len(r.flows))
	for _, d := range r.flows {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Match returns the first registered flow with a trigger phrase found in
// the text, or nil when none match.
func (r *Registry) Match(text string) *protocol.FlowDefinition {
	lower := strings.ToLower(text)
	for _, id := range r.order {
		d := r.flows[id]
		for _, trigger := range d.Triggers {
			if strings.Contains(lower, trigger) {
				return d
			}
		}
	}
	return nil
}

// validate rejects definitions whose branch targets dangle or whose
// terminal branches carry no solution.
func validate(def *protocol.FlowDefinition) error {
	if def.ID == "" {
		return fmt.Errorf("flow: definition missing id")
	}
	if len(def.Steps) == 0 {
		return fmt.Errorf("flow %s: no steps", def.ID)
	}
	for _, step := range def.Steps {
		if len(step.Branches) == 0 {
			return fmt.Errorf("flow %s: step %s has no branches", def.ID, step.ID)
		}
		for _, b := range step.Branches {
			if b.NextStepID == "" && b.Solution == "" {
				return fmt.Errorf("flow %s: step %s branch %q has neither next step nor solution", def.ID, step.ID, b.Answer)
			}
			if b.NextStepID != "" && def.StepByID(b.NextStepID) == nil {
				return fmt.Errorf("flow %s: step %s branch %q references unknown step %s", def.ID, step.ID, b.Answer, b.NextStepID)
			}
		}
	}
	return nil
}
