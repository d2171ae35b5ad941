package flow

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/deskd-io/deskd/pkg/protocol"
)

// maxRetries is how many unrecognized answers a step tolerates before
// the flow escalates.
const maxRetries = 2

// abandonPhrases end the flow when the user gives up mid-way.
var abandonPhrases = []string{"cancel", "stop", "quit", "never mind", "nevermind", "forget it", "exit"}

var yesAnswers = []string{"yes", "y", "yeah", "yep", "sure", "correct", "it did", "it worked", "worked"}
var noAnswers = []string{"no", "n", "nope", "nah", "didn't", "did not", "it didn't", "still broken", "not working"}

// Engine advances flow state machines. It is stateless; the caller owns
// the per-session FlowState.
type Engine struct {
	registry *Registry
}

func NewEngine(registry *Registry) *Engine {
	return &Engine{registry: registry}
}

// Registry exposes the definitions backing this engine.
func (e *Engine) Registry() *Registry { return e.registry }

// Start initializes flow state at the definition's first step and
// returns the opening prompt.
func (e *Engine) Start(flowID string) (*protocol.FlowState, *protocol.FlowPromptPayload, error) {
	def, ok := e.registry.Get(flowID)
	if !ok {
		return nil, nil, fmt.Errorf("flow: unknown flow %q", flowID)
	}
	step := def.FirstStep()
	state := &protocol.FlowState{FlowID: def.ID, CurrentStepID: step.ID}
	return state, prompt(def, step, false), nil
}

// Advance applies one user answer to the flow state. It returns the next
// prompt (possibly a reprompt of the same step) or a terminal outcome;
// exactly one of the two is non-nil. The state is mutated in place and
// must be discarded by the caller once an outcome is returned.
func (e *Engine) Advance(state *protocol.FlowState, answer string) (*protocol.FlowPromptPayload, *protocol.FlowOutcomePayload, error) {
	def, ok := e.registry.Get(state.FlowID)
	if !ok {
		return nil, nil, fmt.Errorf("flow: unknown flow %q", state.FlowID)
	}
	step := def.StepByID(state.CurrentStepID)
	if step == nil {
		return nil, nil, fmt.Errorf("flow %s: unknown step %q", state.FlowID, state.CurrentStepID)
	}

	normalized := strings.ToLower(strings.TrimSpace(answer))
	if isAbandon(normalized) {
		return nil, &protocol.FlowOutcomePayload{
			FlowID:  def.ID,
			Outcome: protocol.FlowAbandoned,
		}, nil
	}

	branch := matchBranch(step, normalized)
	if branch == nil {
		state.Retries++
		if state.Retries > maxRetries {
			return nil, &protocol.FlowOutcomePayload{
				FlowID:  def.ID,
				Outcome: protocol.FlowEscalated,
			}, nil
		}
		return prompt(def, step, true), nil, nil
	}

	state.Answers = append(state.Answers, branch.Answer)
	state.Retries = 0

	if branch.Solution != "" {
		return nil, &protocol.FlowOutcomePayload{
			FlowID:   def.ID,
			Outcome:  protocol.FlowResolved,
			Solution: branch.Solution,
		}, nil
	}

	next := def.StepByID(branch.NextStepID)
	if next == nil {
		return nil, nil, fmt.Errorf("flow %s: branch %q references unknown step %s", def.ID, branch.Answer, branch.NextStepID)
	}
	state.CurrentStepID = next.ID
	return prompt(def, next, false), nil, nil
}

func prompt(def *protocol.FlowDefinition, step *protocol.Step, reprompt bool) *protocol.FlowPromptPayload {
	p := &protocol.FlowPromptPayload{
		FlowID:   def.ID,
		Title:    def.Title,
		StepID:   step.ID,
		Prompt:   step.Prompt,
		Kind:     step.Kind,
		Reprompt: reprompt,
	}
	if step.Kind == protocol.StepMultipleChoice {
		for _, b := range step.Branches {
			p.Options = append(p.Options, b.Answer)
		}
	}
	return p
}

// matchBranch resolves an answer to a branch. Yes/no steps accept common
// affirmative and negative forms; multiple-choice steps accept the
// option number or a unique text prefix.
func matchBranch(step *protocol.Step, answer string) *protocol.Branch {
	if answer == "" {
		return nil
	}

	switch step.Kind {
	case protocol.StepYesNo:
		var want string
		if containsWord(yesAnswers, answer) {
			want = "yes"
		} else if containsWord(noAnswers, answer) {
			want = "no"
		} else {
			return nil
		}
		for i := range step.Branches {
			if strings.EqualFold(step.Branches[i].Answer, want) {
				return &step.Branches[i]
			}
		}
		return nil

	case protocol.StepMultipleChoice:
		if n, err := strconv.Atoi(answer); err == nil {
			if n >= 1 && n <= len(step.Branches) {
				return &step.Branches[n-1]
			}
			return nil
		}
		var match *protocol.Branch
		for i := range step.Branches {
			option := strings.ToLower(step.Branches[i].Answer)
			if option == answer {
				return &step.Branches[i]
			}
			if strings.HasPrefix(option, answer) || strings.Contains(answer, option) {
				if match != nil {
					return nil // ambiguous
				}
				match = &step.Branches[i]
			}
		}
		return match
	}
	return nil
}

func isAbandon(answer string) bool {
	for _, p := range abandonPhrases {
		if answer == p || strings.HasPrefix(answer, p+" ") {
			return true
		}
	}
	return false
}

func containsWord(options []string, answer string) bool {
	for _, o := range options {
		if answer == o {
			return true
		}
	}
	// Tolerate trailing punctuation and phrases like "yes it worked".
	fields := strings.FieldsFunc(answer, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '!'
	})
	if len(fields) == 0 {
		return false
	}
	for _, o := range options {
		if fields[0] == o {
			return true
		}
	}
	return false
}
