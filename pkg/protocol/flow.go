package protocol

// StepKind distinguishes how a flow step expects its answer.
type StepKind string

const (
	StepYesNo          StepKind = "yes_no"
	StepMultipleChoice StepKind = "multiple_choice"
)

// Branch maps a recognized answer to either the next step or a terminal
// solution. Exactly one of NextStepID and Solution is set.
type Branch struct {
	Answer     string `json:"answer" yaml:"answer"`
	NextStepID string `json:"next_step_id,omitempty" yaml:"next_step_id,omitempty"`
	Solution   string `json:"solution,omitempty" yaml:"solution,omitempty"`
}

// Step is one prompt within a troubleshooting flow.
type Step struct {
	ID       string   `json:"id" yaml:"id"`
	Prompt   string   `json:"prompt" yaml:"prompt"`
	Kind     StepKind `json:"kind" yaml:"kind"`
	Branches []Branch `json:"branches" yaml:"branches"`
}

// FlowDefinition is a static interactive troubleshooting decision tree.
type FlowDefinition struct {
	ID       string         `json:"id" yaml:"id"`
	Title    string         `json:"title" yaml:"title"`
	Category TicketCategory `json:"category" yaml:"category"`
	Triggers []string       `json:"triggers" yaml:"triggers"`
	Steps    []Step         `json:"steps" yaml:"steps"`
}

// FirstStep returns the entry step of the flow.
func (d *FlowDefinition) FirstStep() *Step {
	if len(d.Steps) == 0 {
		return nil
	}
	return &d.Steps[0]
}

// StepByID looks up a step by its identifier.
func (d *FlowDefinition) StepByID(id string) *Step {
	for i := range d.Steps {
		if d.Steps[i].ID == id {
			return &d.Steps[i]
		}
	}
	return nil
}
