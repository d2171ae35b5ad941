package flow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/deskd-io/deskd/pkg/protocol"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	reg, err := NewRegistry(Builtin()...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return NewEngine(reg)
}

func TestWifiFlowFixedPath(t *testing.T) {
	e := newTestEngine(t)

	state, prompt, err := e.Start("wifi")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if prompt.StepID != "adapter_on" || prompt.Kind != protocol.StepYesNo {
		t.Fatalf("Start: prompt = %+v", prompt)
	}

	// yes -> sees_network, yes -> connect_result, option 2 -> solution.
	prompt, outcome, err := e.Advance(state, "yes")
	if err != nil || outcome != nil {
		t.Fatalf("Advance(yes): prompt=%v outcome=%v err=%v", prompt, outcome, err)
	}
	if prompt.StepID != "sees_network" {
		t.Fatalf("Advance: step = %s, want sees_network", prompt.StepID)
	}

	prompt, outcome, err = e.Advance(state, "yeah")
	if err != nil || outcome != nil {
		t.Fatalf("Advance(yeah): outcome=%v err=%v", outcome, err)
	}
	if prompt.StepID != "connect_result" || prompt.Kind != protocol.StepMultipleChoice {
		t.Fatalf("Advance: prompt = %+v", prompt)
	}
	if len(prompt.Options) != 4 {
		t.Fatalf("Advance: options = %v", prompt.Options)
	}

	prompt, outcome, err = e.Advance(state, "2")
	if err != nil || prompt != nil {
		t.Fatalf("Advance(2): prompt=%v err=%v", prompt, err)
	}
	if outcome.Outcome != protocol.FlowResolved {
		t.Errorf("Advance: outcome = %s, want resolved", outcome.Outcome)
	}
	if outcome.Solution == "" {
		t.Error("Advance: resolved outcome missing solution")
	}
	if len(state.Answers) != 3 {
		t.Errorf("Advance: answers = %v, want 3 recorded", state.Answers)
	}
}

func TestFlowRepromptThenEscalate(t *testing.T) {
	e := newTestEngine(t)
	state, _, err := e.Start("printer")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	for i := 0; i < maxRetries; i++ {
		prompt, outcome, err := e.Advance(state, "banana")
		if err != nil || outcome != nil {
			t.Fatalf("Advance: outcome=%v err=%v", outcome, err)
		}
		if !prompt.Reprompt || prompt.StepID != "powered_on" {
			t.Fatalf("Advance: prompt = %+v, want reprompt of same step", prompt)
		}
	}

	_, outcome, err := e.Advance(state, "banana")
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if outcome == nil || outcome.Outcome != protocol.FlowEscalated {
		t.Errorf("Advance: outcome = %+v, want escalated", outcome)
	}
}

func TestFlowRetriesResetOnValidAnswer(t *testing.T) {
	e := newTestEngine(t)
	state, _, _ := e.Start("printer")

	if _, _, err := e.Advance(state, "???"); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if _, _, err := e.Advance(state, "yes"); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if state.Retries != 0 {
		t.Errorf("Advance: retries = %d, want 0 after valid answer", state.Retries)
	}
}

func TestFlowAbandon(t *testing.T) {
	e := newTestEngine(t)
	state, _, _ := e.Start("email")

	_, outcome, err := e.Advance(state, "never mind")
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if outcome == nil || outcome.Outcome != protocol.FlowAbandoned {
		t.Errorf("Advance: outcome = %+v, want abandoned", outcome)
	}
}

func TestMultipleChoiceByText(t *testing.T) {
	e := newTestEngine(t)
	state, _, _ := e.Start("email")

	if _, _, err := e.Advance(state, "yes"); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	_, outcome, err := e.Advance(state, "cannot send mail")
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if outcome == nil || outcome.Outcome != protocol.FlowResolved {
		t.Errorf("Advance: outcome = %+v, want resolved", outcome)
	}
}

func TestMultipleChoiceOutOfRange(t *testing.T) {
	e := newTestEngine(t)
	state, _, _ := e.Start("wifi")
	e.Advance(state, "yes")
	e.Advance(state, "yes")

	prompt, outcome, err := e.Advance(state, "9")
	if err != nil || outcome != nil {
		t.Fatalf("Advance: outcome=%v err=%v", outcome, err)
	}
	if !prompt.Reprompt {
		t.Errorf("Advance: prompt = %+v, want reprompt for out-of-range option", prompt)
	}
}

func TestRegistryMatch(t *testing.T) {
	reg, err := NewRegistry(Builtin()...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	if d := reg.Match("my WIFI keeps dropping since yesterday"); d == nil || d.ID != "wifi" {
		t.Errorf("Match: got %v, want wifi", d)
	}
	if d := reg.Match("can you troubleshoot outlook for me"); d == nil || d.ID != "email" {
		t.Errorf("Match: got %v, want email", d)
	}
	if d := reg.Match("my badge reader is broken"); d != nil {
		t.Errorf("Match: got %s, want no match", d.ID)
	}
}

func TestRegistryRejectsDanglingBranch(t *testing.T) {
	_, err := NewRegistry(protocol.FlowDefinition{
		ID:    "bad",
		Title: "Bad",
		Steps: []protocol.Step{{
			ID: "s1", Prompt: "?", Kind: protocol.StepYesNo,
			Branches: []protocol.Branch{{Answer: "yes", NextStepID: "missing"}},
		}},
	})
	if err == nil {
		t.Fatal("NewRegistry: expected error for dangling branch target")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	pack := `flows:
  - id: vpn
    title: VPN Troubleshooting
    category: Network
    triggers: ["troubleshoot vpn"]
    steps:
      - id: client_open
        prompt: Does the VPN client open?
        kind: yes_no
        branches:
          - answer: "yes"
            solution: Try a different server location.
          - answer: "no"
            solution: Reinstall the VPN client from the software portal.
`
	if err := os.WriteFile(filepath.Join(dir, "vpn.yaml"), []byte(pack), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	flows, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(flows) != 1 || flows[0].ID != "vpn" {
		t.Fatalf("LoadDir: got %+v", flows)
	}
	if flows[0].Steps[0].Kind != protocol.StepYesNo {
		t.Errorf("LoadDir: kind = %s", flows[0].Steps[0].Kind)
	}
}
