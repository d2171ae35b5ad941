package compose

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/deskd-io/deskd/pkg/protocol"
)

func TestRenderDeterministic(t *testing.T) {
	c := NewTemplate()
	bundle := &protocol.Bundle{
		SessionID: "s1",
		Results: []protocol.SubResult{{
			SubQuery: "wifi slow",
			Kind:     protocol.KindAnswer,
			Answer: &protocol.AnswerPayload{Citations: []protocol.Citation{
				{ArticleID: "kb004", Title: "Wi-Fi Connection and Speed Issues", Snippet: "Check signal strength"},
				{ArticleID: "faq005", Title: "Wi-Fi is slow or not working", Category: protocol.CategoryNetwork},
			}},
		}},
	}

	first, err := c.Render(context.Background(), bundle)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	second, _ := c.Render(context.Background(), bundle)
	if first != second {
		t.Error("Render: output differs between identical renders")
	}
	if !strings.Contains(first, "Here's what I found - Wi-Fi Connection and Speed Issues:") {
		t.Errorf("Render: missing top citation lead-in:\n%s", first)
	}
	if !strings.Contains(first, "Related articles") {
		t.Errorf("Render: missing related list:\n%s", first)
	}
}

func TestRenderMultiResultLabelsSubQueries(t *testing.T) {
	c := NewTemplate()
	bundle := &protocol.Bundle{
		Results: []protocol.SubResult{
			{SubQuery: "reset my password", Kind: protocol.KindAnswer,
				Answer: &protocol.AnswerPayload{Citations: []protocol.Citation{{Title: "Password Reset Guide"}}}},
			{SubQuery: "vpn down", Kind: protocol.KindFallback,
				Fallback: &protocol.FallbackPayload{Query: "vpn down"}},
		},
	}

	out, err := c.Render(context.Background(), bundle)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, `Regarding "reset my password"`) || !strings.Contains(out, `Regarding "vpn down"`) {
		t.Errorf("Render: sub-query labels missing:\n%s", out)
	}
}

func TestRenderFlowPrompt(t *testing.T) {
	c := NewTemplate()
	bundle := &protocol.Bundle{Results: []protocol.SubResult{{
		Kind: protocol.KindFlowPrompt,
		FlowPrompt: &protocol.FlowPromptPayload{
			Prompt:   "What happens when you try to connect?",
			Kind:     protocol.StepMultipleChoice,
			Options:  []string{"wrong password error", "connects but no internet"},
			Reprompt: true,
		},
	}}}

	out, _ := c.Render(context.Background(), bundle)
	if !strings.HasPrefix(out, "Sorry, I didn't catch that.") {
		t.Errorf("Render: reprompt prefix missing:\n%s", out)
	}
	if !strings.Contains(out, "1. wrong password error") || !strings.Contains(out, "2. connects but no internet") {
		t.Errorf("Render: numbered options missing:\n%s", out)
	}
}

func TestRenderTicketCreated(t *testing.T) {
	c := NewTemplate()
	eta := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	bundle := &protocol.Bundle{Results: []protocol.SubResult{{
		Kind: protocol.KindTicketCreated,
		Ticket: &protocol.TicketPayload{Ticket: &protocol.Ticket{
			ID: "INC202603140001", Priority: protocol.PriorityHigh,
			Category: protocol.CategoryHardware, Assignee: "Mike Rodriguez",
			Status: protocol.TicketOpen, EstimatedResolution: eta,
		}, StatusDescription: protocol.StatusDescription(protocol.TicketOpen)},
	}}}

	out, _ := c.Render(context.Background(), bundle)
	for _, want := range []string{"INC202603140001", "High", "Hardware", "Mike Rodriguez"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render: missing %q:\n%s", want, out)
		}
	}
}

func TestRenderEscalatedOutcome(t *testing.T) {
	c := NewTemplate()
	bundle := &protocol.Bundle{Results: []protocol.SubResult{{
		Kind: protocol.KindFlowOutcome,
		FlowOutcome: &protocol.FlowOutcomePayload{
			FlowID: "printer", Outcome: protocol.FlowEscalated, TicketID: "INC202603140002",
		},
	}}}

	out, _ := c.Render(context.Background(), bundle)
	if !strings.Contains(out, "INC202603140002") {
		t.Errorf("Render: escalation ticket not mentioned:\n%s", out)
	}
}

func TestRenderEmptyBundle(t *testing.T) {
	c := NewTemplate()
	out, err := c.Render(context.Background(), &protocol.Bundle{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out == "" {
		t.Error("Render: empty output for empty bundle")
	}
}
