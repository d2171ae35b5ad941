package compose

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/deskd-io/deskd/pkg/protocol"
)

// TemplateComposer renders bundles with fixed templates. It is the
// default and the fallback when an LLM composer is configured but
// unavailable; given the same bundle it always produces the same text.
type TemplateComposer struct{}

func NewTemplate() *TemplateComposer { return &TemplateComposer{} }

func (c *TemplateComposer) Render(_ context.Context, bundle *protocol.Bundle) (string, error) {
	if len(bundle.Results) == 0 {
		return "I'm not sure how to help with that. Could you describe the problem?", nil
	}

	parts := make([]string, 0, len(bundle.Results))
	for _, res := range bundle.Results {
		parts = append(parts, renderResult(res, len(bundle.Results) > 1))
	}
	return strings.Join(parts, "\n\n"), nil
}

func renderResult(res protocol.SubResult, multi bool) string {
	var b strings.Builder
	if multi {
		fmt.Fprintf(&b, "Regarding %q:\n", res.SubQuery)
	}

	switch res.Kind {
	case protocol.KindAnswer:
		renderAnswer(&b, res.Answer)
	case protocol.KindFallback:
		renderFallback(&b, res.Fallback)
	case protocol.KindFollowup:
		renderFollowup(&b, res.Followup)
	case protocol.KindFlowPrompt:
		renderFlowPrompt(&b, res.FlowPrompt)
	case protocol.KindFlowOutcome:
		renderFlowOutcome(&b, res.FlowOutcome)
	case protocol.KindTicketCreated:
		renderTicketCreated(&b, res.Ticket)
	case protocol.KindTicketConfirm:
		renderTicketConfirm(&b, res.Ticket)
	case protocol.KindTicketStatus:
		renderTicketStatus(&b, res.Ticket)
	case protocol.KindTicketList:
		renderTicketList(&b, res.TicketList)
	case protocol.KindStats:
		renderStats(&b, res.Stats)
	case protocol.KindSoftware:
		renderSoftware(&b, res.Software)
	default:
		b.WriteString("I couldn't work out what you need there.")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderAnswer(b *strings.Builder, p *protocol.AnswerPayload) {
	if p == nil || len(p.Citations) == 0 {
		b.WriteString("I looked into that but found nothing useful in the knowledge base.")
		return
	}
	top := p.Citations[0]
	fmt.Fprintf(b, "Here's what I found - %s:\n%s\n", top.Title, top.Snippet)
	if len(p.Citations) > 1 {
		b.WriteString("\nRelated articles:\n")
		for _, c := range p.Citations[1:] {
			fmt.Fprintf(b, "  - %s (%s)\n", c.Title, c.Category)
		}
	}
}

func renderFallback(b *strings.Builder, p *protocol.FallbackPayload) {
	b.WriteString("I couldn't find anything in the knowledge base for that.")
	if p != nil && len(p.Suggestions) > 0 {
		b.WriteString(" Common questions I can help with:\n")
		for _, s := range p.Suggestions {
			fmt.Fprintf(b, "  - %s\n", s.Title)
		}
	}
	b.WriteString("You can also ask me to open a ticket so a technician takes a look.")
}

func renderFollowup(b *strings.Builder, p *protocol.FollowupPayload) {
	switch {
	case p == nil:
		b.WriteString("Could you tell me a bit more about what's still not working?")
	case len(p.Alternatives) > 0:
		b.WriteString("Sorry that didn't solve it. A few other things to try:\n")
		for _, a := range p.Alternatives {
			fmt.Fprintf(b, "  - %s: %s\n", a.Title, a.Snippet)
		}
		if p.SuggestTicket {
			b.WriteString("If none of these help, I can open a ticket for you.\n")
		}
	case p.SuggestTicket:
		fmt.Fprintf(b, "I'm out of suggestions for %q. Shall I open a ticket so a technician can take over?", p.Topic)
	default:
		b.WriteString("Could you describe what happened when you tried that?")
	}
}

func renderFlowPrompt(b *strings.Builder, p *protocol.FlowPromptPayload) {
	if p.Reprompt {
		b.WriteString("Sorry, I didn't catch that. ")
	}
	b.WriteString(p.Prompt)
	if len(p.Options) > 0 {
		b.WriteString("\n")
		for i, o := range p.Options {
			fmt.Fprintf(b, "  %d. %s\n", i+1, o)
		}
		b.WriteString("Reply with the number or the option text.")
	} else if p.Kind == protocol.StepYesNo {
		b.WriteString(" (yes/no)")
	}
}

func renderFlowOutcome(b *strings.Builder, p *protocol.FlowOutcomePayload) {
	switch p.Outcome {
	case protocol.FlowResolved:
		fmt.Fprintf(b, "%s\n\nLet me know if that sorted it out.", p.Solution)
	case protocol.FlowEscalated:
		b.WriteString("We've run out of steps I can walk you through.")
		if p.TicketID != "" {
			fmt.Fprintf(b, " I've opened ticket %s so a technician can pick this up.", p.TicketID)
		}
	case protocol.FlowAbandoned:
		b.WriteString("No problem, I've stopped the troubleshooting. Ask me anytime to pick it back up.")
	}
}

func renderTicketCreated(b *strings.Builder, p *protocol.TicketPayload) {
	t := p.Ticket
	fmt.Fprintf(b, "I've created ticket %s for you.\n", t.ID)
	fmt.Fprintf(b, "  Priority: %s\n  Category: %s\n  Assigned to: %s\n", t.Priority, t.Category, t.Assignee)
	fmt.Fprintf(b, "  Estimated resolution by: %s\n", t.EstimatedResolution.Format(time.RFC1123))
}

func renderTicketConfirm(b *strings.Builder, p *protocol.TicketPayload) {
	t := p.Ticket
	if t.Description == "" {
		b.WriteString("I can open a ticket for you - what should I put in the description?")
		return
	}
	fmt.Fprintf(b, "Shall I open a %s priority %s ticket for %q? Say yes to confirm.",
		t.Priority, t.Category, t.Description)
}

func renderTicketStatus(b *strings.Builder, p *protocol.TicketPayload) {
	t := p.Ticket
	fmt.Fprintf(b, "Ticket %s is %s.\n%s\n", t.ID, t.Status, p.StatusDescription)
	if t.Assignee != "" {
		fmt.Fprintf(b, "Assigned to: %s\n", t.Assignee)
	}
	if p.Overdue {
		b.WriteString("This ticket is past its estimated resolution time; it has been flagged for review.\n")
	} else if !t.Status.Terminal() {
		fmt.Fprintf(b, "Estimated resolution by: %s\n", t.EstimatedResolution.Format(time.RFC1123))
	}
}

func renderTicketList(b *strings.Builder, p *protocol.TicketListPayload) {
	if len(p.Tickets) == 0 {
		b.WriteString("You have no tickets on file in this session.")
		return
	}
	fmt.Fprintf(b, "You have %d ticket(s):\n", len(p.Tickets))
	for _, t := range p.Tickets {
		fmt.Fprintf(b, "  %s - %s (%s, %s)\n", t.ID, t.Description, t.Status, t.Priority)
	}
}

func renderStats(b *strings.Builder, p *protocol.StatsPayload) {
	fmt.Fprintf(b, "Helpdesk overview: %d ticket(s), %d active session(s).\n",
		p.Tickets.Total, p.Sessions.Total)
	if len(p.Tickets.ByStatus) > 0 {
		b.WriteString("Tickets by status:\n")
		for _, status := range []protocol.TicketStatus{
			protocol.TicketOpen, protocol.TicketAssigned, protocol.TicketInProgress,
			protocol.TicketResolved, protocol.TicketClosed,
		} {
			if n := p.Tickets.ByStatus[status]; n > 0 {
				fmt.Fprintf(b, "  %s: %d\n", status, n)
			}
		}
	}
}

func renderSoftware(b *strings.Builder, p *protocol.SoftwarePayload) {
	fmt.Fprintf(b, "The supported version of %s is %s.", p.Name, p.Version)
	if p.InstallerURL != "" {
		fmt.Fprintf(b, " You can install it from %s.", p.InstallerURL)
	}
}
