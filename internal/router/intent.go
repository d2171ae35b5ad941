package router

import (
	"regexp"
	"strings"
)

// Intent is the routing decision for one sub-query.
type Intent string

const (
	IntentKnowledge    Intent = "knowledge"
	IntentFlowStart    Intent = "flow_start"
	IntentTicketCreate Intent = "ticket_create"
	IntentTicketStatus Intent = "ticket_status"
	IntentTicketList   Intent = "ticket_list"
	IntentStats        Intent = "stats"
	IntentSoftware     Intent = "software"
)

var ticketIDRe = regexp.MustCompile(`(?i)\binc\d{8,}\b`)

var createPhrases = []string{
	"create a ticket", "open a ticket", "raise a ticket", "submit a ticket",
	"file a ticket", "log a ticket", "create ticket", "open ticket",
	"new ticket", "report this", "report an issue",
}

var listPhrases = []string{
	"my tickets", "list tickets", "show tickets", "all my tickets",
	"open tickets",
}

var statusPhrases = []string{
	"ticket status", "status of my ticket", "status of the ticket",
	"check my ticket", "update on my ticket",
}

var statsPhrases = []string{
	"helpdesk stats", "support stats", "ticket statistics", "show stats",
	"system stats", "how many tickets",
}

var softwarePhrases = []string{
	"what version", "which version", "latest version", "current version",
	"version of",
}

// Detect classifies a sub-query into a routing intent. flowMatch reports
// whether a registered flow trigger is present; the caller supplies it so
// intent detection stays free of flow-registry plumbing.
func Detect(subQuery string, flowMatch bool) Intent {
	lower := strings.ToLower(subQuery)

	switch {
	case ticketIDRe.MatchString(lower):
		return IntentTicketStatus
	case containsAny(lower, statusPhrases):
		return IntentTicketStatus
	case containsAny(lower, listPhrases):
		return IntentTicketList
	case containsAny(lower, createPhrases):
		return IntentTicketCreate
	case containsAny(lower, statsPhrases):
		return IntentStats
	case containsAny(lower, softwarePhrases):
		return IntentSoftware
	case flowMatch:
		return IntentFlowStart
	default:
		return IntentKnowledge
	}
}

// TicketID extracts the first ticket reference from the text, or "".
func TicketID(text string) string {
	return strings.ToUpper(ticketIDRe.FindString(text))
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
