package ticket

import (
	"strings"

	"github.com/deskd-io/deskd/pkg/protocol"
)

// Classification is the result of analyzing a problem description.
type Classification struct {
	Category   protocol.TicketCategory
	Priority   protocol.TicketPriority
	Confidence float64
}

// categoryKeywords maps each category to the phrases that indicate it.
// Categories are checked in a fixed order and scored by match count, so
// classification is deterministic for a given description.
var categoryOrder = []protocol.TicketCategory{
	protocol.CategoryNetwork,
	protocol.CategoryHardware,
	protocol.CategorySoftware,
	protocol.CategoryEmail,
	protocol.CategorySecurity,
	protocol.CategoryAccount,
	protocol.CategoryPerformance,
}

var categoryKeywords = map[protocol.TicketCategory][]string{
	protocol.CategoryNetwork: {
		"wifi", "wi-fi", "internet", "network", "vpn", "connection",
		"server", "ethernet", "dns", "router",
	},
	protocol.CategoryHardware: {
		"printer", "laptop", "computer", "monitor", "keyboard", "mouse",
		"screen", "battery", "charger", "docking",
	},
	protocol.CategorySoftware: {
		"software", "install", "application", "app", "program", "update",
		"license", "crash", "excel", "word",
	},
	protocol.CategoryEmail: {
		"email", "outlook", "mailbox", "exchange", "calendar",
		"attachment",
	},
	protocol.CategorySecurity: {
		"security", "virus", "malware", "phishing", "suspicious", "breach",
		"2fa", "authentication",
	},
	protocol.CategoryAccount: {
		"password", "login", "account", "locked", "access", "credentials",
		"sign in", "signin",
	},
	protocol.CategoryPerformance: {
		"slow", "freezing", "lag", "performance", "hanging", "unresponsive",
	},
}

// priorityRules are evaluated top to bottom and the first match wins.
// Indicators of broad or total outage rank above individual blockers.
var priorityRules = []struct {
	priority protocol.TicketPriority
	phrases  []string
}{
	{protocol.PriorityCritical, []string{
		"server is down", "server down", "outage", "entire team",
		"everyone", "company-wide", "all users", "can't work",
		"cannot work", "production down", "data loss", "security breach",
	}},
	{protocol.PriorityUrgent, []string{
		"urgent", "asap", "immediately", "emergency", "deadline",
		"meeting in", "presentation", "blocked completely",
	}},
	{protocol.PriorityHigh, []string{
		"can't access", "cannot access", "not working", "broken",
		"locked out", "unable to", "stopped working", "critical file",
	}},
	{protocol.PriorityLow, []string{
		"when you get a chance", "no rush", "minor", "whenever",
		"low priority", "cosmetic", "question about",
	}},
}

// Classify derives category, priority, and a confidence estimate from a
// free-text problem description.
func Classify(description string) Classification {
	text := strings.ToLower(description)

	best := protocol.CategoryGeneral
	bestScore := 0
	for _, cat := range categoryOrder {
		score := 0
		for _, kw := range categoryKeywords[cat] {
			if strings.Contains(text, kw) {
				score++
			}
		}
		if score > bestScore {
			best = cat
			bestScore = score
		}
	}

	priority := protocol.PriorityMedium
	for _, rule := range priorityRules {
		if containsAny(text, rule.phrases) {
			priority = rule.priority
			break
		}
	}

	// Confidence grows with keyword evidence and caps below certainty;
	// an unmatched description stays General at the floor.
	confidence := 0.3 + 0.2*float64(bestScore)
	if confidence > 0.9 {
		confidence = 0.9
	}

	return Classification{Category: best, Priority: priority, Confidence: confidence}
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
