package protocol

import "time"

// TicketStatus represents the lifecycle state of a support ticket.
// Statuses advance strictly forward; Resolved and Closed are terminal
// for automatic progression.
type TicketStatus string

const (
	TicketOpen       TicketStatus = "Open"
	TicketAssigned   TicketStatus = "Assigned"
	TicketInProgress TicketStatus = "In Progress"
	TicketResolved   TicketStatus = "Resolved"
	TicketClosed     TicketStatus = "Closed"
)

// Terminal reports whether automatic progression stops at this status.
func (s TicketStatus) Terminal() bool {
	return s == TicketResolved || s == TicketClosed
}

// Next returns the successor status in the linear lifecycle, or the
// status itself when terminal.
func (s TicketStatus) Next() TicketStatus {
	switch s {
	case TicketOpen:
		return TicketAssigned
	case TicketAssigned:
		return TicketInProgress
	case TicketInProgress:
		return TicketResolved
	default:
		return s
	}
}

// TicketPriority is the urgency band assigned to a ticket.
type TicketPriority string

const (
	PriorityCritical TicketPriority = "Critical"
	PriorityUrgent   TicketPriority = "Urgent"
	PriorityHigh     TicketPriority = "High"
	PriorityMedium   TicketPriority = "Medium"
	PriorityLow      TicketPriority = "Low"
)

// TicketCategory groups tickets by the kind of issue reported.
type TicketCategory string

const (
	CategoryNetwork     TicketCategory = "Network"
	CategoryHardware    TicketCategory = "Hardware"
	CategorySoftware    TicketCategory = "Software"
	CategoryEmail       TicketCategory = "Email"
	CategorySecurity    TicketCategory = "Security"
	CategoryAccount     TicketCategory = "Account"
	CategoryPerformance TicketCategory = "Performance"
	CategoryGeneral     TicketCategory = "General"
)

// StatusChange is one entry in a ticket's ordered history.
type StatusChange struct {
	ID        string       `json:"id"`
	Status    TicketStatus `json:"status"`
	Note      string       `json:"note,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// Ticket is a support ticket created from a confirmed user request.
// Tickets are never deleted, only advanced toward Closed.
type Ticket struct {
	ID                  string         `json:"id"`
	Description         string         `json:"description"`
	Status              TicketStatus   `json:"status"`
	Priority            TicketPriority `json:"priority"`
	Category            TicketCategory `json:"category"`
	Assignee            string         `json:"assignee"`
	CreatedBy           string         `json:"created_by"`
	SessionID           string         `json:"session_id,omitempty"`
	History             []StatusChange `json:"history"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	EstimatedResolution time.Time      `json:"estimated_resolution"`
}

// Overdue reports whether the ticket has passed its estimated resolution
// time without reaching a terminal status.
func (t *Ticket) Overdue(now time.Time) bool {
	return now.After(t.EstimatedResolution) && !t.Status.Terminal()
}

// StatusDescription returns a human-readable explanation of a status,
// suitable for inclusion in the resolution bundle.
func StatusDescription(s TicketStatus) string {
	switch s {
	case TicketOpen:
		return "The ticket has been received and is waiting to be assigned to a technician."
	case TicketAssigned:
		return "A technician has been assigned and will pick up the issue shortly."
	case TicketInProgress:
		return "A technician is actively working on the issue."
	case TicketResolved:
		return "The issue has been resolved. Reopen via a new ticket if the problem persists."
	case TicketClosed:
		return "The ticket has been closed. Contact support if further assistance is needed."
	default:
		return "Status unknown."
	}
}

// TicketStats summarizes the ticket population for the stats surface.
type TicketStats struct {
	Total      int                    `json:"total"`
	ByStatus   map[TicketStatus]int   `json:"by_status"`
	ByPriority map[TicketPriority]int `json:"by_priority"`
	ByCategory map[TicketCategory]int `json:"by_category"`
}
