package ticket

import "github.com/deskd-io/deskd/pkg/protocol"

// Store is the persistence interface for tickets and their status
// history.
type Store interface {
	// Save creates or updates a ticket, including its history.
	Save(ticket *protocol.Ticket) error
	// Get retrieves a ticket by ID, including its history.
	Get(id string) (*protocol.Ticket, error)
	// List returns tickets matching the filter, newest first.
	List(filter Filter) ([]*protocol.Ticket, error)
	// Count returns the number of tickets matching the filter.
	Count(filter Filter) (int, error)
	// AppendHistory adds a status change entry to a ticket.
	AppendHistory(ticketID string, change protocol.StatusChange) error
	// UpdateStatus changes a ticket's status and refreshes UpdatedAt.
	UpdateStatus(ticketID string, status protocol.TicketStatus) error
	// Stats aggregates ticket counts by status, priority, and category.
	Stats() (protocol.TicketStats, error)
}

// Filter constrains ticket list queries.
type Filter struct {
	Status    *protocol.TicketStatus
	Priority  *protocol.TicketPriority
	Category  *protocol.TicketCategory
	SessionID string // exact match
	CreatedBy string // exact match
	Assignee  string // exact match
	Query     string // text search on the description
	Limit     int    // 0 = no limit
}
