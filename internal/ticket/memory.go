package ticket

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/deskd-io/deskd/pkg/protocol"
)

// MemoryStore is an in-memory Store for tests and ephemeral deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	tickets map[string]*protocol.Ticket
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tickets: make(map[string]*protocol.Ticket)}
}

func (s *MemoryStore) Save(t *protocol.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *t
	copied.History = append([]protocol.StatusChange(nil), t.History...)
	s.tickets[t.ID] = &copied
	return nil
}

func (s *MemoryStore) Get(id string) (*protocol.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, fmt.Errorf("ticket store: get %q: %w", id, ErrNotFound)
	}
	copied := *t
	copied.History = append([]protocol.StatusChange(nil), t.History...)
	return &copied, nil
}

func (s *MemoryStore) List(filter Filter) ([]*protocol.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*protocol.Ticket
	for _, t := range s.tickets {
		if !matches(t, filter) {
			continue
		}
		copied := *t
		copied.History = append([]protocol.StatusChange(nil), t.History...)
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *MemoryStore) Count(filter Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, t := range s.tickets {
		if matches(t, filter) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) AppendHistory(ticketID string, change protocol.StatusChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[ticketID]
	if !ok {
		return fmt.Errorf("ticket store: append history %q: %w", ticketID, ErrNotFound)
	}
	t.History = append(t.History, change)
	return nil
}

func (s *MemoryStore) UpdateStatus(ticketID string, status protocol.TicketStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[ticketID]
	if !ok {
		return fmt.Errorf("ticket store: update status %q: %w", ticketID, ErrNotFound)
	}
	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) Stats() (protocol.TicketStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := protocol.TicketStats{
		ByStatus:   make(map[protocol.TicketStatus]int),
		ByPriority: make(map[protocol.TicketPriority]int),
		ByCategory: make(map[protocol.TicketCategory]int),
	}
	for _, t := range s.tickets {
		stats.Total++
		stats.ByStatus[t.Status]++
		stats.ByPriority[t.Priority]++
		stats.ByCategory[t.Category]++
	}
	return stats, nil
}

func matches(t *protocol.Ticket, f Filter) bool {
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.Category != nil && t.Category != *f.Category {
		return false
	}
	if f.SessionID != "" && t.SessionID != f.SessionID {
		return false
	}
	if f.CreatedBy != "" && t.CreatedBy != f.CreatedBy {
		return false
	}
	if f.Assignee != "" && t.Assignee != f.Assignee {
		return false
	}
	if f.Query != "" && !strings.Contains(strings.ToLower(t.Description), strings.ToLower(f.Query)) {
		return false
	}
	return true
}
