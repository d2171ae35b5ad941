package ticket

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deskd-io/deskd/pkg/protocol"
)

// resolutionHours maps priority to the promised resolution window.
var resolutionHours = map[protocol.TicketPriority]time.Duration{
	protocol.PriorityCritical: 2 * time.Hour,
	protocol.PriorityUrgent:   4 * time.Hour,
	protocol.PriorityHigh:     24 * time.Hour,
	protocol.PriorityMedium:   72 * time.Hour,
	protocol.PriorityLow:      168 * time.Hour,
}

// Manager owns ticket creation and lifecycle progression on top of a
// Store. Ticket IDs are INC<yyyymmdd><seq>, with the sequence resetting
// each day.
type Manager struct {
	store    Store
	assigner *Assigner
	classify func(string) Classification
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	seqDay  string
	seqNext int
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// WithAssigner overrides the technician assigner.
func WithAssigner(a *Assigner) ManagerOption {
	return func(m *Manager) { m.assigner = a }
}

// WithClassifier swaps the keyword classifier for another implementation.
func WithClassifier(fn func(string) Classification) ManagerOption {
	return func(m *Manager) { m.classify = fn }
}

func NewManager(store Store, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		store:    store,
		assigner: NewAssigner(nil),
		classify: Classify,
		logger:   logger,
		now:      time.Now,
		seqNext:  1,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateRequest carries the inputs for opening a ticket. Priority and
// Category are optional overrides; when empty they are classified from
// the description.
type CreateRequest struct {
	Description string
	CreatedBy   string
	SessionID   string
	Priority    protocol.TicketPriority
	Category    protocol.TicketCategory
}

// Create validates, classifies, assigns, and persists a new ticket.
func (m *Manager) Create(req CreateRequest) (*protocol.Ticket, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, &ValidationError{Field: "description", Reason: "must not be empty"}
	}

	cls := m.classify(description)
	priority := req.Priority
	if priority == "" {
		priority = cls.Priority
	}
	category := req.Category
	if category == "" {
		category = cls.Category
	}

	now := m.now().UTC()
	id, err := m.nextID(now)
	if err != nil {
		return nil, err
	}
	t := &protocol.Ticket{
		ID:                  id,
		Description:         description,
		Status:              protocol.TicketOpen,
		Priority:            priority,
		Category:            category,
		Assignee:            m.assigner.Assign(category),
		CreatedBy:           req.CreatedBy,
		SessionID:           req.SessionID,
		CreatedAt:           now,
		UpdatedAt:           now,
		EstimatedResolution: now.Add(resolutionHours[priority]),
	}
	t.History = []protocol.StatusChange{{
		ID:        uuid.NewString(),
		Status:    protocol.TicketOpen,
		Note:      "Ticket created",
		Timestamp: now,
	}}

	if err := m.store.Save(t); err != nil {
		return nil, fmt.Errorf("ticket: create: %w", err)
	}

	m.logger.Info("ticket created",
		"ticket", t.ID,
		"priority", t.Priority,
		"category", t.Category,
		"assignee", t.Assignee)
	return t, nil
}

// Get returns a ticket by ID.
func (m *Manager) Get(id string) (*protocol.Ticket, error) {
	return m.store.Get(id)
}

// List returns tickets matching the filter.
func (m *Manager) List(filter Filter) ([]*protocol.Ticket, error) {
	return m.store.List(filter)
}

// Stats aggregates the ticket population.
func (m *Manager) Stats() (protocol.TicketStats, error) {
	return m.store.Stats()
}

// Advance moves a ticket one step forward in its lifecycle. Advancing a
// Resolved or Closed ticket is a no-op and returns the ticket unchanged.
func (m *Manager) Advance(id, note string) (*protocol.Ticket, error) {
	t, err := m.store.Get(id)
	if err != nil {
		return nil, err
	}
	if t.Status.Terminal() {
		return t, nil
	}

	next := t.Status.Next()
	if err := m.store.UpdateStatus(id, next); err != nil {
		return nil, err
	}
	change := protocol.StatusChange{
		ID:        uuid.NewString(),
		Status:    next,
		Note:      note,
		Timestamp: m.now().UTC(),
	}
	if err := m.store.AppendHistory(id, change); err != nil {
		return nil, err
	}

	t.Status = next
	t.UpdatedAt = change.Timestamp
	t.History = append(t.History, change)
	m.logger.Info("ticket advanced", "ticket", id, "status", next)
	return t, nil
}

// AdvanceDue progresses every non-terminal ticket whose last update is
// older than age, simulating technicians working the queue. It returns
// the number of tickets advanced.
func (m *Manager) AdvanceDue(age time.Duration) (int, error) {
	tickets, err := m.store.List(Filter{})
	if err != nil {
		return 0, err
	}

	cutoff := m.now().UTC().Add(-age)
	advanced := 0
	for _, t := range tickets {
		if t.Status.Terminal() || t.UpdatedAt.After(cutoff) {
			continue
		}
		if _, err := m.Advance(t.ID, "Automatic progression"); err != nil {
			m.logger.Error("ticket auto-advance failed", "ticket", t.ID, "error", err)
			continue
		}
		advanced++
	}
	return advanced, nil
}

func (m *Manager) nextID(now time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	day := now.Format("20060102")
	if day != m.seqDay {
		m.seqDay = day
		m.seqNext = 1
	}

	// Skip over IDs already persisted, so a restart mid-day does not
	// reuse sequence numbers.
	for {
		id := fmt.Sprintf("INC%s%04d", day, m.seqNext)
		m.seqNext++
		_, err := m.store.Get(id)
		if errors.Is(err, ErrNotFound) {
			return id, nil
		}
		if err != nil {
			// A store failure says nothing about whether the ID is
			// taken; handing it out could collide on Save.
			return "", fmt.Errorf("ticket: allocate id: %w", err)
		}
	}
}
