package ticket

import (
	"sync"

	"github.com/deskd-io/deskd/pkg/protocol"
)

// Staff describes a support technician and the categories they cover.
type Staff struct {
	Name       string                    `json:"name"`
	Email      string                    `json:"email"`
	Categories []protocol.TicketCategory `json:"categories"`
}

// DefaultStaff is the built-in technician roster. Deployments override
// it through configuration.
func DefaultStaff() []Staff {
	return []Staff{
		{Name: "Alex Johnson", Email: "alex.johnson@company.com",
			Categories: []protocol.TicketCategory{protocol.CategoryNetwork, protocol.CategorySecurity}},
		{Name: "Sarah Chen", Email: "sarah.chen@company.com",
			Categories: []protocol.TicketCategory{protocol.CategorySoftware, protocol.CategoryEmail}},
		{Name: "Mike Rodriguez", Email: "mike.rodriguez@company.com",
			Categories: []protocol.TicketCategory{protocol.CategoryHardware, protocol.CategoryGeneral}},
		{Name: "Emily Davis", Email: "emily.davis@company.com",
			Categories: []protocol.TicketCategory{protocol.CategoryAccount, protocol.CategorySecurity}},
	}
}

// Assigner picks a technician for a category, rotating round-robin among
// those who cover it so consecutive tickets in one category spread out.
type Assigner struct {
	mu    sync.Mutex
	staff []Staff
	next  map[protocol.TicketCategory]int
}

func NewAssigner(staff []Staff) *Assigner {
	if len(staff) == 0 {
		staff = DefaultStaff()
	}
	return &Assigner{staff: staff, next: make(map[protocol.TicketCategory]int)}
}

// Assign returns the name of the next technician covering the category.
// Categories nobody covers fall back to the General pool, then to the
// whole roster.
func (a *Assigner) Assign(category protocol.TicketCategory) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	pool := a.covering(category)
	if len(pool) == 0 {
		pool = a.covering(protocol.CategoryGeneral)
	}
	if len(pool) == 0 {
		for i := range a.staff {
			pool = append(pool, i)
		}
	}
	if len(pool) == 0 {
		return ""
	}

	i := a.next[category] % len(pool)
	a.next[category]++
	return a.staff[pool[i]].Name
}

func (a *Assigner) covering(category protocol.TicketCategory) []int {
	var pool []int
	for i, s := range a.staff {
		for _, c := range s.Categories {
			if c == category {
				pool = append(pool, i)
				break
			}
		}
	}
	return pool
}
