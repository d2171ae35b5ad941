package ticket

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/deskd-io/deskd/pkg/protocol"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database and runs migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ticket store: open: %w", err)
	}

	// Enable WAL mode for better concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("ticket store: wal: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS tickets (
			id          TEXT PRIMARY KEY,
			description TEXT NOT NULL,
			status      TEXT NOT NULL DEFAULT 'Open',
			priority    TEXT NOT NULL DEFAULT 'Medium',
			category    TEXT NOT NULL DEFAULT 'General',
			assignee    TEXT NOT NULL DEFAULT '',
			created_by  TEXT NOT NULL DEFAULT '',
			session_id  TEXT NOT NULL DEFAULT '',
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL,
			estimated_resolution TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS ticket_history (
			id        TEXT PRIMARY KEY,
			ticket_id TEXT NOT NULL REFERENCES tickets(id),
			status    TEXT NOT NULL,
			note      TEXT NOT NULL DEFAULT '',
			timestamp TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_history_ticket ON ticket_history(ticket_id);
		CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets(status);
		CREATE INDEX IF NOT EXISTS idx_tickets_session ON tickets(session_id);
	`)
	if err != nil {
		return fmt.Errorf("ticket store: migrate: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Save(t *protocol.Ticket) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("ticket store: save: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO tickets (id, description, status, priority, category, assignee, created_by, session_id, created_at, updated_at, estimated_resolution)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			description=excluded.description, status=excluded.status, priority=excluded.priority,
			category=excluded.category, assignee=excluded.assignee, updated_at=excluded.updated_at,
			estimated_resolution=excluded.estimated_resolution
	`, t.ID, t.Description, string(t.Status), string(t.Priority), string(t.Category),
		t.Assignee, t.CreatedBy, t.SessionID,
		t.CreatedAt.Format(time.RFC3339), t.UpdatedAt.Format(time.RFC3339),
		t.EstimatedResolution.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("ticket store: save: %w", err)
	}

	for _, c := range t.History {
		_, err = tx.Exec(`INSERT OR IGNORE INTO ticket_history (id, ticket_id, status, note, timestamp) VALUES (?, ?, ?, ?, ?)`,
			c.ID, t.ID, string(c.Status), c.Note, c.Timestamp.Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("ticket store: save history: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ticket store: save: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(id string) (*protocol.Ticket, error) {
	row := s.db.QueryRow(`SELECT id, description, status, priority, category, assignee, created_by, session_id, created_at, updated_at, estimated_resolution FROM tickets WHERE id = ?`, id)

	t, err := scanTicket(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("ticket store: get %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("ticket store: get: %w", err)
	}

	history, err := s.loadHistory(id)
	if err != nil {
		return nil, err
	}
	t.History = history
	return t, nil
}

func (s *SQLiteStore) List(filter Filter) ([]*protocol.Ticket, error) {
	query := "SELECT id, description, status, priority, category, assignee, created_by, session_id, created_at, updated_at, estimated_resolution FROM tickets"
	where, args := filterClauses(filter)
	query += where
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("ticket store: list: %w", err)
	}
	defer rows.Close()

	var tickets []*protocol.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("ticket store: list scan: %w", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func (s *SQLiteStore) Count(filter Filter) (int, error) {
	query := "SELECT COUNT(*) FROM tickets"
	where, args := filterClauses(filter)
	query += where

	var count int
	if err := s.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("ticket store: count: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) AppendHistory(ticketID string, change protocol.StatusChange) error {
	_, err := s.db.Exec(`INSERT INTO ticket_history (id, ticket_id, status, note, timestamp) VALUES (?, ?, ?, ?, ?)`,
		change.ID, ticketID, string(change.Status), change.Note, change.Timestamp.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("ticket store: append history: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateStatus(ticketID string, status protocol.TicketStatus) error {
	result, err := s.db.Exec(`UPDATE tickets SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC().Format(time.RFC3339), ticketID)
	if err != nil {
		return fmt.Errorf("ticket store: update status: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("ticket store: update status %q: %w", ticketID, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) Stats() (protocol.TicketStats, error) {
	stats := protocol.TicketStats{
		ByStatus:   make(map[protocol.TicketStatus]int),
		ByPriority: make(map[protocol.TicketPriority]int),
		ByCategory: make(map[protocol.TicketCategory]int),
	}

	rows, err := s.db.Query(`SELECT status, priority, category, COUNT(*) FROM tickets GROUP BY status, priority, category`)
	if err != nil {
		return stats, fmt.Errorf("ticket store: stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status, priority, category string
		var n int
		if err := rows.Scan(&status, &priority, &category, &n); err != nil {
			return stats, fmt.Errorf("ticket store: stats scan: %w", err)
		}
		stats.Total += n
		stats.ByStatus[protocol.TicketStatus(status)] += n
		stats.ByPriority[protocol.TicketPriority(priority)] += n
		stats.ByCategory[protocol.TicketCategory(category)] += n
	}
	return stats, rows.Err()
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection (for testing or direct access).
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// --- helpers ---

func filterClauses(filter Filter) (string, []any) {
	query := " WHERE 1=1"
	var args []any

	if filter.Status != nil {
		query += " AND status = ?"
		args = append(args, string(*filter.Status))
	}
	if filter.Priority != nil {
		query += " AND priority = ?"
		args = append(args, string(*filter.Priority))
	}
	if filter.Category != nil {
		query += " AND category = ?"
		args = append(args, string(*filter.Category))
	}
	if filter.SessionID != "" {
		query += " AND session_id = ?"
		args = append(args, filter.SessionID)
	}
	if filter.CreatedBy != "" {
		query += " AND created_by = ?"
		args = append(args, filter.CreatedBy)
	}
	if filter.Assignee != "" {
		query += " AND assignee = ?"
		args = append(args, filter.Assignee)
	}
	if filter.Query != "" {
		query += " AND description LIKE ?"
		args = append(args, fmt.Sprintf("%%%s%%", filter.Query))
	}
	return query, args
}

func (s *SQLiteStore) loadHistory(ticketID string) ([]protocol.StatusChange, error) {
	rows, err := s.db.Query(`SELECT id, status, note, timestamp FROM ticket_history WHERE ticket_id = ? ORDER BY timestamp, id`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("ticket store: load history: %w", err)
	}
	defer rows.Close()

	var history []protocol.StatusChange
	for rows.Next() {
		var c protocol.StatusChange
		var status, ts string
		if err := rows.Scan(&c.ID, &status, &c.Note, &ts); err != nil {
			return nil, fmt.Errorf("ticket store: scan history: %w", err)
		}
		c.Status = protocol.TicketStatus(status)
		c.Timestamp, _ = time.Parse(time.RFC3339, ts)
		history = append(history, c)
	}
	return history, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanTicket(row scannable) (*protocol.Ticket, error) {
	var t protocol.Ticket
	var status, priority, category, createdAt, updatedAt, estimated string

	err := row.Scan(&t.ID, &t.Description, &status, &priority, &category,
		&t.Assignee, &t.CreatedBy, &t.SessionID, &createdAt, &updatedAt, &estimated)
	if err != nil {
		return nil, err
	}

	t.Status = protocol.TicketStatus(status)
	t.Priority = protocol.TicketPriority(priority)
	t.Category = protocol.TicketCategory(category)
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	t.EstimatedResolution, _ = time.Parse(time.RFC3339, estimated)
	return &t, nil
}
