// Package logbuf keeps the most recent log entries in memory so the
// diagnostics API can serve them without touching disk.
package logbuf

import (
	"log/slog"
	"sync"
	"time"
)

// Entry is a single log entry captured from slog.
type Entry struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Attrs   map[string]any `json:"attrs,omitempty"`
}

// Filter constrains a Query.
type Filter struct {
	Since    time.Time  // zero means no lower bound
	MinLevel slog.Level // entries below this level are skipped
	Limit    int        // 0 means no limit; otherwise the newest N matches
}

// Ring is a fixed-capacity, thread-safe buffer of log entries. Once
// full, each write evicts the oldest entry.
type Ring struct {
	mu      sync.Mutex
	entries []Entry
	head    int // next write position
	filled  int
}

// NewRing creates a ring holding up to capacity entries.
func NewRing(capacity int) *Ring {
	return &Ring{entries: make([]Entry, capacity)}
}

// Write appends an entry, evicting the oldest when full.
func (r *Ring) Write(e Entry) {
	r.mu.Lock()
	r.entries[r.head] = e
	r.head = (r.head + 1) % len(r.entries)
	if r.filled < len(r.entries) {
		r.filled++
	}
	r.mu.Unlock()
}

// Len returns the number of entries currently held.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filled
}

// Query returns matching entries, oldest first.
func (r *Ring) Query(f Filter) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	oldest := 0
	if r.filled == len(r.entries) {
		oldest = r.head
	}

	var out []Entry
	for i := 0; i < r.filled; i++ {
		e := r.entries[(oldest+i)%len(r.entries)]
		if !f.Since.IsZero() && e.Time.Before(f.Since) {
			continue
		}
		if ParseLevel(e.Level) < f.MinLevel {
			continue
		}
		out = append(out, e)
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out
}

// ParseLevel converts a level string back to slog.Level. Unknown
// strings parse as info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
