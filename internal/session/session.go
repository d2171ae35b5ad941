package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deskd-io/deskd/pkg/protocol"
)

const (
	defaultMaxTurns    = 40
	defaultTTL         = 24 * time.Hour
	defaultTopicWindow = 6 // turns a topic stays "recent" for follow-up matching
	maxRecentTickets   = 5
	maxSearchHistory   = 10
)

// Session is the per-user conversation state spanning multiple turns.
// The engine's per-session lock serializes the message path, but the
// sweep and diagnostics paths read sessions from other goroutines, so
// every field write goes through mu as well.
type Session struct {
	mu sync.Mutex

	ID         string
	Turns      []protocol.Turn
	State      protocol.ConversationState
	ActiveFlow *protocol.FlowState

	// LastTopic and LastResults carry context into follow-up handling.
	LastTopic     string
	LastResults   []protocol.Citation
	LastTopicTurn int // turn index at which LastTopic was set

	RecentTickets []string // newest first, bounded
	SearchHistory []string // newest first, bounded

	CreatedAt    time.Time
	LastActiveAt time.Time
}

// Manager owns per-session history and state. It never fails a lookup:
// unknown session IDs transparently become fresh sessions.
type Manager struct {
	store       Store
	classifier  Classifier
	maxTurns    int
	ttl         time.Duration
	topicWindow int
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithMaxTurns bounds the per-session history window.
func WithMaxTurns(n int) Option { return func(m *Manager) { m.maxTurns = n } }

// WithTTL sets the idle timeout after which a session is swept.
func WithTTL(d time.Duration) Option { return func(m *Manager) { m.ttl = d } }

// WithTopicWindow sets how many turns a topic stays recent for follow-ups.
func WithTopicWindow(n int) Option { return func(m *Manager) { m.topicWindow = n } }

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// WithClassifier swaps the follow-up classifier.
func WithClassifier(c Classifier) Option { return func(m *Manager) { m.classifier = c } }

// NewManager creates a session manager over the given store.
func NewManager(store Store, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		store:       store,
		classifier:  NewPhraseClassifier(),
		maxTurns:    defaultMaxTurns,
		ttl:         defaultTTL,
		topicWindow: defaultTopicWindow,
		now:         time.Now,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetOrCreate returns the session for id, creating it on first contact.
func (m *Manager) GetOrCreate(id string) *Session {
	if sess, ok := m.store.Get(id); ok {
		sess.mu.Lock()
		sess.LastActiveAt = m.now()
		sess.mu.Unlock()
		return sess
	}
	now := m.now()
	sess := &Session{
		ID:           id,
		State:        protocol.StateIdle,
		CreatedAt:    now,
		LastActiveAt: now,
	}
	m.store.Put(sess)
	m.logger.Info("session created", "session", id)
	return sess
}

// AppendTurn records a turn and evicts the oldest turns beyond the window.
func (m *Manager) AppendTurn(sess *Session, role protocol.Role, content string) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.Turns = append(sess.Turns, protocol.Turn{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: m.now(),
	})
	if over := len(sess.Turns) - m.maxTurns; over > 0 {
		sess.Turns = sess.Turns[over:]
		sess.LastTopicTurn -= over
	}
	sess.LastActiveAt = m.now()
}

// SetTopic records the active topic and its citations for follow-ups.
func (m *Manager) SetTopic(sess *Session, topic string, results []protocol.Citation) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.LastTopic = topic
	sess.LastResults = results
	sess.LastTopicTurn = len(sess.Turns)
	if sess.State == protocol.StateIdle {
		sess.State = protocol.StateAwaitingFollowup
	}
}

// StartFlow attaches a flow state, switching to troubleshooting.
func (m *Manager) StartFlow(sess *Session, fs *protocol.FlowState) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.ActiveFlow = fs
	sess.State = protocol.StateTroubleshooting
}

// UpdateFlow runs fn against the session's flow state under its lock.
// Flow advancement mutates the state in place, which would otherwise race
// with Snapshot copying it on the diagnostics path.
func (m *Manager) UpdateFlow(sess *Session, fn func(*protocol.FlowState)) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	fn(sess.ActiveFlow)
}

// ClearFlow detaches any flow state. The active_flow/troubleshooting
// invariant holds on both sides of this call.
func (m *Manager) ClearFlow(sess *Session) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.ActiveFlow = nil
	if sess.State == protocol.StateTroubleshooting {
		sess.State = protocol.StateAwaitingFollowup
	}
}

// ResetDefensive clears all flow context after an internal inconsistency
// (e.g. an active flow referencing an unregistered definition).
func (m *Manager) ResetDefensive(sess *Session) {
	m.logger.Error("session state inconsistent, resetting to idle", "session", sess.ID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.ActiveFlow = nil
	sess.State = protocol.StateIdle
}

// RecordTicket remembers a ticket ID in session context, newest first.
func (m *Manager) RecordTicket(sess *Session, ticketID string) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.RecentTickets = append([]string{ticketID}, sess.RecentTickets...)
	if len(sess.RecentTickets) > maxRecentTickets {
		sess.RecentTickets = sess.RecentTickets[:maxRecentTickets]
	}
}

// RecordSearch remembers a search query, newest first.
func (m *Manager) RecordSearch(sess *Session, query string) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.SearchHistory = append([]string{query}, sess.SearchHistory...)
	if len(sess.SearchHistory) > maxSearchHistory {
		sess.SearchHistory = sess.SearchHistory[:maxSearchHistory]
	}
}

// DetectFollowup reports whether message continues the prior exchange.
// It requires an assistant turn immediately before, a phrase match, and a
// recent topic. Ambiguous matches favor follow-up with lower confidence:
// a false positive only costs a clarifying question.
func (m *Manager) DetectFollowup(sess *Session, message string) (bool, float64, string) {
	if len(sess.Turns) == 0 || sess.Turns[len(sess.Turns)-1].Role != protocol.RoleAssistant {
		return false, 0, ""
	}
	intent, confidence, ok := m.classifier.Classify(message)
	if !ok {
		return false, 0, ""
	}
	if sess.LastTopic == "" || len(sess.Turns)-sess.LastTopicTurn > m.topicWindow {
		return false, 0, ""
	}
	return true, confidence, intent
}

// Snapshot returns the diagnostics view of a session, or false if absent.
func (m *Manager) Snapshot(id string) (protocol.SessionSnapshot, bool) {
	sess, ok := m.store.Get(id)
	if !ok {
		return protocol.SessionSnapshot{}, false
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	snap := protocol.SessionSnapshot{
		ID:           sess.ID,
		State:        sess.State,
		LastTopic:    sess.LastTopic,
		Turns:        len(sess.Turns),
		CreatedAt:    sess.CreatedAt,
		LastActiveAt: sess.LastActiveAt,
	}
	if sess.ActiveFlow != nil {
		// Copy so the caller can marshal without holding the lock.
		fs := *sess.ActiveFlow
		fs.Answers = append([]string(nil), sess.ActiveFlow.Answers...)
		snap.ActiveFlow = &fs
	}
	return snap, true
}

// ExpireIdle sweeps sessions idle past the TTL and returns how many were
// removed. Runs off the request path; racing with a revival is benign
// since the next message recreates the session.
func (m *Manager) ExpireIdle(now time.Time) int {
	cutoff := now.Add(-m.ttl)
	removed := 0
	for _, sess := range m.store.List() {
		sess.mu.Lock()
		idle := sess.LastActiveAt.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			m.store.Delete(sess.ID)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("idle sessions expired", "count", removed)
	}
	return removed
}

// Stats summarizes the live session population.
func (m *Manager) Stats() protocol.SessionStats {
	sessions := m.store.List()
	stats := protocol.SessionStats{
		Total:   len(sessions),
		ByState: make(map[protocol.ConversationState]int),
	}
	for _, sess := range sessions {
		sess.mu.Lock()
		stats.ByState[sess.State]++
		sess.mu.Unlock()
	}
	return stats
}
