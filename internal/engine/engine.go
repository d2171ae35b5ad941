// Package engine is the conversation core's front door. It serializes
// work per session, runs the router to produce a resolution bundle, and
// hands the bundle to the composer for prose. Different sessions
// proceed in parallel; turns within one session never interleave.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/deskd-io/deskd/internal/compose"
	"github.com/deskd-io/deskd/internal/flow"
	"github.com/deskd-io/deskd/internal/router"
	"github.com/deskd-io/deskd/internal/session"
	"github.com/deskd-io/deskd/internal/ticket"
	"github.com/deskd-io/deskd/pkg/protocol"
)

// Reply is the engine's answer to one inbound message: the rendered
// text plus the structured bundle it was rendered from.
type Reply struct {
	Text   string           `json:"text"`
	Bundle *protocol.Bundle `json:"bundle"`
}

// Engine coordinates sessions, routing, and composition.
type Engine struct {
	sessions *session.Manager
	router   *router.Router
	composer compose.Composer
	tickets  *ticket.Manager
	flows    *flow.Engine
	logger   *slog.Logger
	locks    *sessionLocks
}

func New(sessions *session.Manager, r *router.Router, composer compose.Composer, tickets *ticket.Manager, flows *flow.Engine, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		sessions: sessions,
		router:   r,
		composer: composer,
		tickets:  tickets,
		flows:    flows,
		logger:   logger,
		locks:    newSessionLocks(),
	}
}

// ProcessMessage resolves one user message within its session. Calls
// for the same session ID serialize; everything else runs concurrently.
func (e *Engine) ProcessMessage(ctx context.Context, sessionID, message string) (*Reply, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("engine: empty session id")
	}

	unlock := e.locks.lock(sessionID)
	defer unlock()

	started := time.Now()
	sess := e.sessions.GetOrCreate(sessionID)

	bundle, err := e.router.Process(ctx, sess, message)
	if err != nil {
		return nil, fmt.Errorf("engine: process: %w", err)
	}

	e.sessions.AppendTurn(sess, protocol.RoleUser, message)

	text, err := e.composer.Render(ctx, bundle)
	if err != nil {
		return nil, fmt.Errorf("engine: compose: %w", err)
	}
	e.sessions.AppendTurn(sess, protocol.RoleAssistant, text)

	e.logger.Debug("message processed",
		"session", sessionID,
		"results", len(bundle.Results),
		"duration", time.Since(started))
	return &Reply{Text: text, Bundle: bundle}, nil
}

// Snapshot returns the diagnostics view of a session.
func (e *Engine) Snapshot(sessionID string) (protocol.SessionSnapshot, bool) {
	return e.sessions.Snapshot(sessionID)
}

// GetTicket returns a ticket by ID.
func (e *Engine) GetTicket(id string) (*protocol.Ticket, error) {
	return e.tickets.Get(id)
}

// ListTickets returns tickets matching the filter.
func (e *Engine) ListTickets(filter ticket.Filter) ([]*protocol.Ticket, error) {
	return e.tickets.List(filter)
}

// AdvanceTicket moves a ticket one lifecycle step forward.
func (e *Engine) AdvanceTicket(id, note string) (*protocol.Ticket, error) {
	return e.tickets.Advance(id, note)
}

// Flows lists the registered troubleshooting flows.
func (e *Engine) Flows() []*protocol.FlowDefinition {
	return e.flows.Registry().List()
}

// Stats aggregates tickets and sessions.
func (e *Engine) Stats() (protocol.StatsPayload, error) {
	ticketStats, err := e.tickets.Stats()
	if err != nil {
		return protocol.StatsPayload{}, err
	}
	return protocol.StatsPayload{
		Tickets:  ticketStats,
		Sessions: e.sessions.Stats(),
	}, nil
}
