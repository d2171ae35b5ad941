// Package router turns one inbound message into an ordered bundle of
// sub-query resolutions. It owns intent detection, dispatch to the
// knowledge, flow, and ticket subsystems, and the session-state
// transitions those resolutions imply. It produces structured facts
// only; prose generation happens downstream.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/deskd-io/deskd/internal/flow"
	"github.com/deskd-io/deskd/internal/knowledge"
	"github.com/deskd-io/deskd/internal/session"
	"github.com/deskd-io/deskd/internal/splitter"
	"github.com/deskd-io/deskd/internal/ticket"
	"github.com/deskd-io/deskd/pkg/protocol"
)

const (
	searchTopK         = 3
	fallbackFAQCount   = 3
	followupMaxAlts    = 3
	defaultAutoCreate  = 0.5
)

// Handler resolves one sub-query of a given intent.
type Handler interface {
	Resolve(ctx context.Context, subQuery string, sess *session.Session) (protocol.SubResult, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, subQuery string, sess *session.Session) (protocol.SubResult, error)

func (f HandlerFunc) Resolve(ctx context.Context, subQuery string, sess *session.Session) (protocol.SubResult, error) {
	return f(ctx, subQuery, sess)
}

// Router decides what each inbound message means and assembles the
// resolution bundle.
type Router struct {
	sessions *session.Manager
	index    *knowledge.Index
	flows    *flow.Engine
	tickets  *ticket.Manager
	splitter *splitter.Splitter
	catalog  Catalog
	logger   *slog.Logger
	now      func() time.Time

	// autoCreate is the classification confidence above which a
	// Critical-priority report opens a ticket without asking first.
	autoCreate float64

	handlers map[Intent]Handler
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithCatalog replaces the software catalog.
func WithCatalog(c Catalog) RouterOption { return func(r *Router) { r.catalog = c } }

// WithAutoCreateThreshold tunes the auto-ticket confidence gate.
func WithAutoCreateThreshold(v float64) RouterOption { return func(r *Router) { r.autoCreate = v } }

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) RouterOption { return func(r *Router) { r.now = now } }

// WithMaxSubQueries caps how many sub-queries one message may split into.
func WithMaxSubQueries(n int) RouterOption {
	return func(r *Router) {
		if n > 0 {
			r.splitter.MaxSubQueries = n
		}
	}
}

func New(sessions *session.Manager, index *knowledge.Index, flows *flow.Engine, tickets *ticket.Manager, logger *slog.Logger, opts ...RouterOption) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{
		sessions:   sessions,
		index:      index,
		flows:      flows,
		tickets:    tickets,
		splitter:   splitter.New(),
		catalog:    DefaultCatalog(),
		logger:     logger,
		now:        time.Now,
		autoCreate: defaultAutoCreate,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.handlers = map[Intent]Handler{
		IntentKnowledge:    HandlerFunc(r.resolveKnowledge),
		IntentFlowStart:    HandlerFunc(r.resolveFlowStart),
		IntentTicketCreate: HandlerFunc(r.resolveTicketCreate),
		IntentTicketStatus: HandlerFunc(r.resolveTicketStatus),
		IntentTicketList:   HandlerFunc(r.resolveTicketList),
		IntentStats:        HandlerFunc(r.resolveStats),
		IntentSoftware:     HandlerFunc(r.resolveSoftware),
	}
	return r
}

// Register installs or replaces the handler for an intent.
func (r *Router) Register(intent Intent, h Handler) {
	r.handlers[intent] = h
}

// Process resolves one inbound message against the session. The caller
// holds the per-session lock; the session may be mutated.
func (r *Router) Process(ctx context.Context, sess *session.Session, message string) (*protocol.Bundle, error) {
	bundle := &protocol.Bundle{SessionID: sess.ID, CreatedAt: r.now().UTC()}

	// Repair state before acting on it. An active flow pointer and the
	// troubleshooting state must agree.
	if (sess.State == protocol.StateTroubleshooting) != (sess.ActiveFlow != nil) {
		r.sessions.ResetDefensive(sess)
		bundle.Results = append(bundle.Results, r.fallbackResult(message))
		return bundle, nil
	}

	// An active flow consumes the whole message as its answer.
	if sess.ActiveFlow != nil {
		result, err := r.advanceFlow(ctx, sess, message)
		if err != nil {
			return nil, err
		}
		bundle.Results = append(bundle.Results, result)
		return bundle, nil
	}

	// A follow-up continues the previous topic rather than opening a
	// new resolution round.
	if ok, confidence, intent := r.sessions.DetectFollowup(sess, message); ok {
		bundle.Results = append(bundle.Results, r.resolveFollowup(sess, message, intent, confidence))
		return bundle, nil
	}

	subQueries := r.splitter.Split(message)
	seen := make(map[string]bool)
	for _, q := range subQueries {
		result, err := r.dispatch(ctx, sess, q)
		if err != nil {
			return nil, fmt.Errorf("router: resolve %q: %w", q, err)
		}
		dedupeCitations(&result, seen)
		bundle.Results = append(bundle.Results, result)
	}
	return bundle, nil
}

func (r *Router) dispatch(ctx context.Context, sess *session.Session, subQuery string) (protocol.SubResult, error) {
	flowMatch := r.flows.Registry().Match(subQuery) != nil
	intent := Detect(subQuery, flowMatch)

	// A confidently Critical report skips the ask-first step.
	if intent == IntentKnowledge {
		if cls := ticket.Classify(subQuery); cls.Priority == protocol.PriorityCritical {
			if cls.Confidence >= r.autoCreate {
				return r.autoCreateTicket(sess, subQuery, cls)
			}
			return r.confirmTicket(subQuery, cls), nil
		}
	}

	h, ok := r.handlers[intent]
	if !ok {
		return r.fallbackResult(subQuery), nil
	}
	return h.Resolve(ctx, subQuery, sess)
}

// advanceFlow feeds the message to the active flow and handles the
// terminal transitions, including the escalation ticket.
func (r *Router) advanceFlow(_ context.Context, sess *session.Session, message string) (protocol.SubResult, error) {
	var (
		prompt  *protocol.FlowPromptPayload
		outcome *protocol.FlowOutcomePayload
		err     error
	)
	r.sessions.UpdateFlow(sess, func(fs *protocol.FlowState) {
		prompt, outcome, err = r.flows.Advance(fs, message)
	})
	if err != nil {
		// The stored flow state no longer matches the registry; do not
		// leave the session wedged in troubleshooting.
		r.sessions.ResetDefensive(sess)
		return r.fallbackResult(message), nil
	}
	if prompt != nil {
		return protocol.SubResult{SubQuery: message, Kind: protocol.KindFlowPrompt, FlowPrompt: prompt}, nil
	}

	if outcome.Outcome == protocol.FlowEscalated {
		def, _ := r.flows.Registry().Get(outcome.FlowID)
		description := fmt.Sprintf("%s did not resolve the issue (answers: %s)",
			def.Title, strings.Join(sess.ActiveFlow.Answers, ", "))
		tk, err := r.tickets.Create(ticket.CreateRequest{
			Description: description,
			CreatedBy:   sess.ID,
			SessionID:   sess.ID,
			Category:    def.Category,
			Priority:    protocol.PriorityHigh,
		})
		if err != nil {
			r.logger.Error("escalation ticket failed", "session", sess.ID, "error", err)
		} else {
			outcome.TicketID = tk.ID
			r.sessions.RecordTicket(sess, tk.ID)
		}
	}

	r.sessions.ClearFlow(sess)
	return protocol.SubResult{SubQuery: message, Kind: protocol.KindFlowOutcome, FlowOutcome: outcome}, nil
}

// resolveFollowup answers "that didn't work" style continuations with
// alternatives the previous answer did not include.
func (r *Router) resolveFollowup(sess *session.Session, message, intent string, confidence float64) protocol.SubResult {
	// Status questions about a known ticket beat generic follow-up.
	if intent == session.IntentStatusCheck && len(sess.RecentTickets) > 0 {
		if result, err := r.ticketStatusResult(message, sess.RecentTickets[0]); err == nil {
			return result
		}
	}

	cited := make(map[string]bool)
	for _, c := range sess.LastResults {
		cited[c.ArticleID] = true
	}

	var alternatives []protocol.Citation
	for _, res := range r.index.Search(sess.LastTopic, searchTopK+followupMaxAlts, "") {
		if cited[res.Article.ID] {
			continue
		}
		alternatives = append(alternatives, citation(res))
		if len(alternatives) == followupMaxAlts {
			break
		}
	}

	payload := &protocol.FollowupPayload{
		Intent:        intent,
		Confidence:    confidence,
		Topic:         sess.LastTopic,
		Alternatives:  alternatives,
		SuggestTicket: intent == session.IntentEscalate || len(alternatives) == 0,
	}
	return protocol.SubResult{SubQuery: message, Kind: protocol.KindFollowup, Followup: payload}
}

func (r *Router) resolveKnowledge(_ context.Context, subQuery string, sess *session.Session) (protocol.SubResult, error) {
	topic := ticket.Classify(subQuery).Category
	results := r.index.Search(subQuery, searchTopK, topic)
	r.sessions.RecordSearch(sess, subQuery)

	if len(results) == 0 {
		return r.fallbackResult(subQuery), nil
	}

	citations := make([]protocol.Citation, 0, len(results))
	for _, res := range results {
		citations = append(citations, citation(res))
	}
	r.sessions.SetTopic(sess, subQuery, citations)
	return protocol.SubResult{
		SubQuery: subQuery,
		Kind:     protocol.KindAnswer,
		Answer:   &protocol.AnswerPayload{Topic: subQuery, Citations: citations},
	}, nil
}

func (r *Router) resolveFlowStart(_ context.Context, subQuery string, sess *session.Session) (protocol.SubResult, error) {
	def := r.flows.Registry().Match(subQuery)
	if def == nil {
		return r.fallbackResult(subQuery), nil
	}
	state, prompt, err := r.flows.Start(def.ID)
	if err != nil {
		return protocol.SubResult{}, err
	}
	r.sessions.StartFlow(sess, state)
	return protocol.SubResult{SubQuery: subQuery, Kind: protocol.KindFlowPrompt, FlowPrompt: prompt}, nil
}

func (r *Router) resolveTicketCreate(_ context.Context, subQuery string, sess *session.Session) (protocol.SubResult, error) {
	description := stripCreatePhrase(subQuery)
	if description == "" {
		description = sess.LastTopic
	}
	if description == "" {
		// Nothing to put in the ticket yet; hand back a draft so the
		// user is asked for a description.
		return r.confirmTicket(subQuery, ticket.Classification{
			Category: protocol.CategoryGeneral,
			Priority: protocol.PriorityMedium,
		}), nil
	}

	tk, err := r.tickets.Create(ticket.CreateRequest{
		Description: description,
		CreatedBy:   sess.ID,
		SessionID:   sess.ID,
	})
	if err != nil {
		if ticket.IsValidation(err) {
			return r.fallbackResult(subQuery), nil
		}
		return protocol.SubResult{}, err
	}
	r.sessions.RecordTicket(sess, tk.ID)
	return ticketResult(protocol.KindTicketCreated, subQuery, tk, r.now().UTC()), nil
}

func (r *Router) resolveTicketStatus(_ context.Context, subQuery string, sess *session.Session) (protocol.SubResult, error) {
	id := TicketID(subQuery)
	if id == "" && len(sess.RecentTickets) > 0 {
		id = sess.RecentTickets[0]
	}
	if id == "" {
		return r.resolveTicketList(nil, subQuery, sess)
	}
	result, err := r.ticketStatusResult(subQuery, id)
	if err != nil {
		return r.fallbackResult(subQuery), nil
	}
	return result, nil
}

func (r *Router) ticketStatusResult(subQuery, id string) (protocol.SubResult, error) {
	tk, err := r.tickets.Get(id)
	if err != nil {
		return protocol.SubResult{}, err
	}
	return ticketResult(protocol.KindTicketStatus, subQuery, tk, r.now().UTC()), nil
}

func (r *Router) resolveTicketList(_ context.Context, subQuery string, sess *session.Session) (protocol.SubResult, error) {
	tickets, err := r.tickets.List(ticket.Filter{SessionID: sess.ID})
	if err != nil {
		return protocol.SubResult{}, err
	}
	return protocol.SubResult{
		SubQuery:   subQuery,
		Kind:       protocol.KindTicketList,
		TicketList: &protocol.TicketListPayload{Tickets: tickets},
	}, nil
}

func (r *Router) resolveStats(_ context.Context, subQuery string, _ *session.Session) (protocol.SubResult, error) {
	ticketStats, err := r.tickets.Stats()
	if err != nil {
		return protocol.SubResult{}, err
	}
	return protocol.SubResult{
		SubQuery: subQuery,
		Kind:     protocol.KindStats,
		Stats: &protocol.StatsPayload{
			Tickets:  ticketStats,
			Sessions: r.sessions.Stats(),
		},
	}, nil
}

func (r *Router) resolveSoftware(_ context.Context, subQuery string, sess *session.Session) (protocol.SubResult, error) {
	entry := r.catalog.Lookup(subQuery)
	if entry == nil {
		// Unknown application; fall back to the knowledge base.
		return r.resolveKnowledge(nil, subQuery, sess)
	}
	return protocol.SubResult{
		SubQuery: subQuery,
		Kind:     protocol.KindSoftware,
		Software: &protocol.SoftwarePayload{
			Name:         entry.Name,
			Version:      entry.Version,
			InstallerURL: entry.InstallerURL,
		},
	}, nil
}

func (r *Router) autoCreateTicket(sess *session.Session, subQuery string, cls ticket.Classification) (protocol.SubResult, error) {
	tk, err := r.tickets.Create(ticket.CreateRequest{
		Description: subQuery,
		CreatedBy:   sess.ID,
		SessionID:   sess.ID,
		Priority:    cls.Priority,
		Category:    cls.Category,
	})
	if err != nil {
		return protocol.SubResult{}, err
	}
	r.sessions.RecordTicket(sess, tk.ID)
	r.logger.Info("critical report auto-ticketed", "session", sess.ID, "ticket", tk.ID)
	return ticketResult(protocol.KindTicketCreated, subQuery, tk, r.now().UTC()), nil
}

// confirmTicket proposes a draft ticket without persisting it.
func (r *Router) confirmTicket(subQuery string, cls ticket.Classification) protocol.SubResult {
	draft := &protocol.Ticket{
		Description: stripCreatePhrase(subQuery),
		Status:      protocol.TicketOpen,
		Priority:    cls.Priority,
		Category:    cls.Category,
	}
	return protocol.SubResult{
		SubQuery: subQuery,
		Kind:     protocol.KindTicketConfirm,
		Ticket: &protocol.TicketPayload{
			Ticket:            draft,
			StatusDescription: protocol.StatusDescription(protocol.TicketOpen),
		},
	}
}

// fallbackResult pairs the unanswerable query with the pinned FAQ list.
func (r *Router) fallbackResult(subQuery string) protocol.SubResult {
	var suggestions []protocol.Citation
	for _, a := range r.index.Pinned(fallbackFAQCount) {
		suggestions = append(suggestions, protocol.Citation{
			ArticleID: a.ID,
			Title:     a.Title,
			Category:  a.Category,
			Snippet:   knowledge.Snippet(a, 140),
		})
	}
	return protocol.SubResult{
		SubQuery: subQuery,
		Kind:     protocol.KindFallback,
		Fallback: &protocol.FallbackPayload{Query: subQuery, Suggestions: suggestions},
	}
}

func ticketResult(kind protocol.ResultKind, subQuery string, tk *protocol.Ticket, now time.Time) protocol.SubResult {
	return protocol.SubResult{
		SubQuery: subQuery,
		Kind:     kind,
		Ticket: &protocol.TicketPayload{
			Ticket:            tk,
			StatusDescription: protocol.StatusDescription(tk.Status),
			Overdue:           tk.Overdue(now),
		},
	}
}

func citation(res knowledge.Result) protocol.Citation {
	return protocol.Citation{
		ArticleID: res.Article.ID,
		Title:     res.Article.Title,
		Category:  res.Article.Category,
		Snippet:   knowledge.Snippet(res.Article, 140),
		Score:     res.Score,
	}
}

// dedupeCitations drops citations already emitted by an earlier
// sub-result in the same bundle.
func dedupeCitations(result *protocol.SubResult, seen map[string]bool) {
	if result.Kind != protocol.KindAnswer || result.Answer == nil {
		return
	}
	kept := result.Answer.Citations[:0]
	for _, c := range result.Answer.Citations {
		if seen[c.ArticleID] {
			continue
		}
		seen[c.ArticleID] = true
		kept = append(kept, c)
	}
	result.Answer.Citations = kept
}

func stripCreatePhrase(text string) string {
	lower := strings.ToLower(text)
	for _, p := range createPhrases {
		if i := strings.Index(lower, p); i >= 0 {
			return trimFiller(text[:i] + text[i+len(p):])
		}
	}
	return strings.TrimSpace(text)
}

var fillerPrefixes = []string{"please", "can you", "could you", "hi", "hey", "for me"}

// trimFiller peels politeness off what remains once the request phrase
// is removed, leaving just the problem description.
func trimFiller(text string) string {
	out := strings.Trim(strings.TrimSpace(text), ":,.-? ")
	for changed := true; changed; {
		changed = false
		lower := strings.ToLower(out)
		for _, p := range fillerPrefixes {
			if lower == p {
				return ""
			}
			if strings.HasPrefix(lower, p+" ") {
				out = strings.Trim(strings.TrimSpace(out[len(p):]), ":,.-? ")
				changed = true
				break
			}
		}
	}
	return out
}
