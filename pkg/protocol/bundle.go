package protocol

import "time"

// ResultKind classifies what a sub-query resolved to.
type ResultKind string

const (
	KindAnswer        ResultKind = "answer"
	KindFallback      ResultKind = "fallback"
	KindFollowup      ResultKind = "followup"
	KindFlowPrompt    ResultKind = "flow_prompt"
	KindFlowOutcome   ResultKind = "flow_outcome"
	KindTicketCreated ResultKind = "ticket_created"
	KindTicketConfirm ResultKind = "ticket_confirm"
	KindTicketStatus  ResultKind = "ticket_status"
	KindTicketList    ResultKind = "ticket_list"
	KindStats         ResultKind = "stats"
	KindSoftware      ResultKind = "software"
)

// Citation references a knowledge article included in a result.
type Citation struct {
	ArticleID string         `json:"article_id"`
	Title     string         `json:"title"`
	Category  TicketCategory `json:"category"`
	Snippet   string         `json:"snippet,omitempty"`
	Score     float64        `json:"score"`
}

// AnswerPayload carries ranked knowledge citations for a query.
type AnswerPayload struct {
	Topic     string     `json:"topic,omitempty"`
	Citations []Citation `json:"citations"`
}

// FallbackPayload is emitted when the knowledge search came up empty.
type FallbackPayload struct {
	Query       string     `json:"query"`
	Suggestions []Citation `json:"suggestions,omitempty"`
}

// FollowupPayload carries the alternatives offered when the user signals
// the previous answer did not help.
type FollowupPayload struct {
	Intent        string     `json:"intent"`
	Confidence    float64    `json:"confidence"`
	Topic         string     `json:"topic,omitempty"`
	Alternatives  []Citation `json:"alternatives,omitempty"`
	SuggestTicket bool       `json:"suggest_ticket,omitempty"`
}

// FlowPromptPayload asks the user the current step's question.
type FlowPromptPayload struct {
	FlowID  string   `json:"flow_id"`
	Title   string   `json:"title"`
	StepID  string   `json:"step_id"`
	Prompt  string   `json:"prompt"`
	Kind    StepKind `json:"kind"`
	Options []string `json:"options,omitempty"`
	// Reprompt is set when the previous answer was not recognized.
	Reprompt bool `json:"reprompt,omitempty"`
}

// FlowOutcome is how an interactive troubleshooting flow ended.
type FlowOutcome string

const (
	FlowResolved  FlowOutcome = "resolved"
	FlowEscalated FlowOutcome = "escalated"
	FlowAbandoned FlowOutcome = "abandoned"
)

// FlowOutcomePayload reports a terminated flow.
type FlowOutcomePayload struct {
	FlowID   string      `json:"flow_id"`
	Outcome  FlowOutcome `json:"outcome"`
	Solution string      `json:"solution,omitempty"`
	TicketID string      `json:"ticket_id,omitempty"`
}

// TicketPayload wraps a ticket together with its presentation fields.
type TicketPayload struct {
	Ticket            *Ticket `json:"ticket"`
	StatusDescription string  `json:"status_description"`
	Overdue           bool    `json:"overdue,omitempty"`
}

// TicketListPayload lists tickets for a session or filter.
type TicketListPayload struct {
	Tickets []*Ticket `json:"tickets"`
}

// SessionStats summarizes the live session population.
type SessionStats struct {
	Total   int                       `json:"total"`
	ByState map[ConversationState]int `json:"by_state"`
}

// StatsPayload is the stats/status query result.
type StatsPayload struct {
	Tickets  TicketStats  `json:"tickets"`
	Sessions SessionStats `json:"sessions"`
}

// SoftwarePayload is a software-catalog lookup result.
type SoftwarePayload struct {
	Name         string `json:"name"`
	Version      string `json:"version"`
	InstallerURL string `json:"installer_url"`
}

// SubResult is the resolution of one sub-query. Exactly one payload field
// matching Kind is non-nil.
type SubResult struct {
	SubQuery string     `json:"sub_query"`
	Kind     ResultKind `json:"kind"`

	Answer      *AnswerPayload      `json:"answer,omitempty"`
	Fallback    *FallbackPayload    `json:"fallback,omitempty"`
	Followup    *FollowupPayload    `json:"followup,omitempty"`
	FlowPrompt  *FlowPromptPayload  `json:"flow_prompt,omitempty"`
	FlowOutcome *FlowOutcomePayload `json:"flow_outcome,omitempty"`
	Ticket      *TicketPayload      `json:"ticket,omitempty"`
	TicketList  *TicketListPayload  `json:"ticket_list,omitempty"`
	Stats       *StatsPayload       `json:"stats,omitempty"`
	Software    *SoftwarePayload    `json:"software,omitempty"`
}

// Bundle is the ordered set of sub-query resolutions for one inbound
// message. It is the single artifact handed to the prose-generation
// collaborator; the core produces no user-facing text itself.
type Bundle struct {
	SessionID string      `json:"session_id"`
	Results   []SubResult `json:"results"`
	CreatedAt time.Time   `json:"created_at"`
}
