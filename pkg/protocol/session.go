package protocol

import "time"

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message within a session. Immutable once appended.
type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationState tracks what the session is currently doing.
type ConversationState string

const (
	StateIdle             ConversationState = "idle"
	StateAwaitingFollowup ConversationState = "awaiting_followup"
	StateTroubleshooting  ConversationState = "troubleshooting"
)

// FlowState is a session's position inside an active troubleshooting flow.
// It exists iff the session's state is StateTroubleshooting.
type FlowState struct {
	FlowID        string   `json:"flow_id"`
	CurrentStepID string   `json:"current_step_id"`
	Answers       []string `json:"answers"`
	Retries       int      `json:"retries"`
}

// SessionSnapshot is the diagnostics view of a session exposed over the API.
type SessionSnapshot struct {
	ID           string            `json:"id"`
	State        ConversationState `json:"conversation_state"`
	LastTopic    string            `json:"last_topic,omitempty"`
	ActiveFlow   *FlowState        `json:"active_flow,omitempty"`
	Turns        int               `json:"turns"`
	CreatedAt    time.Time         `json:"created_at"`
	LastActiveAt time.Time         `json:"last_active_at"`
}
