package connector

import "context"

// Connector is the interface for external messaging platforms (Telegram, Slack).
type Connector interface {
	// Name returns the connector type (e.g., "telegram", "slack").
	Name() string
	// Start begins listening for inbound messages. Blocks until context is cancelled.
	Start(ctx context.Context) error
	// Stop gracefully shuts down the connector.
	Stop() error
}

// Inbound is a message received from an external platform.
type Inbound struct {
	Channel  string // Connector name (e.g., "telegram")
	SenderID string // Platform-specific sender identifier
	ChatID   string // Platform-specific chat identifier
	Content  string // Message text
}

// Handler produces the assistant reply for an inbound message. The
// connector that received the message is responsible for delivering the
// reply back to the platform.
type Handler func(ctx context.Context, msg Inbound) (string, error)
