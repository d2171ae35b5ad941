package protocol

// KnowledgeArticle is one entry in the helpdesk knowledge corpus.
// Articles are read-only after load and shared freely across sessions.
type KnowledgeArticle struct {
	ID       string         `json:"id" yaml:"id"`
	Title    string         `json:"title" yaml:"title"`
	Category TicketCategory `json:"category" yaml:"category"`
	Body     string         `json:"body" yaml:"body"`
	Keywords []string       `json:"keywords" yaml:"keywords"`
	Related  []string       `json:"related,omitempty" yaml:"related,omitempty"`
	// Pinned articles (short curated FAQ answers) receive a small
	// ranking bonus so quick answers surface above long guides.
	Pinned bool `json:"pinned,omitempty" yaml:"pinned,omitempty"`
}
