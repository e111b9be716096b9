package models

import "time"

// EntryRole is the role tag the downstream response generator expects.
type EntryRole string

const (
	EntrySystem    EntryRole = "system"
	EntryUser      EntryRole = "user"
	EntryAssistant EntryRole = "assistant"
)

// Context entry priorities. Lower sorts first; the priority is only a
// final stable sort key applied after relevance ranking, so entries of
// equal priority keep assembly order.
const (
	PriorityCore     = 0 // the target conversation's own messages
	PriorityInjected = 1 // cross-chat excerpts and image context
	PriorityFacts    = 2 // fact summaries
)

// ContextEntry is one unit of the window handed to the response generator.
type ContextEntry struct {
	Role    EntryRole `json:"role"`
	Content string    `json:"content"`
	// SourceLabel is human-readable provenance ("history", "cross-chat", ...).
	SourceLabel string    `json:"source_label,omitempty"`
	Priority    int       `json:"priority"`
	TS          time.Time `json:"ts"`
	// MessageID is the underlying message id for dedup, empty for
	// synthesized system entries.
	MessageID string `json:"message_id,omitempty"`
}

// ContextWindow is the ordered, bounded result of a context build.
type ContextWindow struct {
	ConversationID string         `json:"conversation_id"`
	Entries        []ContextEntry `json:"entries"`
	// Degraded lists collaborators that failed during assembly; their
	// contribution is simply missing from Entries.
	Degraded []string `json:"degraded,omitempty"`
}

// Len returns the number of entries in the window.
func (w ContextWindow) Len() int { return len(w.Entries) }
