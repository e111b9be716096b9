package models

import "time"

// Kind distinguishes private (two-party) from group conversations.
type Kind string

const (
	KindPrivate Kind = "private"
	KindGroup   Kind = "group"
)

// Conversation is the stored metadata for one conversation. The message
// log itself lives under separate per-message keys; Messages is only
// populated on reads that ask for it.
type Conversation struct {
	ID            string                       `json:"id"`
	Kind          Kind                         `json:"kind"`
	DisplayName   string                       `json:"display_name,omitempty"`
	Participants map[string]*ParticipantState `json:"participants"`
	LastActiveAt time.Time                    `json:"last_active_at"`
	// HasIntroduced records whether the agent has introduced itself in
	// this conversation. Written by the response generator through the
	// stored metadata; retrieval only carries it.
	HasIntroduced bool `json:"has_introduced"`

	Messages []Message `json:"-"`
}

// ParticipantState tracks per-sender activity inside a conversation.
type ParticipantState struct {
	ID           string    `json:"id"`
	DisplayName  string    `json:"display_name"`
	MessageCount int       `json:"message_count"`
	FirstSeenAt  time.Time `json:"first_seen_at"`
	LastActiveAt time.Time `json:"last_active_at"`
	// LastPreview holds a short prefix of the participant's latest message.
	LastPreview string `json:"last_preview,omitempty"`
}

// Touch updates the participant state for one new message.
func (p *ParticipantState) Touch(m Message) {
	if p.FirstSeenAt.IsZero() {
		p.FirstSeenAt = m.TS
	}
	if m.SenderName != "" {
		p.DisplayName = m.SenderName
	}
	p.MessageCount++
	p.LastActiveAt = m.TS
	p.LastPreview = Preview(m.Content, 80)
}

// Preview returns at most n runes of s.
func Preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
