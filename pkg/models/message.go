package models

import "time"

// Role identifies who authored a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	SenderName     string    `json:"sender_name,omitempty"`
	Content        string    `json:"content"`
	TS             time.Time `json:"ts"`
	Role           Role      `json:"role"`
	// Topics holds classifier tags assigned at ingest; the assembler's
	// topic pulls scan this field rather than re-classifying history.
	Topics []string `json:"topics,omitempty"`
	// ReplyTo is the ID of the quoted message when this message is a reply.
	ReplyTo string `json:"reply_to,omitempty"`
}

// IsReply reports whether the message quotes an earlier one.
func (m Message) IsReply() bool { return m.ReplyTo != "" }

// HasTopic reports whether the message carries the given topic tag.
func (m Message) HasTopic(tag string) bool {
	for _, t := range m.Topics {
		if t == tag {
			return true
		}
	}
	return false
}
