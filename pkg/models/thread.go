package models

// Thread is a contiguous run of messages judged to belong to one
// topical exchange. Threads are derived per query and never persisted.
type Thread struct {
	Messages []Message `json:"messages"`
	Score    int       `json:"score"`
}

// First returns the thread's opening message.
func (t Thread) First() Message {
	if len(t.Messages) == 0 {
		return Message{}
	}
	return t.Messages[0]
}

// Len returns the number of messages in the thread.
func (t Thread) Len() int { return len(t.Messages) }
