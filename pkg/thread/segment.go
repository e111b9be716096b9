// Package thread partitions an ordered message stream into topical
// threads and scores each thread's interestingness so the assembler can
// pick excerpts worth surfacing in another conversation.
package thread

import (
	"regexp"
	"strings"

	"recall/pkg/models"
)

// maxThreadLen caps a thread before a new one is forced open.
const maxThreadLen = 5

// topicShiftRe marks a discourse connective opening a topic change.
var topicShiftRe = regexp.MustCompile(`^(?:btw|ngomong|omong|anyway|oh\s?iya|oiya|eh\b|oya|lagian|terus\b|trus\b)`)

// Segment partitions messages into contiguous threads. A new thread
// starts when the sender changes, when the content signals a topic
// shift (discourse connective or question mark), or when the open
// thread reaches the length cap. The final thread is always closed at
// stream end. Empty input yields an empty list.
func Segment(messages []models.Message) []models.Thread {
	var threads []models.Thread
	var open []models.Message

	for _, m := range messages {
		if len(open) > 0 && (m.SenderID != open[len(open)-1].SenderID || topicShift(m.Content) || len(open) >= maxThreadLen) {
			threads = append(threads, models.Thread{Messages: open})
			open = nil
		}
		open = append(open, m)
	}
	if len(open) > 0 {
		threads = append(threads, models.Thread{Messages: open})
	}
	return threads
}

func topicShift(content string) bool {
	c := strings.ToLower(strings.TrimSpace(content))
	return topicShiftRe.MatchString(c) || strings.Contains(c, "?")
}
