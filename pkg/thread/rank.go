package thread

import (
	"sort"
	"strings"

	"recall/pkg/models"
)

// Scoring bonuses. Each thread is scored once; bonuses are independent
// and additive.
const (
	sizeCap          = 5
	bonusQuestion    = 3
	bonusAgent       = 4
	bonusActiveWho   = 2
	bonusExclamation = 2
)

// DefaultTopK is the default number of threads surfaced per conversation.
const DefaultTopK = 2

// emotional glyphs recognized alongside exclamation marks
var emotionGlyphs = []string{"😂", "🤣", "😭", "😡", "🔥", "❤", "wkwk", "haha", "hehe", "anjir", "mantap", "wow"}

// RankContext carries the signals ranking needs about the surrounding
// conversation.
type RankContext struct {
	// AgentID marks the agent's own messages.
	AgentID string
	// TopSenders holds the conversation's top-3 most active recent
	// sender ids.
	TopSenders []string
	// TopK limits how many threads are returned; <= 0 uses DefaultTopK.
	TopK int
}

// Rank scores every thread and returns the top-k by score, ties keeping
// original thread order.
func Rank(threads []models.Thread, rc RankContext) []models.Thread {
	k := rc.TopK
	if k <= 0 {
		k = DefaultTopK
	}

	scored := make([]models.Thread, len(threads))
	copy(scored, threads)
	for i := range scored {
		scored[i].Score = Score(scored[i], rc)
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

// Score computes one thread's interestingness.
func Score(t models.Thread, rc RankContext) int {
	score := t.Len()
	if score > sizeCap {
		score = sizeCap
	}

	top := map[string]struct{}{}
	for _, id := range rc.TopSenders {
		top[id] = struct{}{}
	}

	var hasQuestion, hasAgent, hasActive, hasEmotion bool
	for _, m := range t.Messages {
		if strings.Contains(m.Content, "?") {
			hasQuestion = true
		}
		if rc.AgentID != "" && m.SenderID == rc.AgentID {
			hasAgent = true
		}
		if _, ok := top[m.SenderID]; ok {
			hasActive = true
		}
		if !hasEmotion && emotional(m.Content) {
			hasEmotion = true
		}
	}
	if hasQuestion {
		score += bonusQuestion
	}
	if hasAgent {
		score += bonusAgent
	}
	if hasActive {
		score += bonusActiveWho
	}
	if hasEmotion {
		score += bonusExclamation
	}
	return score
}

func emotional(content string) bool {
	if strings.Contains(content, "!") {
		return true
	}
	c := strings.ToLower(content)
	for _, g := range emotionGlyphs {
		if strings.Contains(c, g) {
			return true
		}
	}
	return false
}
