package classify

import (
	"regexp"
	"strings"
)

// IntentType is the cross-chat question type.
type IntentType string

const (
	IntentMood          IntentType = "mood"
	IntentConversation  IntentType = "conversation"
	IntentGroupActivity IntentType = "group_activity"
	IntentNone          IntentType = "none"
)

// Intent is the result of cross-chat question detection.
type Intent struct {
	IsCrossChat bool       `json:"is_cross_chat"`
	Type        IntentType `json:"type"`
	// TargetName is the person asked about, when the phrasing names one.
	TargetName string `json:"target_name,omitempty"`
	// TargetChat is the group asked about, for group-activity questions.
	TargetChat string `json:"target_chat,omitempty"`
}

// intentRule is one pattern in a priority group. Different phrasings
// place the interesting token in different capture positions, so each
// rule carries its own capture index (0 = nothing captured).
type intentRule struct {
	typ     IntentType
	re      *regexp.Regexp
	nameIdx int
	chatIdx int
}

// intentRules is scanned in order; the first surviving match wins.
// Priority: agent-mood, then group-activity, then conversation-with-
// person, then the generic name-first fallback.
var intentRules = []intentRule{
	// mood: the asker wonders about the agent's state elsewhere
	{typ: IntentMood, re: regexp.MustCompile(`(?:kenapa|kok|knp)\s+(?:kamu|km|lo|lu)\s+(?:marah|sedih|kesal|kesel|bete|ngambek|die?m|galak|jutek)`)},
	{typ: IntentMood, re: regexp.MustCompile(`(?:kamu|km|lo|lu)\s+(?:lagi\s+)?(?:marah|sedih|bete|ngambek|kesel|bad\s?mood)(?:\s+ya)?\b`)},
	{typ: IntentMood, re: regexp.MustCompile(`are\s+you\s+(?:mad|angry|upset|sad)`)},

	// group activity: what is happening in chat X
	{typ: IntentGroupActivity, re: regexp.MustCompile(`(?:ada\s+)?(?:apa|ngapain|rame|seru)\s*(?:aja|saja)?\s+di\s+(?:grup|group|gc)\s+(.+)`), chatIdx: 1},
	{typ: IntentGroupActivity, re: regexp.MustCompile(`(?:grup|group|gc)\s+(.+?)\s+(?:lagi\s+)?(?:ngapain|rame|bahas\s+apa|gimana)`), chatIdx: 1},
	{typ: IntentGroupActivity, re: regexp.MustCompile(`what(?:'s|\s+is)\s+(?:happening|going\s+on)\s+in\s+(?:the\s+)?(.+?)\s+(?:group|chat)`), chatIdx: 1},

	// conversation with a person, connective-first word order
	{typ: IntentConversation, re: regexp.MustCompile(`(?:ngobrol|ngomong|chat|chatting|bicara|cerita)\s+(?:apa\s+)?(?:sama|dengan|ama|bareng)\s+(?:(?:si|pak|bu|mas|mbak|bang|kak)\s+)?(\w+)`), nameIdx: 1},
	{typ: IntentConversation, re: regexp.MustCompile(`(?:lagi\s+)?(?:ngapain|gimana\s+kabar)\s+(?:si|pak|bu|mas|mbak|bang|kak)\s+(\w+)`), nameIdx: 1},
	{typ: IntentConversation, re: regexp.MustCompile(`what\s+did\s+(\w+)\s+(?:say|tell\s+you)`), nameIdx: 1},

	// name-first fallback: "<name> bilang apa"
	{typ: IntentConversation, re: regexp.MustCompile(`(?:(?:si|pak|bu|mas|mbak|bang|kak)\s+)?(\w+)\s+(?:ngomong|bilang|cerita|nanya|curhat)\s+apa`), nameIdx: 1},
}

// capture stopwords: a token in this set is never a person or chat name
var intentStopwords = map[string]struct{}{
	"apa": {}, "aja": {}, "saja": {}, "dengan": {}, "sama": {}, "ama": {},
	"kamu": {}, "km": {}, "lo": {}, "lu": {}, "aku": {}, "saya": {}, "gue": {},
	"dia": {}, "itu": {}, "ini": {}, "siapa": {}, "orang": {}, "grup": {}, "group": {},
}

// CrossChatIntent classifies whether text asks about the agent's state
// or activity in another conversation. The agent's own name is treated
// as a stopword so "ngobrol sama <agent>" does not produce a false
// person target; a vetoed capture discards the rule rather than
// producing a wrong match.
func CrossChatIntent(text, agentName string) Intent {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return Intent{Type: IntentNone}
	}
	agent := strings.ToLower(strings.TrimSpace(agentName))

	for _, r := range intentRules {
		m := r.re.FindStringSubmatch(t)
		if m == nil {
			continue
		}
		out := Intent{IsCrossChat: true, Type: r.typ}
		if r.nameIdx > 0 {
			name := strings.TrimSpace(m[r.nameIdx])
			if vetoed(name, agent) {
				continue
			}
			out.TargetName = name
		}
		if r.chatIdx > 0 {
			chat := strings.TrimSpace(m[r.chatIdx])
			if vetoed(chat, agent) {
				continue
			}
			out.TargetChat = chat
		}
		return out
	}
	return Intent{Type: IntentNone}
}

func vetoed(tok, agent string) bool {
	if tok == "" {
		return true
	}
	if _, ok := intentStopwords[tok]; ok {
		return true
	}
	return agent != "" && tok == agent
}
