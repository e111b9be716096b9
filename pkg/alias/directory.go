// Package alias maintains a derived identity directory: every
// participant is mapped to a set of normalized alias strings mined from
// conversation display names and name-like facts, and free-text "who is
// X" queries are answered with an additively scored candidate list.
package alias

import (
	"regexp"
	"sort"
	"strings"

	"recall/pkg/models"
)

// Rule weights. A candidate accumulates the best per-alias combination
// plus directory-level bonuses; an exact alias hit dominates every
// partial signal (see Resolve).
const (
	scoreExact       = 10
	scoreAliasHasQ   = 5
	scoreQHasAlias   = 3
	scoreHonorific   = 4
	scoreTokenPrefix = 2
	scoreTokenSuffix = 3
	scoreLastToken   = 5
	scorePhone       = 15
)

// DefaultMinScore is the floor below which a candidate is treated as no
// match.
const DefaultMinScore = 2

var (
	honorificRe = regexp.MustCompile(`^(si|pak|bu|mas|mbak|bang|kak)\s+(\S+)$`)
	phoneRe     = regexp.MustCompile(`\d{10,}`)
	wsRe        = regexp.MustCompile(`\s+`)

	// name-like fact keys that carry aliases for their subject
	nameKeyRe = regexp.MustCompile(`^(name|full_name|nickname|first_name|last_name|alias|called)$`)
)

// Candidate is one scored directory answer.
type Candidate struct {
	ParticipantID string `json:"participant_id"`
	Score         int    `json:"score"`
}

// Directory maps participant ids to normalized alias sets. It is
// derived state: rebuilt from conversation and fact data, never
// persisted.
type Directory struct {
	minScore int
	aliases  map[string]map[string]struct{}
}

// New returns an empty directory. minScore <= 0 selects DefaultMinScore.
func New(minScore int) *Directory {
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	return &Directory{minScore: minScore, aliases: map[string]map[string]struct{}{}}
}

// Normalize lowercases and whitespace-normalizes an alias string.
func Normalize(s string) string {
	return wsRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
}

// Add registers an alias for a participant, plus each whitespace token
// longer than two runes of a multi-word alias.
func (d *Directory) Add(participantID, raw string) {
	a := Normalize(raw)
	if participantID == "" || a == "" {
		return
	}
	set := d.aliases[participantID]
	if set == nil {
		set = map[string]struct{}{}
		d.aliases[participantID] = set
	}
	set[a] = struct{}{}
	for _, tok := range strings.Fields(a) {
		if len([]rune(tok)) > 2 {
			set[tok] = struct{}{}
		}
	}
}

// AddConversation registers every participant display name of a
// conversation.
func (d *Directory) AddConversation(conv *models.Conversation) {
	if conv == nil {
		return
	}
	for id, ps := range conv.Participants {
		if ps != nil && ps.DisplayName != "" {
			d.Add(id, ps.DisplayName)
		}
	}
}

// AddFact registers aliases derived from a name-like fact: plain name
// keys, `*_nickname` keys, and `relationship_<name>_*` key fragments
// decoded from snake_case.
func (d *Directory) AddFact(f models.Fact) {
	key := strings.ToLower(f.Key)
	switch {
	case nameKeyRe.MatchString(key), strings.HasSuffix(key, "_nickname"):
		d.Add(f.SubjectID, f.Value)
	case strings.HasPrefix(key, "relationship_"):
		frag := strings.TrimPrefix(key, "relationship_")
		d.Add(f.SubjectID, strings.ReplaceAll(frag, "_", " "))
	}
}

// Aliases returns the normalized alias set for a participant. Exposed
// for tests and diagnostics.
func (d *Directory) Aliases(participantID string) []string {
	set := d.aliases[participantID]
	out := make([]string, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Resolve answers a fuzzy name query with candidates ordered by
// descending score, filtered to the directory's minimum score. An empty
// result means no match, not an error.
func (d *Directory) Resolve(query string) []Candidate {
	q := Normalize(query)
	if q == "" {
		return nil
	}

	var honorificTok string
	if m := honorificRe.FindStringSubmatch(q); m != nil {
		honorificTok = m[2]
	}
	phone := phoneRe.FindString(q)

	var out []Candidate
	for id, set := range d.aliases {
		score := d.scoreParticipant(id, set, q, honorificTok, phone)
		if score >= d.minScore {
			out = append(out, Candidate{ParticipantID: id, Score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].ParticipantID < out[j].ParticipantID
		}
		return out[i].Score > out[j].Score
	})
	return out
}

// Best returns the top candidate, or ok=false when nothing reaches the
// minimum score.
func (d *Directory) Best(query string) (Candidate, bool) {
	cands := d.Resolve(query)
	if len(cands) == 0 {
		return Candidate{}, false
	}
	return cands[0], true
}

func (d *Directory) scoreParticipant(id string, set map[string]struct{}, q, honorificTok, phone string) int {
	qTokens := strings.Fields(q)

	// best single alias wins; an exact hit dominates partial signals so
	// a name collision cannot out-vote a true match
	best := 0
	for a := range set {
		s := scoreAlias(a, q, qTokens)
		if s > best {
			best = s
		}
	}

	// directory-level bonuses stack on top of the best alias
	if honorificTok != "" {
		for a := range set {
			if tokenMatches(a, honorificTok) {
				best += scoreHonorific
				break
			}
		}
	}
	if phone != "" && strings.HasPrefix(id, phone) {
		best += scorePhone
	}
	return best
}

func scoreAlias(a, q string, qTokens []string) int {
	if a == q {
		return scoreExact
	}
	s := 0
	if strings.Contains(a, q) {
		s += scoreAliasHasQ
	} else if len([]rune(a)) > 2 && strings.Contains(q, a) {
		s += scoreQHasAlias
	}

	aTokens := strings.Fields(a)
	for _, qt := range qTokens {
		for _, at := range aTokens {
			if at == qt {
				continue // token equality is covered by the rules above
			}
			if strings.HasPrefix(at, qt) {
				s += scoreTokenPrefix
			} else if strings.HasSuffix(at, qt) {
				s += scoreTokenSuffix
			}
		}
	}

	// trailing name segment used as a nickname
	if len(aTokens) > 1 && aTokens[len(aTokens)-1] == q {
		s += scoreLastToken
	}
	return s
}

func tokenMatches(alias, tok string) bool {
	for _, at := range strings.Fields(alias) {
		if at == tok {
			return true
		}
	}
	return false
}
