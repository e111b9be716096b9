// Package relevance assembles bounded, ordered context windows. It
// merges the target conversation's recent history with topic-matched
// history, reply surroundings, cross-chat excerpts, image context and
// participant facts, under strict size and dedup invariants.
package relevance

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"recall/pkg/alias"
	"recall/pkg/classify"
	"recall/pkg/logger"
	"recall/pkg/metrics"
	"recall/pkg/models"
)

// Options holds the assembler's tunables. Zero fields fall back to the
// documented defaults.
type Options struct {
	AgentID   string
	AgentName string
	// MaxRelevant caps message entries in the returned window.
	MaxRelevant int
	// MaxCrossChat caps excerpts injected from other conversations.
	MaxCrossChat int
	// MaxTopic caps topic-matched history pulls; each topic tag
	// contributes at most half of it.
	MaxTopic       int
	ThreadTopK     int
	AliasMinScore  int
	FactConfidence float64
	// Now supplies the clock; fixed in tests for determinism.
	Now func() time.Time
}

func (o *Options) fill() {
	if o.MaxRelevant <= 0 {
		o.MaxRelevant = 20
	}
	if o.MaxCrossChat <= 0 {
		o.MaxCrossChat = 10
	}
	if o.MaxTopic <= 0 {
		o.MaxTopic = 10
	}
	if o.ThreadTopK <= 0 {
		o.ThreadTopK = 2
	}
	if o.AliasMinScore <= 0 {
		o.AliasMinScore = alias.DefaultMinScore
	}
	if o.FactConfidence <= 0 {
		o.FactConfidence = 0.75
	}
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
}

// Assembler builds context windows from injected collaborators. All
// dependencies are constructor-time; optional ones may be nil and their
// steps are skipped.
type Assembler struct {
	convs  ConversationStore
	facts  FactStore
	images ImageSimilarityLookup
	groups GroupMetadataLookup
	opts   Options
}

// New wires an assembler to its required stores.
func New(convs ConversationStore, facts FactStore, opts Options) *Assembler {
	opts.fill()
	return &Assembler{convs: convs, facts: facts, opts: opts}
}

// WithImageLookup attaches the optional image-similarity collaborator.
func (a *Assembler) WithImageLookup(l ImageSimilarityLookup) *Assembler {
	a.images = l
	return a
}

// WithGroupLookup attaches the optional group-metadata collaborator.
func (a *Assembler) WithGroupLookup(l GroupMetadataLookup) *Assembler {
	a.groups = l
	return a
}

// BuildContext assembles the context window for one inbound message.
// It always returns a (possibly empty) window; collaborator failures
// degrade the result instead of aborting. The only error is a missing
// conversation id, which is a caller contract violation.
func (a *Assembler) BuildContext(ctx context.Context, query models.Message) (models.ContextWindow, error) {
	if query.ConversationID == "" {
		return models.ContextWindow{}, fmt.Errorf("conversation id is required")
	}
	start := a.opts.Now()
	win := models.ContextWindow{ConversationID: query.ConversationID}
	metrics.ContextBuilds.Inc()

	var history []models.Message
	conv, err := a.convs.GetConversation(ctx, query.ConversationID)
	switch {
	case err == nil:
		history = conv.Messages
	case errors.Is(err, ErrNotFound):
		conv = nil // empty base window, remaining steps still run
	default:
		conv = nil
		a.degrade(&win, "conversation", err)
	}

	// steps 1-4: recent base, topic pulls, reply splice, recency-biased
	// truncation back to the cap
	selected := a.selectHistory(history, query)
	for _, m := range selected {
		win.Entries = append(win.Entries, a.historyEntry(conv, m))
	}

	// step 5: cross-chat excerpts
	if intent := classify.CrossChatIntent(query.Content, a.opts.AgentName); intent.IsCrossChat {
		entries, err := a.crossChat(ctx, intent, query.ConversationID)
		if err != nil {
			a.degrade(&win, "cross_chat", err)
		} else {
			win.Entries = append(win.Entries, entries...)
		}
	}

	// step 6: previously shared image context
	if entry, ok := a.imageContext(ctx, query, history, &win); ok {
		win.Entries = append(win.Entries, entry)
	}

	// step 7: facts about the most active non-agent participant
	if entry, ok := a.factContext(ctx, conv, &win); ok {
		win.Entries = append(win.Entries, entry)
	}

	// step 8: final stable ordering by priority, assembly order preserved
	sort.SliceStable(win.Entries, func(i, j int) bool {
		return win.Entries[i].Priority < win.Entries[j].Priority
	})

	metrics.ContextBuildSeconds.Observe(a.opts.Now().Sub(start).Seconds())
	metrics.WindowEntries.Observe(float64(len(win.Entries)))
	return win, nil
}

// selectHistory performs steps 1-4: base recency slice, topic-matched
// augmentation, reply splice, then a timestamp re-sort and truncation
// back to the most recent MaxRelevant.
func (a *Assembler) selectHistory(history []models.Message, query models.Message) []models.Message {
	if len(history) == 0 {
		return nil
	}
	n := a.opts.MaxRelevant

	// order index per message id, so merged picks re-sort stably even
	// with equal timestamps
	order := make(map[string]int, len(history))
	for i, m := range history {
		order[m.ID] = i
	}

	picked := map[string]struct{}{}
	var out []models.Message
	add := func(m models.Message) {
		if _, ok := picked[m.ID]; ok {
			return
		}
		picked[m.ID] = struct{}{}
		out = append(out, m)
	}

	// step 1: most recent n as the base window
	base := history
	if len(base) > n {
		base = base[len(base)-n:]
	}
	for _, m := range base {
		add(m)
	}

	// step 2: per-topic history pulls, capped at MaxTopic/2 each
	perTopic := a.opts.MaxTopic / 2
	if perTopic > 0 {
		for _, tag := range classify.Topics(query.Content) {
			count := 0
			for i := len(history) - 1; i >= 0 && count < perTopic; i-- {
				if history[i].HasTopic(tag) {
					add(history[i])
					count++
				}
			}
		}
	}

	// step 3: local coherence around a quoted message
	if query.ReplyTo != "" {
		if idx, ok := indexOf(history, query.ReplyTo); ok {
			lo, hi := idx-2, idx+2
			if lo < 0 {
				lo = 0
			}
			if hi > len(history)-1 {
				hi = len(history) - 1
			}
			for _, m := range history[lo : hi+1] {
				add(m)
			}
		}
	}

	// step 4: chronological order, then recency-biased truncation
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TS.Equal(out[j].TS) {
			return order[out[i].ID] < order[out[j].ID]
		}
		return out[i].TS.Before(out[j].TS)
	})
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}

func indexOf(msgs []models.Message, id string) (int, bool) {
	for i, m := range msgs {
		if m.ID == id {
			return i, true
		}
	}
	return 0, false
}

// historyEntry renders one core-conversation message. Group messages
// are prefixed with the sender name so the generator can follow a
// multi-party exchange.
func (a *Assembler) historyEntry(conv *models.Conversation, m models.Message) models.ContextEntry {
	role := models.EntryUser
	if m.Role == models.RoleAgent || m.SenderID == a.opts.AgentID {
		role = models.EntryAssistant
	}
	content := m.Content
	if conv != nil && conv.Kind == models.KindGroup && role == models.EntryUser && m.SenderName != "" {
		content = m.SenderName + ": " + content
	}
	return models.ContextEntry{
		Role:        role,
		Content:     content,
		SourceLabel: "history",
		Priority:    models.PriorityCore,
		TS:          m.TS,
		MessageID:   m.ID,
	}
}

var (
	imageTemporalRe      = regexp.MustCompile(`\b(?:tadi|barusan|sebelumnya|kemarin|earlier)\b`)
	imageDemonstrativeRe = regexp.MustCompile(`\b(?:itu|tersebut|tsb|yang|that)\b`)
)

// imageContext runs step 6: only when the query plausibly references a
// previously shared image and this conversation holds at least one
// prior image-analysis message.
func (a *Assembler) imageContext(ctx context.Context, query models.Message, history []models.Message, win *models.ContextWindow) (models.ContextEntry, bool) {
	if a.images == nil {
		return models.ContextEntry{}, false
	}
	text := strings.ToLower(query.Content)
	explicit := classify.HasTopic(text, classify.TopicImage)
	deictic := imageTemporalRe.MatchString(text) && imageDemonstrativeRe.MatchString(text)
	if !explicit && !deictic {
		return models.ContextEntry{}, false
	}

	analyses := map[string]models.Message{}
	for _, m := range history {
		if m.Role == models.RoleAgent && m.HasTopic(classify.TopicImage) {
			analyses[m.ID] = m
		}
	}
	if len(analyses) == 0 {
		return models.ContextEntry{}, false
	}

	matches, err := a.images.Similar(ctx, query.Content, ImageQuery{
		ConversationID: query.ConversationID,
		Since:          24 * time.Hour,
		Limit:          3,
		Threshold:      0.3,
	})
	if err != nil {
		a.degrade(win, "image_lookup", err)
		return models.ContextEntry{}, false
	}

	best, bestScore := models.Message{}, -1.0
	for _, match := range matches {
		m, ok := analyses[match.MessageID]
		if !ok {
			continue
		}
		if match.Similarity > bestScore {
			best, bestScore = m, match.Similarity
		}
	}
	if bestScore < 0 {
		return models.ContextEntry{}, false
	}
	// synthesized entry: MessageID stays empty so the analysis message
	// can also sit in the base window without breaking window dedup
	return models.ContextEntry{
		Role:        models.EntrySystem,
		Content:     "Previously shared image: " + best.Content,
		SourceLabel: "image",
		Priority:    models.PriorityInjected,
		TS:          best.TS,
	}, true
}

// factContext runs step 7: one low-priority system entry summarizing
// confident facts about the conversation's most active non-agent
// participant.
func (a *Assembler) factContext(ctx context.Context, conv *models.Conversation, win *models.ContextWindow) (models.ContextEntry, bool) {
	subject := a.mostActiveParticipant(conv)
	if subject == nil {
		return models.ContextEntry{}, false
	}
	facts, err := a.facts.GetFacts(ctx, subject.ID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			a.degrade(win, "facts", err)
		}
		return models.ContextEntry{}, false
	}

	keys := make([]string, 0, len(facts))
	for k, f := range facts {
		if f.Confidence >= a.opts.FactConfidence {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return models.ContextEntry{}, false
	}
	sort.Strings(keys)

	name := subject.DisplayName
	if name == "" {
		name = subject.ID
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Known facts about %s:", name)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s: %s;", k, facts[k].Value)
	}
	return models.ContextEntry{
		Role:        models.EntrySystem,
		Content:     strings.TrimSuffix(b.String(), ";"),
		SourceLabel: "facts",
		Priority:    models.PriorityFacts,
		TS:          a.opts.Now(),
	}, true
}

func (a *Assembler) mostActiveParticipant(conv *models.Conversation) *models.ParticipantState {
	if conv == nil {
		return nil
	}
	var best *models.ParticipantState
	ids := make([]string, 0, len(conv.Participants))
	for id := range conv.Participants {
		ids = append(ids, id)
	}
	sort.Strings(ids) // deterministic tie-break
	for _, id := range ids {
		ps := conv.Participants[id]
		if ps == nil || id == a.opts.AgentID {
			continue
		}
		if best == nil || ps.MessageCount > best.MessageCount {
			best = ps
		}
	}
	return best
}

func (a *Assembler) degrade(win *models.ContextWindow, collaborator string, err error) {
	metrics.DegradedLookups.WithLabelValues(collaborator).Inc()
	logger.Warn("context_lookup_degraded",
		zap.String("collaborator", collaborator),
		zap.String("conv", win.ConversationID),
		zap.Error(err),
	)
	win.Degraded = append(win.Degraded, collaborator)
}
