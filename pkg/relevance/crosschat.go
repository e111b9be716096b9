package relevance

import (
	"context"
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"

	"recall/pkg/alias"
	"recall/pkg/classify"
	"recall/pkg/models"
	"recall/pkg/thread"
)

// scanConversations bounds how many other conversations a cross-chat
// question will load message logs for.
const scanConversations = 5

// excerptScanTail bounds how much of a group's log is segmented for
// activity excerpts.
const excerptScanTail = 50

// crossChat runs step 5: mine other conversations for excerpts
// answering a cross-chat question. Returned entries are already
// formatted with provenance; an error is degraded by the caller.
func (a *Assembler) crossChat(ctx context.Context, intent classify.Intent, currentConvID string) ([]models.ContextEntry, error) {
	convs, err := a.convs.ListConversations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	others := make([]*models.Conversation, 0, len(convs))
	for _, c := range convs {
		if c.ID != currentConvID {
			others = append(others, c)
		}
	}
	sort.SliceStable(others, func(i, j int) bool {
		if others[i].LastActiveAt.Equal(others[j].LastActiveAt) {
			return others[i].ID < others[j].ID
		}
		return others[i].LastActiveAt.After(others[j].LastActiveAt)
	})

	switch intent.Type {
	case classify.IntentMood:
		return a.moodExcerpts(ctx, others)
	case classify.IntentConversation:
		return a.personExcerpts(ctx, others, intent.TargetName)
	case classify.IntentGroupActivity:
		return a.groupExcerpts(ctx, others, intent.TargetChat)
	default:
		return nil, nil
	}
}

// moodExcerpts surfaces the agent's own recent messages from other
// conversations so the generator can explain its mood elsewhere.
func (a *Assembler) moodExcerpts(ctx context.Context, others []*models.Conversation) ([]models.ContextEntry, error) {
	var picked []models.Message
	labels := map[string]string{}
	for i, meta := range others {
		if i >= scanConversations {
			break
		}
		conv, err := a.convs.GetConversation(ctx, meta.ID)
		if err != nil {
			continue // a single unreadable conversation never blocks the rest
		}
		labels[conv.ID] = a.chatLabel(ctx, conv)
		for _, m := range conv.Messages {
			if m.Role == models.RoleAgent || m.SenderID == a.opts.AgentID {
				picked = append(picked, m)
			}
		}
	}
	picked = mostRecent(picked, a.opts.MaxCrossChat)

	entries := make([]models.ContextEntry, 0, len(picked))
	for _, m := range picked {
		entries = append(entries, a.excerptEntry(labels[m.ConversationID], a.opts.AgentName, m))
	}
	return entries, nil
}

// personExcerpts resolves the asked-about person through the alias
// directory, then scans other conversations for their recent messages.
// An unresolvable name is a valid empty result.
func (a *Assembler) personExcerpts(ctx context.Context, others []*models.Conversation, targetName string) ([]models.ContextEntry, error) {
	dir := a.buildDirectory(ctx, others)
	cand, ok := dir.Best(targetName)
	if !ok {
		return nil, nil
	}

	var picked []models.Message
	labels := map[string]string{}
	names := map[string]string{}
	scanned := 0
	for _, meta := range others {
		ps := meta.Participants[cand.ParticipantID]
		if ps == nil {
			continue
		}
		if scanned >= scanConversations {
			break
		}
		scanned++
		conv, err := a.convs.GetConversation(ctx, meta.ID)
		if err != nil {
			continue
		}
		labels[conv.ID] = a.chatLabel(ctx, conv)
		names[conv.ID] = ps.DisplayName
		for _, m := range conv.Messages {
			if m.SenderID == cand.ParticipantID {
				picked = append(picked, m)
			}
		}
	}
	picked = mostRecent(picked, a.opts.MaxCrossChat)

	entries := make([]models.ContextEntry, 0, len(picked))
	for _, m := range picked {
		name := m.SenderName
		if name == "" {
			name = names[m.ConversationID]
		}
		entries = append(entries, a.excerptEntry(labels[m.ConversationID], name, m))
	}
	return entries, nil
}

// groupExcerpts fuzzy-matches the asked-about group by display name,
// then segments and ranks its recent log for the most interesting
// threads.
func (a *Assembler) groupExcerpts(ctx context.Context, others []*models.Conversation, targetChat string) ([]models.ContextEntry, error) {
	gdir := alias.New(a.opts.AliasMinScore)
	for _, c := range others {
		if c.Kind != models.KindGroup {
			continue
		}
		if c.DisplayName != "" {
			gdir.Add(c.ID, c.DisplayName)
		}
		gdir.Add(c.ID, c.ID)
	}
	cand, ok := gdir.Best(targetChat)
	if !ok {
		return nil, nil
	}

	conv, err := a.convs.GetConversation(ctx, cand.ParticipantID)
	if err != nil {
		return nil, fmt.Errorf("load group %s: %w", cand.ParticipantID, err)
	}
	label := a.chatLabel(ctx, conv)

	tail := conv.Messages
	if len(tail) > excerptScanTail {
		tail = tail[len(tail)-excerptScanTail:]
	}
	ranked := thread.Rank(thread.Segment(tail), thread.RankContext{
		AgentID:    a.opts.AgentID,
		TopSenders: topSenders(conv, a.opts.AgentID),
		TopK:       a.opts.ThreadTopK,
	})

	var entries []models.ContextEntry
	for _, t := range ranked {
		for _, m := range t.Messages {
			if len(entries) >= a.opts.MaxCrossChat {
				return entries, nil
			}
			name := m.SenderName
			if name == "" {
				name = m.SenderID
			}
			entries = append(entries, a.excerptEntry(label, name, m))
		}
	}
	return entries, nil
}

// ResolveParticipants answers a fuzzy "who is X" query against a
// directory built from every conversation and name-like fact.
func (a *Assembler) ResolveParticipants(ctx context.Context, query string) ([]alias.Candidate, error) {
	convs, err := a.convs.ListConversations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return a.buildDirectory(ctx, convs).Resolve(query), nil
}

// buildDirectory assembles the alias directory over every other
// conversation's participants plus their name-like facts.
func (a *Assembler) buildDirectory(ctx context.Context, others []*models.Conversation) *alias.Directory {
	dir := alias.New(a.opts.AliasMinScore)
	seen := map[string]struct{}{}
	for _, c := range others {
		dir.AddConversation(c)
		for id := range c.Participants {
			if _, ok := seen[id]; ok || id == a.opts.AgentID {
				continue
			}
			seen[id] = struct{}{}
			facts, err := a.facts.GetFacts(ctx, id)
			if err != nil {
				continue // fact-derived aliases are a bonus, not a requirement
			}
			for _, f := range facts {
				dir.AddFact(f)
			}
		}
	}
	return dir
}

// excerptEntry formats one cross-chat excerpt with a human-readable
// provenance header.
func (a *Assembler) excerptEntry(chatLabel, who string, m models.Message) models.ContextEntry {
	rel := humanize.RelTime(m.TS, a.opts.Now(), "ago", "from now")
	return models.ContextEntry{
		Role:        models.EntrySystem,
		Content:     fmt.Sprintf("In %s: %s said (%s): %s", chatLabel, who, rel, m.Content),
		SourceLabel: "cross-chat",
		Priority:    models.PriorityInjected,
		TS:          m.TS,
		MessageID:   m.ID,
	}
}

// chatLabel resolves a human-readable conversation label, preferring
// the group-metadata collaborator when wired.
func (a *Assembler) chatLabel(ctx context.Context, conv *models.Conversation) string {
	if a.groups != nil {
		if md, err := a.groups.GroupMetadata(ctx, conv.ID); err == nil && md.DisplayName != "" {
			return md.DisplayName
		}
	}
	if conv.DisplayName != "" {
		return conv.DisplayName
	}
	return conv.ID
}

// mostRecent keeps the latest n messages, returned in chronological
// order.
func mostRecent(msgs []models.Message, n int) []models.Message {
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].TS.Before(msgs[j].TS) })
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	return msgs
}

// topSenders returns the conversation's top-3 most active non-agent
// sender ids, ties broken by id for determinism.
func topSenders(conv *models.Conversation, agentID string) []string {
	type ps struct {
		id    string
		count int
	}
	var all []ps
	for id, p := range conv.Participants {
		if id == agentID || p == nil {
			continue
		}
		all = append(all, ps{id, p.MessageCount})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].count == all[j].count {
			return all[i].id < all[j].id
		}
		return all[i].count > all[j].count
	})
	if len(all) > 3 {
		all = all[:3]
	}
	out := make([]string, len(all))
	for i, p := range all {
		out[i] = p.id
	}
	return out
}
