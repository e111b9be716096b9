package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"

	"recall/pkg/logger"
	"recall/pkg/metrics"
	"recall/pkg/models"
	"recall/pkg/relevance"
)

// ErrNotFound marks a missing conversation, message or fact. It is the
// engine's sentinel so assemblers wired to this store can errors.Is
// against their own package.
var ErrNotFound = relevance.ErrNotFound

// seq reduces key collisions when multiple messages share the same
// nanosecond timestamp.
var seq uint64

// Store is a pebble-backed conversation and fact repository. It
// satisfies relevance.ConversationStore and relevance.FactStore.
type Store struct {
	db *pebble.DB
	// mu serializes read-modify-write of conversation metadata on append;
	// pebble itself handles concurrent readers.
	mu sync.Mutex
}

// Open opens (or creates) a pebble database at the given path.
func Open(path string) (*Store, error) {
	logger.Info("opening_pebble_db", zap.String("path", path))
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	logger.Info("pebble_closed")
	return err
}

// Key layout:
//
//	conv:<id>:meta                          conversation metadata
//	conv:<id>:msg:<%020d ns>-<%06d seq>     message JSON, append order
//	archive:conv:<id>:msg:...               retention-trimmed messages
//	fact:<subject>:<key>                    current fact
//	facthist:<subject>:<key>:<%020d ns>     superseded fact values
func metaKey(convID string) []byte {
	return []byte(fmt.Sprintf("conv:%s:meta", convID))
}

func msgPrefix(convID string) []byte {
	return []byte(fmt.Sprintf("conv:%s:msg:", convID))
}

func msgKey(convID string, ts time.Time, n uint64) []byte {
	return []byte(fmt.Sprintf("conv:%s:msg:%020d-%06d", convID, ts.UTC().UnixNano(), n))
}

func factKey(subject, key string) []byte {
	return []byte(fmt.Sprintf("fact:%s:%s", subject, key))
}

func factHistKey(subject, key string, ts time.Time) []byte {
	return []byte(fmt.Sprintf("facthist:%s:%s:%020d", subject, key, ts.UTC().UnixNano()))
}

// prefixUpperBound returns the smallest key greater than every key with
// the given prefix.
func prefixUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

// EnsureConversation creates the conversation metadata record when it
// does not exist yet. Existing metadata is returned untouched.
func (s *Store) EnsureConversation(ctx context.Context, id string, kind models.Kind, displayName string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLocked(id, kind, displayName)
}

func (s *Store) ensureLocked(id string, kind models.Kind, displayName string) (*models.Conversation, error) {
	conv, err := s.getMeta(id)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if kind == "" {
		kind = models.KindPrivate
	}
	conv = &models.Conversation{
		ID:           id,
		Kind:         kind,
		DisplayName:  displayName,
		Participants: map[string]*models.ParticipantState{},
	}
	if err := s.putMeta(conv); err != nil {
		return nil, err
	}
	logger.Info("conversation_created", zap.String("conv", id), zap.String("kind", string(kind)))
	return conv, nil
}

func (s *Store) getMeta(id string) (*models.Conversation, error) {
	v, closer, err := s.db.Get(metaKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	var conv models.Conversation
	if err := json.Unmarshal(v, &conv); err != nil {
		return nil, fmt.Errorf("corrupt conversation meta %s: %w", id, err)
	}
	if conv.Participants == nil {
		conv.Participants = map[string]*models.ParticipantState{}
	}
	return &conv, nil
}

func (s *Store) putMeta(conv *models.Conversation) error {
	b, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("marshal conversation meta: %w", err)
	}
	return s.db.Set(metaKey(conv.ID), b, pebble.Sync)
}

// AppendMessage appends a message to a conversation's log and updates
// the conversation and sender state. The conversation is created on
// first append.
func (s *Store) AppendMessage(ctx context.Context, convID string, m models.Message) error {
	if convID == "" {
		return fmt.Errorf("empty conversation id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, err := s.ensureLocked(convID, "", "")
	if err != nil {
		metrics.StoreOps.WithLabelValues("append", "error").Inc()
		return err
	}

	if m.TS.IsZero() {
		m.TS = time.Now().UTC()
	}
	m.ConversationID = convID

	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	key := msgKey(convID, m.TS, atomic.AddUint64(&seq, 1))
	if err := s.db.Set(key, b, pebble.Sync); err != nil {
		metrics.StoreOps.WithLabelValues("append", "error").Inc()
		logger.Error("append_message_failed", zap.String("conv", convID), zap.Error(err))
		return err
	}

	conv.LastActiveAt = m.TS
	ps := conv.Participants[m.SenderID]
	if ps == nil {
		ps = &models.ParticipantState{ID: m.SenderID, DisplayName: m.SenderName}
		conv.Participants[m.SenderID] = ps
	}
	ps.Touch(m)
	if len(conv.Participants) > 2 && conv.Kind == models.KindPrivate {
		conv.Kind = models.KindGroup
	}
	if err := s.putMeta(conv); err != nil {
		return err
	}
	metrics.StoreOps.WithLabelValues("append", "ok").Inc()
	logger.Debug("message_appended", zap.String("conv", convID), zap.String("id", m.ID))
	return nil
}

// GetConversation returns conversation metadata with its full retained
// message log loaded, or ErrNotFound.
func (s *Store) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	conv, err := s.getMeta(id)
	if err != nil {
		return nil, err
	}
	msgs, err := s.ListMessages(ctx, id, 0)
	if err != nil {
		return nil, err
	}
	conv.Messages = msgs
	return conv, nil
}

// ListMessages returns a conversation's messages in append order. A
// positive limit keeps only the most recent limit messages.
func (s *Store) ListMessages(ctx context.Context, convID string, limit int) ([]models.Message, error) {
	prefix := msgPrefix(convID)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []models.Message
	for iter.First(); iter.Valid(); iter.Next() {
		var m models.Message
		if err := json.Unmarshal(iter.Value(), &m); err != nil {
			logger.Warn("skip_corrupt_message", zap.String("conv", convID), zap.Error(err))
			continue
		}
		out = append(out, m)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// ListConversations returns metadata for every conversation, message
// logs not loaded.
func (s *Store) ListConversations(ctx context.Context) ([]*models.Conversation, error) {
	prefix := []byte("conv:")
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []*models.Conversation
	for iter.First(); iter.Valid(); iter.Next() {
		k := iter.Key()
		if len(k) < 5 || string(k[len(k)-5:]) != ":meta" {
			continue
		}
		var conv models.Conversation
		if err := json.Unmarshal(iter.Value(), &conv); err != nil {
			logger.Warn("skip_corrupt_meta", zap.ByteString("key", k), zap.Error(err))
			continue
		}
		if conv.Participants == nil {
			conv.Participants = map[string]*models.ParticipantState{}
		}
		c := conv
		out = append(out, &c)
	}
	return out, iter.Error()
}

// PutFact writes the current value for (subject, key), recording any
// superseded value in the fact history log.
func (s *Store) PutFact(ctx context.Context, f models.Fact) error {
	if f.SubjectID == "" || f.Key == "" {
		return fmt.Errorf("fact requires subject and key")
	}
	if f.UpdatedAt.IsZero() {
		f.UpdatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// move the previous value, if any, into history
	if prev, closer, err := s.db.Get(factKey(f.SubjectID, f.Key)); err == nil {
		var old models.Fact
		uerr := json.Unmarshal(prev, &old)
		closer.Close()
		if uerr == nil {
			hb, _ := json.Marshal(old)
			if err := s.db.Set(factHistKey(f.SubjectID, f.Key, old.UpdatedAt), hb, pebble.NoSync); err != nil {
				logger.Warn("fact_history_write_failed", zap.String("subject", f.SubjectID), zap.Error(err))
			}
		}
	}

	b, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal fact: %w", err)
	}
	if err := s.db.Set(factKey(f.SubjectID, f.Key), b, pebble.Sync); err != nil {
		metrics.StoreOps.WithLabelValues("put_fact", "error").Inc()
		return err
	}
	metrics.StoreOps.WithLabelValues("put_fact", "ok").Inc()
	return nil
}

// GetFacts returns the current facts for a subject keyed by fact key.
// A subject with no facts yields an empty map.
func (s *Store) GetFacts(ctx context.Context, subjectID string) (map[string]models.Fact, error) {
	prefix := []byte(fmt.Sprintf("fact:%s:", subjectID))
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	out := map[string]models.Fact{}
	for iter.First(); iter.Valid(); iter.Next() {
		var f models.Fact
		if err := json.Unmarshal(iter.Value(), &f); err != nil {
			continue
		}
		out[f.Key] = f
	}
	return out, iter.Error()
}

// FactHistory returns superseded values for (subject, key), oldest first.
func (s *Store) FactHistory(ctx context.Context, subjectID, key string) ([]models.Fact, error) {
	prefix := []byte(fmt.Sprintf("facthist:%s:%s:", subjectID, key))
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []models.Fact
	for iter.First(); iter.Valid(); iter.Next() {
		var f models.Fact
		if err := json.Unmarshal(iter.Value(), &f); err != nil {
			continue
		}
		out = append(out, f)
	}
	return out, iter.Error()
}

// TrimConversation moves the oldest messages beyond keep into the
// archive namespace and returns how many were moved. Conversations are
// never deleted, only archived.
func (s *Store) TrimConversation(ctx context.Context, convID string, keep int) (int, error) {
	if keep <= 0 {
		return 0, fmt.Errorf("keep must be positive")
	}
	prefix := msgPrefix(convID)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return 0, err
	}

	type kv struct{ k, v []byte }
	var all []kv
	for iter.First(); iter.Valid(); iter.Next() {
		k := append([]byte(nil), iter.Key()...)
		v := append([]byte(nil), iter.Value()...)
		all = append(all, kv{k, v})
	}
	if err := iter.Error(); err != nil {
		iter.Close()
		return 0, err
	}
	iter.Close()

	if len(all) <= keep {
		return 0, nil
	}
	excess := all[:len(all)-keep]

	batch := s.db.NewBatch()
	defer batch.Close()
	for _, e := range excess {
		if err := batch.Set(append([]byte("archive:"), e.k...), e.v, nil); err != nil {
			return 0, err
		}
		if err := batch.Delete(e.k, nil); err != nil {
			return 0, err
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		metrics.StoreOps.WithLabelValues("trim", "error").Inc()
		return 0, err
	}
	metrics.StoreOps.WithLabelValues("trim", "ok").Inc()
	logger.Info("conversation_trimmed", zap.String("conv", convID), zap.Int("archived", len(excess)))
	return len(excess), nil
}
