package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"recall/pkg/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func testMsg(conv, id, sender string, i int) models.Message {
	return models.Message{
		ID:             id,
		ConversationID: conv,
		SenderID:       sender,
		SenderName:     "Budi",
		Content:        fmt.Sprintf("pesan %d", i),
		TS:             time.Date(2026, 3, 1, 10, 0, i, 0, time.UTC),
		Role:           models.RoleUser,
	}
}

func TestAppendAndListMessages(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		if err := st.AppendMessage(ctx, "c1", testMsg("c1", fmt.Sprintf("m%d", i), "u1", i)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	msgs, err := st.ListMessages(ctx, "c1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 5 {
		t.Fatalf("got %d messages, want 5", len(msgs))
	}
	for i, m := range msgs {
		if want := fmt.Sprintf("m%d", i+1); m.ID != want {
			t.Fatalf("order broken at %d: %s", i, m.ID)
		}
	}

	tail, err := st.ListMessages(ctx, "c1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(tail) != 2 || tail[0].ID != "m4" {
		t.Fatalf("limit should keep the most recent, got %+v", tail)
	}
}

func TestParticipantStateUpdated(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if err := st.AppendMessage(ctx, "c1", testMsg("c1", fmt.Sprintf("m%d", i), "u1", i)); err != nil {
			t.Fatal(err)
		}
	}
	conv, err := st.GetConversation(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	ps := conv.Participants["u1"]
	if ps == nil || ps.MessageCount != 3 {
		t.Fatalf("participant state = %+v", ps)
	}
	if ps.LastPreview != "pesan 3" {
		t.Fatalf("preview = %q", ps.LastPreview)
	}
	if len(conv.Messages) != 3 {
		t.Fatalf("expected loaded log, got %d", len(conv.Messages))
	}
}

func TestKindFlipsToGroup(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	for i, sender := range []string{"u1", "u2", "u3"} {
		if err := st.AppendMessage(ctx, "c1", testMsg("c1", fmt.Sprintf("m%d", i), sender, i)); err != nil {
			t.Fatal(err)
		}
	}
	conv, err := st.GetConversation(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if conv.Kind != models.KindGroup {
		t.Fatalf("three participants should flip kind to group, got %s", conv.Kind)
	}
}

func TestGetConversationNotFound(t *testing.T) {
	st := openTestStore(t)
	if _, err := st.GetConversation(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestTrimConversationArchives(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		if err := st.AppendMessage(ctx, "c1", testMsg("c1", fmt.Sprintf("m%d", i), "u1", i)); err != nil {
			t.Fatal(err)
		}
	}
	moved, err := st.TrimConversation(ctx, "c1", 4)
	if err != nil {
		t.Fatal(err)
	}
	if moved != 6 {
		t.Fatalf("moved = %d, want 6", moved)
	}
	msgs, err := st.ListMessages(ctx, "c1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 4 || msgs[0].ID != "m7" {
		t.Fatalf("retained tail wrong: %+v", msgs)
	}

	// second run is a no-op
	moved, err = st.TrimConversation(ctx, "c1", 4)
	if err != nil || moved != 0 {
		t.Fatalf("second trim moved=%d err=%v", moved, err)
	}
}

func TestFactsRoundtripAndHistory(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	f1 := models.Fact{SubjectID: "u1", Key: "hometown", Value: "Jakarta", Confidence: 0.7,
		UpdatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	f2 := models.Fact{SubjectID: "u1", Key: "hometown", Value: "Bandung", Confidence: 0.9,
		UpdatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)}

	if err := st.PutFact(ctx, f1); err != nil {
		t.Fatal(err)
	}
	if err := st.PutFact(ctx, f2); err != nil {
		t.Fatal(err)
	}

	facts, err := st.GetFacts(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got := facts["hometown"].Value; got != "Bandung" {
		t.Fatalf("current value = %q, want Bandung", got)
	}

	hist, err := st.FactHistory(ctx, "u1", "hometown")
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 1 || hist[0].Value != "Jakarta" {
		t.Fatalf("history = %+v", hist)
	}

	empty, err := st.GetFacts(ctx, "nobody")
	if err != nil || len(empty) != 0 {
		t.Fatalf("unknown subject should yield empty map, got %v %v", empty, err)
	}
}

func TestListConversations(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.AppendMessage(ctx, "c1", testMsg("c1", "m1", "u1", 1)); err != nil {
		t.Fatal(err)
	}
	if err := st.AppendMessage(ctx, "c2", testMsg("c2", "m2", "u2", 2)); err != nil {
		t.Fatal(err)
	}
	convs, err := st.ListConversations(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(convs) != 2 {
		t.Fatalf("got %d conversations, want 2", len(convs))
	}
}
