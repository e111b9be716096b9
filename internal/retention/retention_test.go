package retention

import (
	"context"
	"fmt"
	"testing"
	"time"

	"recall/pkg/config"
	"recall/pkg/models"
	"recall/pkg/store"
)

func seedStore(t *testing.T, msgs int) *store.Store {
	t.Helper()
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })
	for i := 0; i < msgs; i++ {
		m := models.Message{
			ID:       fmt.Sprintf("m%d", i),
			SenderID: "u1",
			Content:  "halo",
			TS:       time.Date(2026, 3, 1, 10, 0, i, 0, time.UTC),
			Role:     models.RoleUser,
		}
		if err := st.AppendMessage(context.Background(), "c1", m); err != nil {
			t.Fatal(err)
		}
	}
	return st
}

func TestRunOnceTrims(t *testing.T) {
	st := seedStore(t, 12)
	r := NewRunner(st, config.RetentionConfig{Enabled: true}, 5)

	if err := r.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	msgs, err := st.ListMessages(context.Background(), "c1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 5 {
		t.Fatalf("retained %d messages, want 5", len(msgs))
	}
	if msgs[0].ID != "m7" {
		t.Fatalf("oldest retained = %s, want m7", msgs[0].ID)
	}
}

func TestRunOnceDryRunLeavesLog(t *testing.T) {
	st := seedStore(t, 8)
	r := NewRunner(st, config.RetentionConfig{Enabled: true, DryRun: true}, 3)

	if err := r.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	msgs, err := st.ListMessages(context.Background(), "c1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 8 {
		t.Fatalf("dry run must not trim, got %d messages", len(msgs))
	}
}

func TestStartDisabledIsNoop(t *testing.T) {
	st := seedStore(t, 1)
	r := NewRunner(st, config.RetentionConfig{Enabled: false}, 5)
	cancel, err := r.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	cancel()
}

func TestStartRejectsBadCron(t *testing.T) {
	st := seedStore(t, 1)
	r := NewRunner(st, config.RetentionConfig{Enabled: true, Cron: "not a cron"}, 5)
	if _, err := r.Start(context.Background()); err == nil {
		t.Fatal("invalid cron must be rejected")
	}
}
