package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"recall/pkg/api"
	"recall/pkg/api/handlers"
	"recall/pkg/config"
	"recall/pkg/models"
	"recall/pkg/relevance"
	"recall/pkg/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })

	eng := config.Default().Engine
	asm := relevance.New(st, st, relevance.Options{
		AgentID:        eng.AgentID,
		AgentName:      eng.AgentName,
		MaxRelevant:    eng.MaxRelevantMessages,
		MaxCrossChat:   eng.MaxCrossChatMessages,
		MaxTopic:       eng.MaxTopicMessages,
		ThreadTopK:     eng.ThreadTopK,
		AliasMinScore:  eng.AliasMinScore,
		FactConfidence: eng.FactConfidenceThreshold,
	})
	h := api.NewRouter(handlers.Deps{Store: st, Assembler: asm, Engine: eng}, api.RateLimit{RPS: 1000, Burst: 1000})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, st
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestCreateAndListMessages(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/conversations/c1/messages", map[string]any{
		"sender_id":   "u1",
		"sender_name": "Budi Santoso",
		"content":     "nonton film horor tadi malam",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	var created models.Message
	decode(t, resp, &created)
	if created.ID == "" {
		t.Fatal("server must mint a message id")
	}
	if !created.HasTopic("entertainment") {
		t.Fatalf("ingest must tag topics, got %v", created.Topics)
	}

	resp, err := http.Get(srv.URL + "/v1/conversations/c1/messages")
	if err != nil {
		t.Fatal(err)
	}
	var msgs []models.Message
	decode(t, resp, &msgs)
	if len(msgs) != 1 || msgs[0].ID != created.ID {
		t.Fatalf("list = %+v", msgs)
	}
}

func TestCreateMessageValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/conversations/c1/messages", map[string]any{
		"sender_id": "u1",
		"content":   "",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty content should be rejected, got %d", resp.StatusCode)
	}
}

func TestAgentMessagesGetAgentRole(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/conversations/c1/messages", map[string]any{
		"sender_id": "agent",
		"content":   "halo, ada yang bisa kubantu?",
	})
	var created models.Message
	decode(t, resp, &created)
	if created.Role != models.RoleAgent {
		t.Fatalf("role = %s, want agent", created.Role)
	}
}

func TestBuildContextEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	for i := 0; i < 4; i++ {
		resp := postJSON(t, srv.URL+"/v1/conversations/c1/messages", map[string]any{
			"sender_id":   "u1",
			"sender_name": "Budi",
			"content":     fmt.Sprintf("pesan nomor %d", i),
		})
		resp.Body.Close()
	}

	resp := postJSON(t, srv.URL+"/v1/context", map[string]any{
		"conversation_id": "c1",
		"sender_id":       "u1",
		"text":            "lanjut dong",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("context status = %d", resp.StatusCode)
	}
	var win models.ContextWindow
	decode(t, resp, &win)
	if len(win.Entries) != 4 {
		t.Fatalf("window entries = %d, want 4", len(win.Entries))
	}

	resp = postJSON(t, srv.URL+"/v1/context", map[string]any{"text": "tanpa conversation"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing conversation_id should be rejected, got %d", resp.StatusCode)
	}
}

func TestResolveParticipantsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/conversations/c1/messages", map[string]any{
		"sender_id":   "u1",
		"sender_name": "Agus Wijaya",
		"content":     "halo semua",
	})
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/v1/participants/resolve?q=agus")
	if err != nil {
		t.Fatal(err)
	}
	var out struct {
		Query      string `json:"query"`
		Candidates []struct {
			ParticipantID string `json:"participant_id"`
			Score         int    `json:"score"`
		} `json:"candidates"`
	}
	decode(t, resp, &out)
	if len(out.Candidates) == 0 || out.Candidates[0].ParticipantID != "u1" {
		t.Fatalf("candidates = %+v", out.Candidates)
	}

	resp, err = http.Get(srv.URL + "/v1/participants/resolve")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing q should be rejected, got %d", resp.StatusCode)
	}
}

func TestFactEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	put := func(value string, confidence float64) *http.Response {
		b, _ := json.Marshal(map[string]any{"value": value, "confidence": confidence})
		req, err := http.NewRequest(http.MethodPut, srv.URL+"/v1/facts/u1/hometown", bytes.NewReader(b))
		if err != nil {
			t.Fatal(err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		return resp
	}

	resp := put("Jakarta", 0.8)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put status = %d", resp.StatusCode)
	}
	resp = put("Bandung", 0.9)
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/v1/facts/u1")
	if err != nil {
		t.Fatal(err)
	}
	var facts map[string]models.Fact
	decode(t, resp, &facts)
	if facts["hometown"].Value != "Bandung" {
		t.Fatalf("facts = %+v", facts)
	}

	resp, err = http.Get(srv.URL + "/v1/facts/u1/hometown/history")
	if err != nil {
		t.Fatal(err)
	}
	var hist []models.Fact
	decode(t, resp, &hist)
	if len(hist) != 1 || hist[0].Value != "Jakarta" {
		t.Fatalf("history = %+v", hist)
	}

	resp = put("", 0.9)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty value should be rejected, got %d", resp.StatusCode)
	}
	resp = put("Solo", 1.5)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("confidence 1.5 should be rejected, got %d", resp.StatusCode)
	}
}

func TestListConversationsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, id := range []string{"c2", "c1"} {
		resp := postJSON(t, srv.URL+"/v1/conversations/"+id+"/messages", map[string]any{
			"sender_id": "u1",
			"content":   "halo",
		})
		resp.Body.Close()
	}

	resp, err := http.Get(srv.URL + "/v1/conversations")
	if err != nil {
		t.Fatal(err)
	}
	var out []struct {
		ID           string `json:"id"`
		Participants int    `json:"participants"`
	}
	decode(t, resp, &out)
	if len(out) != 2 || out[0].ID != "c1" || out[1].ID != "c2" {
		t.Fatalf("conversations = %+v", out)
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}
}
