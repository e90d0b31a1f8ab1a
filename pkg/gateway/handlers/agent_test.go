package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clykins90/agent-dashboard/pkg/store"
)

func TestAgent_GetDefaultsThenUpdate(t *testing.T) {
	st := store.New(t.TempDir())
	h := &Agent{Store: st}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/agent", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var got store.AgentConfig
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Model == "" || got.SystemPrompt == "" {
		t.Errorf("defaults missing: %+v", got)
	}

	update := store.AgentConfig{
		SystemPrompt: "You book tables.",
		Model:        "gpt-4o-mini",
		Tools: []store.ToolConfig{{
			Name: "lookup", Description: "find a table", URL: "https://tools.example.com/lookup",
			Params: []store.ToolParam{{Name: "city", Required: true}},
		}},
	}
	body, _ := json.Marshal(update)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/agent", strings.NewReader(string(body))))
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Errorf("put body = %s", rec.Body.String())
	}

	if got := st.AgentConfig(); got.SystemPrompt != update.SystemPrompt || len(got.Tools) != 1 {
		t.Errorf("persisted config = %+v", got)
	}
}

func TestAgent_BadBody(t *testing.T) {
	h := &Agent{Store: store.New(t.TempDir())}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/agent", strings.NewReader("{nope")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestTranscripts_List(t *testing.T) {
	st := store.New(t.TempDir())
	tr := store.NewTranscript([]store.ChatMessage{{Role: "user", Content: "hi"}})
	if err := st.SaveTranscript(tr); err != nil {
		t.Fatal(err)
	}

	h := &Transcripts{Store: st}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transcripts", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got []store.Transcript
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].ID != tr.ID {
		t.Errorf("transcripts = %+v", got)
	}
}
