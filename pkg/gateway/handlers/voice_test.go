package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestVoice_TwiML(t *testing.T) {
	h := &Voice{PublicURL: "https://agent.example.com"}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/voice", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/xml" {
		t.Errorf("content type = %q", ct)
	}
	body := rec.Body.String()
	want := `<Response><Connect><Stream url="wss://agent.example.com/stream"></Stream></Connect></Response>`
	if !strings.Contains(body, want) {
		t.Errorf("body = %s", body)
	}
}

func TestVoice_GetRejected(t *testing.T) {
	h := &Voice{PublicURL: "https://agent.example.com"}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/voice", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestStreamURL(t *testing.T) {
	tests := []struct {
		name      string
		publicURL string
		host      string
		want      string
	}{
		{"https rewritten", "https://agent.example.com", "ignored", "wss://agent.example.com/stream"},
		{"http rewritten", "http://localhost:8787", "ignored", "ws://localhost:8787/stream"},
		{"wss kept", "wss://agent.example.com", "ignored", "wss://agent.example.com/stream"},
		{"trailing slash", "https://agent.example.com/", "ignored", "wss://agent.example.com/stream"},
		{"empty falls back to host", "", "agent.example.com", "wss://agent.example.com/stream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StreamURL(tt.publicURL, tt.host); got != tt.want {
				t.Errorf("StreamURL(%q, %q) = %q, want %q", tt.publicURL, tt.host, got, tt.want)
			}
		})
	}
}
