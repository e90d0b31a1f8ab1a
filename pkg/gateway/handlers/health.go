// Package handlers contains the HTTP endpoints of the agent API: health,
// the voice webhook, token minting, agent configuration, transcripts, and
// the telephony media stream.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/clykins90/agent-dashboard/pkg/gateway/lifecycle"
)

// Health reports process liveness.
type Health struct{}

func (Health) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
}

// Ready reports readiness to take calls; it flips to 503 while draining.
type Ready struct {
	Lifecycle *lifecycle.Lifecycle
}

func (h Ready) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if h.Lifecycle.IsDraining() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "draining"})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "ready"})
}
