package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/clykins90/agent-dashboard/pkg/gateway/apierror"
	"github.com/clykins90/agent-dashboard/pkg/gateway/mw"
	"github.com/clykins90/agent-dashboard/pkg/store"
)

// Agent serves and updates the persisted agent configuration: system
// prompt, chat model, and function tool definitions.
type Agent struct {
	Store  *store.Store
	Logger *slog.Logger
}

func (h *Agent) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID, _ := mw.RequestIDFrom(r.Context())
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(h.Store.AgentConfig())
	case http.MethodPut, http.MethodPost:
		var cfg store.AgentConfig
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			apierror.BadRequest(w, "invalid agent config", requestID)
			return
		}
		if err := h.Store.SetAgentConfig(cfg); err != nil {
			if h.Logger != nil {
				h.Logger.Error("persist agent config failed", "err", err)
			}
			apierror.ServerError(w, requestID)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	default:
		apierror.MethodNotAllowed(w, requestID)
	}
}
