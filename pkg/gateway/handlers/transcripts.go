package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/clykins90/agent-dashboard/pkg/gateway/apierror"
	"github.com/clykins90/agent-dashboard/pkg/gateway/mw"
	"github.com/clykins90/agent-dashboard/pkg/store"
)

// Transcripts lists saved conversation transcripts, newest first.
type Transcripts struct {
	Store *store.Store
}

func (h *Transcripts) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID, _ := mw.RequestIDFrom(r.Context())
	if r.Method != http.MethodGet {
		apierror.MethodNotAllowed(w, requestID)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(h.Store.Transcripts())
}
