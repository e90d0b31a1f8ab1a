package handlers

import (
	"encoding/xml"
	"log/slog"
	"net/http"
	"strings"

	"github.com/clykins90/agent-dashboard/pkg/gateway/apierror"
	"github.com/clykins90/agent-dashboard/pkg/gateway/mw"
)

// Voice answers the telephony provider's inbound-call webhook with TwiML
// that connects the call's media to our websocket stream endpoint.
type Voice struct {
	// PublicURL is the externally reachable base URL of this service,
	// either http(s) or ws(s) form.
	PublicURL string
	Logger    *slog.Logger
}

type twimlStream struct {
	URL string `xml:"url,attr"`
}

type twimlConnect struct {
	Stream twimlStream `xml:"Stream"`
}

type twimlResponse struct {
	XMLName xml.Name     `xml:"Response"`
	Connect twimlConnect `xml:"Connect"`
}

func (h *Voice) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID, _ := mw.RequestIDFrom(r.Context())
	if r.Method != http.MethodPost {
		apierror.MethodNotAllowed(w, requestID)
		return
	}

	streamURL := StreamURL(h.PublicURL, r.Host)
	body, err := xml.Marshal(twimlResponse{
		Connect: twimlConnect{Stream: twimlStream{URL: streamURL}},
	})
	if err != nil {
		apierror.ServerError(w, requestID)
		return
	}

	if h.Logger != nil {
		h.Logger.Info("answering call", "stream_url", streamURL)
	}
	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write([]byte(xml.Header))
	_, _ = w.Write(body)
}

// StreamURL derives the websocket stream address from the public base URL,
// falling back to the request host when none is configured. http(s) schemes
// are rewritten to their ws(s) equivalents.
func StreamURL(publicURL, requestHost string) string {
	base := strings.TrimSuffix(strings.TrimSpace(publicURL), "/")
	if base == "" {
		base = "wss://" + requestHost
	}
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/stream"
}
