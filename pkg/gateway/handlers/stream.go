package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/clykins90/agent-dashboard/pkg/bridge"
	"github.com/clykins90/agent-dashboard/pkg/gateway/config"
	"github.com/clykins90/agent-dashboard/pkg/gateway/lifecycle"
	"github.com/clykins90/agent-dashboard/pkg/gateway/metrics"
	"github.com/clykins90/agent-dashboard/pkg/realtime"
	"github.com/clykins90/agent-dashboard/pkg/store"
	"github.com/clykins90/agent-dashboard/pkg/tools"
)

// Stream upgrades the telephony provider's media websocket and bridges it
// to a fresh realtime AI session for the duration of the call.
type Stream struct {
	Config    config.Config
	Store     *store.Store
	Metrics   *metrics.Metrics
	Lifecycle *lifecycle.Lifecycle
	Logger    *slog.Logger
}

func (h *Stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.Lifecycle.CallStarted() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	defer h.Lifecycle.CallEnded()

	upgrader := websocket.Upgrader{
		HandshakeTimeout: h.Config.WSHandshakeTimeout,
		// Telephony providers dial server to server with no Origin header.
		CheckOrigin: func(r *http.Request) bool {
			return h.Config.OriginAllowed(r.Header.Get("Origin"))
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("stream upgrade failed", "err", err)
		}
		return
	}

	// Snapshot the agent config at call start; edits mid-call apply to the
	// next call.
	agent := h.Store.AgentConfig()

	proxy := &tools.Proxy{
		Tools:   agent.Tools,
		Timeout: h.Config.ToolTimeout,
		Metrics: h.Metrics,
		Logger:  h.Logger,
	}

	session := bridge.New(bridge.Dependencies{
		Telephony: conn,
		ConnectAI: func(ctx context.Context) (bridge.AITransport, error) {
			return realtime.Connect(ctx, realtime.ConnectOptions{
				APIKey:           h.Config.OpenAIAPIKey,
				Model:            h.Config.RealtimeModel,
				Voice:            h.Config.DefaultVoice,
				Instructions:     agent.SystemPrompt,
				Tools:            agent.Tools,
				BaseURL:          h.Config.RealtimeURL,
				HandshakeTimeout: h.Config.WSHandshakeTimeout,
				WriteTimeout:     h.Config.WSWriteTimeout,
				Logger:           h.Logger,
			})
		},
		Tools:       proxy,
		Logger:      h.Logger,
		Metrics:     h.Metrics,
		Transcripts: callTranscriptSink{store: h.Store},
		Config: bridge.Config{
			WriteTimeout: h.Config.WSWriteTimeout,
		},
	})
	session.Run(r.Context())
}

// callTranscriptSink stores a finished call's lines as a transcript.
type callTranscriptSink struct {
	store *store.Store
}

func (s callTranscriptSink) SaveCallTranscript(messages []store.ChatMessage) error {
	return s.store.SaveTranscript(store.NewTranscript(messages))
}
