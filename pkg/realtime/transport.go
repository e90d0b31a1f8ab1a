// Package realtime implements the websocket client for the voice-AI
// realtime API: session setup, audio and event plumbing, and ephemeral
// credential minting.
package realtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/clykins90/agent-dashboard/pkg/store"
)

const DefaultURL = "wss://api.openai.com/v1/realtime"

type ConnectOptions struct {
	APIKey       string
	Model        string
	Voice        string
	Instructions string
	Tools        []store.ToolConfig

	// BaseURL overrides DefaultURL, mainly for tests.
	BaseURL          string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	Logger           *slog.Logger
}

// Transport is one live realtime websocket connection. Writes are
// serialized; Close is idempotent and safe from any goroutine.
type Transport struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	logger       *slog.Logger

	events    chan Event
	closeOnce sync.Once
	closedCh  chan struct{}

	writeMu sync.Mutex
}

// Connect dials the realtime endpoint and configures the session for the
// telephony leg's audio format. There are no retries: a connect failure is
// the caller's to surface.
func Connect(ctx context.Context, opts ConnectOptions) (*Transport, error) {
	if opts.APIKey == "" {
		return nil, errors.New("realtime: missing API key")
	}
	base := opts.BaseURL
	if base == "" {
		base = DefaultURL
	}
	model := opts.Model
	if model == "" {
		model = "gpt-realtime"
	}

	dialer := websocket.Dialer{HandshakeTimeout: opts.HandshakeTimeout}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+opts.APIKey)

	conn, resp, err := dialer.DialContext(ctx, base+"?model="+url.QueryEscape(model), header)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, fmt.Errorf("realtime: dial: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	t := &Transport{
		conn:         conn,
		writeTimeout: opts.WriteTimeout,
		logger:       logger,
		events:       make(chan Event, 64),
		closedCh:     make(chan struct{}),
	}

	if err := t.sendJSON(sessionUpdate(opts)); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("realtime: session update: %w", err)
	}

	go t.readLoop()
	return t, nil
}

// Events yields parsed server events. The channel closes after a
// ClosedEvent once the socket is gone.
func (t *Transport) Events() <-chan Event {
	return t.events
}

// SendAudio appends raw audio bytes to the input buffer. The session's
// input format was fixed at connect time, so bytes pass through unchanged.
func (t *Transport) SendAudio(data []byte) error {
	return t.sendJSON(map[string]any{
		"type":  "input_audio_buffer.append",
		"audio": base64.StdEncoding.EncodeToString(data),
	})
}

// CreateResponse asks the model to produce a response turn now, used for
// the initial greeting and after tool results.
func (t *Transport) CreateResponse() error {
	return t.sendJSON(map[string]any{"type": "response.create"})
}

// SendFunctionResult reports a tool call's output and requests the next
// turn.
func (t *Transport) SendFunctionResult(callID, output string) error {
	if err := t.sendJSON(map[string]any{
		"type": "conversation.item.create",
		"item": map[string]any{
			"type":    "function_call_output",
			"call_id": callID,
			"output":  output,
		},
	}); err != nil {
		return err
	}
	return t.CreateResponse()
}

func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		close(t.closedCh)
		deadline := time.Now().Add(time.Second)
		_ = t.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = t.conn.Close()
	})
	return nil
}

func (t *Transport) sendJSON(v any) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	timeout := t.writeTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	_ = t.conn.SetWriteDeadline(time.Now().Add(timeout))
	return t.conn.WriteJSON(v)
}

func (t *Transport) readLoop() {
	defer close(t.events)
	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			var closed ClosedEvent
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				closed.Err = err
			}
			t.emit(closed)
			return
		}
		ev, ok := parseServerEvent(data)
		if !ok {
			continue
		}
		if !t.emit(ev) {
			return
		}
	}
}

func (t *Transport) emit(ev Event) bool {
	select {
	case t.events <- ev:
		return true
	case <-t.closedCh:
		return false
	}
}

type serverEnvelope struct {
	Type       string `json:"type"`
	Delta      string `json:"delta"`
	Name       string `json:"name"`
	CallID     string `json:"call_id"`
	Arguments  string `json:"arguments"`
	Transcript string `json:"transcript"`
	Error      *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func parseServerEvent(data []byte) (Event, bool) {
	var env serverEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, false
	}

	switch env.Type {
	case "response.output_audio.delta", "response.audio.delta":
		raw, err := base64.StdEncoding.DecodeString(env.Delta)
		if err != nil || len(raw) == 0 {
			return nil, false
		}
		return AudioEvent{Data: raw}, true
	case "response.function_call_arguments.done":
		return FunctionCallEvent{Name: env.Name, CallID: env.CallID, Arguments: env.Arguments}, true
	case "response.output_audio_transcript.done", "response.audio_transcript.done":
		return TranscriptEvent{Role: "assistant", Text: env.Transcript}, true
	case "conversation.item.input_audio_transcription.completed":
		return TranscriptEvent{Role: "user", Text: env.Transcript}, true
	case "error":
		ev := ErrorEvent{}
		if env.Error != nil {
			ev.Code = env.Error.Code
			ev.Message = env.Error.Message
		}
		return ev, true
	default:
		return nil, false
	}
}

// sessionUpdate fixes the session to mu-law in and out so the telephony
// leg's bytes pass through without transcoding.
func sessionUpdate(opts ConnectOptions) map[string]any {
	output := map[string]any{
		"format": map[string]any{"type": "audio/pcmu"},
		"speed":  1,
	}
	if opts.Voice != "" {
		output["voice"] = opts.Voice
	}

	session := map[string]any{
		"type":              "realtime",
		"output_modalities": []string{"audio"},
		"audio": map[string]any{
			"input":  map[string]any{"format": map[string]any{"type": "audio/pcmu"}},
			"output": output,
		},
	}
	if opts.Instructions != "" {
		session["instructions"] = opts.Instructions
	}
	if len(opts.Tools) > 0 {
		session["tools"] = toolDeclarations(opts.Tools)
	}

	return map[string]any{"type": "session.update", "session": session}
}

func toolDeclarations(tools []store.ToolConfig) []map[string]any {
	out := make([]map[string]any, 0, len(tools))
	for _, t := range tools {
		properties := map[string]any{}
		required := []string{}
		for _, p := range t.Params {
			properties[p.Name] = map[string]any{"type": "string"}
			if p.Required {
				required = append(required, p.Name)
			}
		}
		out = append(out, map[string]any{
			"type":        "function",
			"name":        t.Name,
			"description": t.Description,
			"parameters": map[string]any{
				"type":       "object",
				"properties": properties,
				"required":   required,
			},
		})
	}
	return out
}
