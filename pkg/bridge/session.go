// Package bridge connects one telephony call's media websocket to the
// realtime AI transport, translating between the two wire protocols and
// tearing both legs down together.
package bridge

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/clykins90/agent-dashboard/pkg/gateway/metrics"
	"github.com/clykins90/agent-dashboard/pkg/realtime"
	"github.com/clykins90/agent-dashboard/pkg/store"
)

type State int32

const (
	StateInit State = iota
	StateConnecting
	StateActive
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// TelephonyConn is the subset of *websocket.Conn the session needs, kept
// narrow so tests can stand in a fake.
type TelephonyConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// AITransport is the realtime AI leg as consumed by the bridge.
type AITransport interface {
	Events() <-chan realtime.Event
	SendAudio(data []byte) error
	CreateResponse() error
	SendFunctionResult(callID, output string) error
	Close() error
}

// ToolRunner executes one function tool call and always yields a string
// result for the transport.
type ToolRunner interface {
	RunTool(ctx context.Context, name, rawArgs string) string
}

// TranscriptSink persists a finished call's transcript, best effort.
type TranscriptSink interface {
	SaveCallTranscript(messages []store.ChatMessage) error
}

type Config struct {
	// FrameSize defaults to FrameSize (160 bytes).
	FrameSize int
	// WriteTimeout bounds each telephony socket write.
	WriteTimeout time.Duration
	// OutboundQueue is the depth of the outbound frame queue; frames are
	// dropped, not blocked on, when it is full.
	OutboundQueue int
}

type Dependencies struct {
	Telephony   TelephonyConn
	ConnectAI   func(ctx context.Context) (AITransport, error)
	Tools       ToolRunner
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	Transcripts TranscriptSink
	Config      Config
}

// Session owns one call end to end. Both sockets' read loops funnel into
// methods that guard all mutable fields with one mutex; outbound telephony
// writes go through a buffered queue drained by a dedicated writer goroutine
// so a slow socket never blocks inbound handling.
type Session struct {
	deps   Dependencies
	logger *slog.Logger

	mu        sync.Mutex
	state     State
	streamSid string
	closed    bool
	lines     []store.ChatMessage

	ai       AITransport
	outbound chan []byte
	done     chan struct{}
}

func New(deps Dependencies) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	queue := deps.Config.OutboundQueue
	if queue <= 0 {
		queue = 256
	}
	return &Session{
		deps:     deps,
		logger:   logger,
		state:    StateInit,
		outbound: make(chan []byte, queue),
		done:     make(chan struct{}),
	}
}

// Run drives the session until either leg disconnects. It always returns
// with both legs closed.
func (s *Session) Run(ctx context.Context) {
	started := time.Now()
	status := "completed"
	s.deps.Metrics.RecordSessionStart()
	defer func() {
		s.deps.Metrics.RecordSessionEnd(status, time.Since(started))
	}()

	s.setState(StateConnecting)

	ai, err := s.deps.ConnectAI(ctx)
	if err != nil {
		s.logger.Error("realtime transport connect failed", "err", err)
		s.mu.Lock()
		s.closed = true
		s.state = StateClosed
		s.mu.Unlock()
		_ = s.deps.Telephony.Close()
		status = "connect_failed"
		return
	}
	s.ai = ai

	go s.writeLoop()
	go s.aiLoop(ctx)

	s.readTelephony()
	s.teardown("telephony closed")
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) StreamSid() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamSid
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) readTelephony() {
	for {
		_, data, err := s.deps.Telephony.ReadMessage()
		if err != nil {
			s.logger.Info("telephony socket closed", "err", err)
			return
		}
		s.handleTelephonyMessage(data)
		if s.isClosed() {
			return
		}
	}
}

func (s *Session) handleTelephonyMessage(data []byte) {
	switch ev := DecodeTelephonyMessage(data).(type) {
	case StartEvent:
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		s.streamSid = ev.StreamSid
		s.state = StateActive
		s.mu.Unlock()
		s.logger.Info("stream started", "stream_sid", ev.StreamSid)
		// Fire-and-forget initial greeting; failure must not end the call.
		if err := s.ai.CreateResponse(); err != nil {
			s.logger.Warn("greeting request failed", "err", err)
		}
	case MediaEvent:
		if s.State() != StateActive {
			s.logger.Debug("dropping media outside active state")
			return
		}
		s.deps.Metrics.RecordAudio("inbound", len(ev.Audio))
		if err := s.ai.SendAudio(ev.Audio); err != nil {
			s.logger.Debug("forward media upstream failed", "err", err)
		}
	case StopEvent:
		s.logger.Info("stream stopped", "stream_sid", s.StreamSid())
		s.teardown("stop event")
	case IgnoreEvent:
		s.logger.Debug("ignoring telephony message", "reason", ev.Reason)
	}
}

func (s *Session) aiLoop(ctx context.Context) {
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.ai.Events():
			if !ok {
				s.teardown("transport closed")
				return
			}
			switch e := ev.(type) {
			case realtime.AudioEvent:
				s.forwardAudio(e.Data)
			case realtime.FunctionCallEvent:
				s.handleFunctionCall(ctx, e)
			case realtime.TranscriptEvent:
				s.appendLine(e.Role, e.Text)
			case realtime.ErrorEvent:
				s.logger.Error("realtime transport error", "code", e.Code, "message", e.Message)
				s.teardown("transport error")
				return
			case realtime.ClosedEvent:
				if e.Err != nil {
					s.logger.Info("realtime transport closed", "err", e.Err)
				}
				s.teardown("transport closed")
				return
			}
		}
	}
}

// forwardAudio frames one AI audio buffer and queues it telephony-ward.
// Frames that arrive before the stream is addressable are dropped, never
// buffered: the telephony leg cannot be addressed yet and replaying stale
// audio mid-call is worse than the loss.
func (s *Session) forwardAudio(data []byte) {
	s.mu.Lock()
	sid := s.streamSid
	closed := s.closed
	s.mu.Unlock()

	if closed {
		return
	}
	if sid == "" {
		s.deps.Metrics.RecordFrameDropped()
		s.logger.Debug("dropping audio before stream start", "bytes", len(data))
		return
	}

	s.deps.Metrics.RecordAudio("outbound", len(data))
	size := s.deps.Config.FrameSize
	if size <= 0 {
		size = FrameSize
	}
	for _, frame := range EncodeFrames(data, size) {
		msg := MarshalOutboundMedia(sid, frame)
		select {
		case s.outbound <- msg:
		default:
			s.deps.Metrics.RecordFrameDropped()
			s.logger.Warn("outbound queue full, dropping frame", "stream_sid", sid)
		}
	}
}

// handleFunctionCall resolves one tool call and reports the result back to
// the transport before any further turn processing. The runner bounds its
// own HTTP call, so a slow tool stalls at most this one turn.
func (s *Session) handleFunctionCall(ctx context.Context, call realtime.FunctionCallEvent) {
	if s.deps.Tools == nil {
		s.logger.Warn("function call with no tool runner", "tool", call.Name)
		return
	}
	out := s.deps.Tools.RunTool(ctx, call.Name, call.Arguments)
	s.appendLine("tool", call.Name+": "+out)
	if err := s.ai.SendFunctionResult(call.CallID, out); err != nil {
		s.logger.Warn("tool result send failed", "tool", call.Name, "err", err)
	}
}

func (s *Session) appendLine(role, text string) {
	if text == "" {
		return
	}
	s.mu.Lock()
	s.lines = append(s.lines, store.ChatMessage{Role: role, Content: text})
	s.mu.Unlock()
}

// teardown closes both legs together. It is safe to call from either
// socket's handler, any number of times.
func (s *Session) teardown(reason string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.state = StateClosing
	lines := s.lines
	s.lines = nil
	s.mu.Unlock()

	if s.ai != nil {
		_ = s.ai.Close()
	}
	_ = s.deps.Telephony.Close()
	close(s.done)

	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()

	s.logger.Info("session closed", "reason", reason)
	s.saveTranscript(lines)
}

func (s *Session) saveTranscript(lines []store.ChatMessage) {
	if s.deps.Transcripts == nil || len(lines) == 0 {
		return
	}
	if err := s.deps.Transcripts.SaveCallTranscript(lines); err != nil {
		s.logger.Warn("transcript save failed", "err", err)
	}
}

func (s *Session) writeLoop() {
	timeout := s.deps.Config.WriteTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	for {
		select {
		case <-s.done:
			return
		case msg := <-s.outbound:
			_ = s.deps.Telephony.SetWriteDeadline(time.Now().Add(timeout))
			if err := s.deps.Telephony.WriteMessage(websocket.TextMessage, msg); err != nil {
				// One lost frame must not end the call.
				s.logger.Warn("telephony send failed", "err", err)
			}
		}
	}
}
