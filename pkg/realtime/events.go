package realtime

// Event is the bridge-facing view of the realtime server event stream.
// The raw protocol has many more event kinds; everything the bridge does
// not act on is dropped at the parse boundary.
type Event interface{ aiEvent() }

// AudioEvent carries one contiguous buffer of output audio.
type AudioEvent struct {
	Data []byte
}

// FunctionCallEvent asks the bridge to execute a declared function tool.
type FunctionCallEvent struct {
	Name      string
	CallID    string
	Arguments string
}

// TranscriptEvent carries finalized transcript text for one side of the call.
type TranscriptEvent struct {
	Role string
	Text string
}

// ErrorEvent is a terminal error reported by the transport.
type ErrorEvent struct {
	Code    string
	Message string
}

// ClosedEvent is emitted once when the socket closes; Err is nil on a
// normal closure.
type ClosedEvent struct {
	Err error
}

func (AudioEvent) aiEvent()        {}
func (FunctionCallEvent) aiEvent() {}
func (TranscriptEvent) aiEvent()   {}
func (ErrorEvent) aiEvent()        {}
func (ClosedEvent) aiEvent()       {}
