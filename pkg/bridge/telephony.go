package bridge

import (
	"encoding/base64"
	"encoding/json"
)

// Inbound telephony messages are JSON envelopes discriminated by "event".
// Unknown and malformed shapes all collapse into IgnoreEvent so the session
// handler has a single "do nothing" path.

type TelephonyEvent interface{ telephonyEvent() }

type StartEvent struct {
	StreamSid string
}

type MediaEvent struct {
	// Audio is the decoded payload; the provider's framing already matches
	// the AI transport's input, so it is forwarded unchanged.
	Audio []byte
}

type StopEvent struct{}

type IgnoreEvent struct {
	Reason string
}

func (StartEvent) telephonyEvent()  {}
func (MediaEvent) telephonyEvent()  {}
func (StopEvent) telephonyEvent()   {}
func (IgnoreEvent) telephonyEvent() {}

type telephonyEnvelope struct {
	Event     string `json:"event"`
	StreamSid string `json:"streamSid"`
	Start     *struct {
		StreamSid string `json:"streamSid"`
	} `json:"start"`
	Media *struct {
		Payload string `json:"payload"`
	} `json:"media"`
}

// DecodeTelephonyMessage parses one inbound telephony frame. The nested
// start.streamSid is preferred with the top-level field as fallback.
func DecodeTelephonyMessage(data []byte) TelephonyEvent {
	var env telephonyEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return IgnoreEvent{Reason: "non-json message"}
	}

	switch env.Event {
	case "start":
		sid := env.StreamSid
		if env.Start != nil && env.Start.StreamSid != "" {
			sid = env.Start.StreamSid
		}
		return StartEvent{StreamSid: sid}
	case "media":
		if env.Media == nil || env.Media.Payload == "" {
			return IgnoreEvent{Reason: "media without payload"}
		}
		raw, err := base64.StdEncoding.DecodeString(env.Media.Payload)
		if err != nil {
			return IgnoreEvent{Reason: "media payload not base64"}
		}
		return MediaEvent{Audio: raw}
	case "stop":
		return StopEvent{}
	default:
		return IgnoreEvent{Reason: "unrecognized event"}
	}
}

type outboundMediaPayload struct {
	Payload string `json:"payload"`
}

type outboundMedia struct {
	Event     string               `json:"event"`
	StreamSid string               `json:"streamSid"`
	Media     outboundMediaPayload `json:"media"`
}

// MarshalOutboundMedia builds one outbound media frame addressed to the
// active stream.
func MarshalOutboundMedia(streamSid, b64Payload string) []byte {
	raw, _ := json.Marshal(outboundMedia{
		Event:     "media",
		StreamSid: streamSid,
		Media:     outboundMediaPayload{Payload: b64Payload},
	})
	return raw
}
