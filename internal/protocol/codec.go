package protocol

import (
	"encoding/json"

	"github.com/termlink/termlink/internal/errors"
)

// FrameKind classifies an inbound transport frame.
type FrameKind int

const (
	// FrameControl is a JSON envelope frame.
	FrameControl FrameKind = iota

	// FrameBinary is a raw byte payload outside the JSON envelope,
	// attributed to the currently active session.
	FrameBinary
)

// Frame is one decoded inbound transport frame: either a control envelope
// or a raw binary payload.
type Frame struct {
	Kind     FrameKind
	Envelope Envelope // populated when Kind == FrameControl
	Binary   []byte   // populated when Kind == FrameBinary
}

// Encode serializes an outbound single-channel envelope.
// The type tag must be non-empty; this is the one invariant the codec
// enforces on the way out.
func Encode(sessionID string, typ Tag, data string) ([]byte, error) {
	if typ == "" {
		return nil, errors.EmptyType()
	}
	return json.Marshal(Envelope{ID: sessionID, Type: typ, Data: data})
}

// EncodeChannel serializes an outbound multi-channel envelope.
func EncodeChannel(channelID string, typ Tag, data string) ([]byte, error) {
	if typ == "" {
		return nil, errors.EmptyType()
	}
	return json.Marshal(Envelope{ChannelID: channelID, Type: typ, Data: data})
}

// Decode parses a control frame into an Envelope.
// A frame that claims to be control data but does not parse yields a
// "decode.malformed" error; the caller logs and discards it. Decode
// failures never tear down the session.
func Decode(payload []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Envelope{}, errors.MalformedEnvelope(err)
	}
	if env.Type == "" {
		return Envelope{}, errors.EmptyType()
	}
	return env, nil
}

// Classify turns a raw transport frame into a Frame.
//
// The binary flag comes from the transport layer (websocket message type):
// binary frames are raw display or transfer data and are never run through
// JSON parsing.
func Classify(binary bool, payload []byte) (Frame, error) {
	if binary {
		return Frame{Kind: FrameBinary, Binary: payload}, nil
	}
	env, err := Decode(payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Kind: FrameControl, Envelope: env}, nil
}
