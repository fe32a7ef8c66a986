// Package protocol defines the tagged-envelope wire protocol spoken between
// the client and a terminal session server, and the codec that moves
// envelopes on and off the transport.
//
// Two envelope shapes exist:
//   - Single-channel: {"id": "<session>", "type": "<TAG>", "data": "..."}
//     Binary payloads travel outside the JSON envelope as raw websocket
//     binary frames, attributed to the session implicitly.
//   - Multi-channel: {"channelId": "<channel>", "type": "<TAG>", "data": "..."}
//     The shared transport cannot carry raw bytes tagged per channel, so
//     binary content rides base64-encoded on a TERMINAL_K8S_BINARY envelope.
//
// The data field is a string and frequently contains JSON itself; typed
// payload structs for the structured cases live in payload.go.
package protocol

// Tag identifies the kind of envelope being exchanged.
// Every outbound envelope must carry a non-empty tag from this set.
// Inbound envelopes with unknown tags are logged and dropped, never fatal.
type Tag string

const (
	// TagConnect is sent by the server to establish the session.
	// Payload: ConnectPayload (settings and user info).
	TagConnect Tag = "CONNECT"

	// TagClose is sent by either side to terminate the session.
	TagClose Tag = "CLOSE"

	// TagPing is the liveness probe. It carries no meaningful payload;
	// liveness is inferred from receipt timing, not content.
	TagPing Tag = "PING"

	// TagTerminalInit is sent by the client after CONNECT with the
	// initial display dimensions and share code.
	// Payload: InitPayload.
	TagTerminalInit Tag = "TERMINAL_INIT"

	// TagTerminalData carries keystrokes from the client to the server.
	// Payload: raw input bytes as a string.
	TagTerminalData Tag = "TERMINAL_DATA"

	// TagTerminalResize carries new display dimensions.
	// Payload: ResizePayload.
	TagTerminalResize Tag = "TERMINAL_RESIZE"

	// TagTerminalAction carries a nested action for sub-dispatch.
	// Payload: one of the Action* constants as a string.
	TagTerminalAction Tag = "TERMINAL_ACTION"

	// TagTerminalError carries a server-reported terminal failure.
	// Non-fatal: the message is surfaced to the user.
	TagTerminalError Tag = "TERMINAL_ERROR"

	// TagError carries a generic server-reported failure. Non-fatal.
	TagError Tag = "ERROR"

	// TagMessageNotify is reserved for forward compatibility.
	// By contract it is a no-op on receipt.
	TagMessageNotify Tag = "MESSAGE_NOTIFY"

	// TagShareUserRemove is sent when the session owner revokes this
	// client's share access. The client notifies the user and closes.
	TagShareUserRemove Tag = "TERMINAL_SHARE_USER_REMOVE"

	// TagK8sBinary carries base64-encoded binary content for one channel
	// of a multi-channel transport.
	TagK8sBinary Tag = "TERMINAL_K8S_BINARY"
)

// Terminal action values carried inside TERMINAL_ACTION envelopes.
const (
	// ActionZmodemStart switches the binary transfer sentry to Receiving.
	ActionZmodemStart = "ZMODEM_START"

	// ActionZmodemEnd switches the binary transfer sentry back to Idle.
	ActionZmodemEnd = "ZMODEM_END"
)

// Known reports whether the tag belongs to the fixed protocol tag set.
func (t Tag) Known() bool {
	switch t {
	case TagConnect, TagClose, TagPing,
		TagTerminalInit, TagTerminalData, TagTerminalResize,
		TagTerminalAction, TagTerminalError, TagError,
		TagMessageNotify, TagShareUserRemove, TagK8sBinary:
		return true
	}
	return false
}

// Envelope is the tagged message unit exchanged over the transport.
//
// Exactly one of ID or ChannelID is populated: ID in single-channel mode,
// ChannelID in multi-channel mode. Data is a string that often contains
// JSON itself.
type Envelope struct {
	// ID is the session identifier (single-channel mode).
	ID string `json:"id,omitempty"`

	// ChannelID is the logical channel identifier (multi-channel mode).
	ChannelID string `json:"channelId,omitempty"`

	// Type is the envelope tag. Never empty on a valid envelope.
	Type Tag `json:"type"`

	// Data is the payload, structure depending on Type.
	Data string `json:"data,omitempty"`
}
