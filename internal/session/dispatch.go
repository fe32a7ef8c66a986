package session

import (
	"encoding/base64"
	"log"

	"github.com/termlink/termlink/internal/errors"
	"github.com/termlink/termlink/internal/protocol"
)

// dispatch interprets one decoded control envelope. Every known tag is
// handled explicitly below; unknown tags are logged and ignored and must
// never throw. After internal handling the envelope is forwarded to the
// observer channel so UI layers can react without the core depending on
// them.
func (s *Session) dispatch(env protocol.Envelope) {
	switch env.Type {
	case protocol.TagConnect:
		s.handleConnect(env)

	case protocol.TagClose:
		s.writeNotice("\r\n[session terminated by server]\r\n")
		s.finish("server_close")

	case protocol.TagPing:
		// Liveness is inferred from receipt timing, which the transport
		// already tracked before this frame reached the loop.

	case protocol.TagTerminalAction:
		s.dispatchAction(env.Data)

	case protocol.TagError, protocol.TagTerminalError:
		msg := errors.ServerError(env.Data).Message
		s.notify("server error: " + msg)
		s.writeNotice("\r\n[error: " + msg + "]\r\n")

	case protocol.TagMessageNotify:
		// Reserved. No-op by contract; kept explicit so adding behavior
		// later is a deliberate change.

	case protocol.TagShareUserRemove:
		s.notify("your access to this shared session was removed")
		s.finish("share_removed")

	case protocol.TagK8sBinary:
		data, err := base64.StdEncoding.DecodeString(env.Data)
		if err != nil {
			log.Printf("session: %v", errors.BadBinaryPayload(env.ChannelID, err))
			return
		}
		s.handleBinary(data)

	case protocol.TagTerminalInit, protocol.TagTerminalData, protocol.TagTerminalResize:
		// Client-to-server tags; a server echoing them back is out of
		// contract. Log and ignore.
		log.Printf("session: ignoring unexpected inbound %s envelope", env.Type)

	default:
		// Unknown tag: log and ignore. No state mutation, no fault.
		log.Printf("session: ignoring envelope with unknown tag %q", env.Type)
	}

	s.emit(Event{Kind: KindSocketData, Name: string(env.Type), Envelope: &env})
}

// handleConnect establishes the session from the CONNECT payload and
// replies with TERMINAL_INIT carrying the current display dimensions and
// the share code.
func (s *Session) handleConnect(env protocol.Envelope) {
	payload, err := protocol.ParseConnect(env.Data)
	if err != nil {
		log.Printf("session: %v", err)
		return
	}

	// The session id is immutable for the session's lifetime: only the
	// first CONNECT sets it.
	if s.id == "" {
		s.id = env.ID
	}
	if s.channelID == "" {
		s.channelID = env.ChannelID
	}
	s.transferDisabled = payload.Setting.TransferDisabled
	s.shareCode = payload.Code

	s.cols, s.rows = s.cfg.Surface.Size()

	s.send(protocol.TagTerminalInit, protocol.MarshalInit(protocol.InitPayload{
		Cols: s.cols,
		Rows: s.rows,
		Code: s.shareCode,
	}))

	if s.cfg.Recorder != nil {
		s.cfg.Recorder.SessionStarted(s.id, s.cfg.Endpoint)
	}

	log.Printf("session: connected as %s (%dx%d)", s.id, s.cols, s.rows)
	s.emit(Event{Kind: KindEvent, Name: "connect", Detail: s.shareCode})
}

// dispatchAction sub-dispatches the nested TERMINAL_ACTION value.
//
// ZMODEM_START and ZMODEM_END drive the binary transfer sentry. Any other
// action acts as a defensive reset: it returns the sentry to Idle if a
// transfer was in flight and clears the transfer-disabled flag.
func (s *Session) dispatchAction(action string) {
	switch action {
	case protocol.ActionZmodemStart:
		s.enterTransfer()

	case protocol.ActionZmodemEnd:
		s.leaveTransfer()

	default:
		if s.transfer == transferReceiving {
			log.Printf("session: action %q while receiving, resetting transfer state", action)
			s.leaveTransfer()
		}
		s.transferDisabled = false
	}
}
