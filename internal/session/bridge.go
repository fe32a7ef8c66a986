package session

import (
	"log"

	"github.com/termlink/termlink/internal/errors"
	"github.com/termlink/termlink/internal/protocol"
)

// The terminal I/O bridge converts local input events into outbound
// protocol envelopes. The exported methods below are the only session API
// safe to call from outside the loop: they enqueue and return.

// SendInput forwards local keystrokes as a TERMINAL_DATA envelope.
// Input is dropped (never queued) while a binary transfer is receiving or
// when the rate limit is exceeded.
func (s *Session) SendInput(data []byte) {
	if len(data) == 0 {
		return
	}
	// Copy: the caller may reuse its read buffer.
	buf := make([]byte, len(data))
	copy(buf, data)
	s.enqueue(keyInput{data: buf})
}

// Resize reports new display dimensions. Bursts within the debounce
// window collapse to a single outbound TERMINAL_RESIZE carrying the final
// dimensions (trailing edge).
func (s *Session) Resize(cols, rows int) {
	if cols <= 0 || rows <= 0 {
		return
	}
	s.enqueue(resizeInput{cols: cols, rows: rows})
}

// Selection captures the display surface's current text selection for the
// external context-menu collaborator. Clipboard access is not this
// package's concern.
func (s *Session) Selection() string {
	return s.cfg.Surface.Selection()
}

// HandleEnvelope delivers one control envelope to the session loop. It
// implements mux.Handler so a multi-channel router can feed per-channel
// sessions; the envelope is processed on the session's own loop.
func (s *Session) HandleEnvelope(env protocol.Envelope) {
	s.enqueue(envInput{env: env})
}

// enqueue hands an item to the session loop, refusing once the session
// has stopped. Delivery order is preserved; the mailbox is the only path
// into loop-owned state.
func (s *Session) enqueue(in localInput) bool {
	select {
	case <-s.stop:
		return false
	default:
	}
	select {
	case s.mailbox <- in:
		return true
	case <-s.stop:
		return false
	}
}

// forwardInput sends one keystroke batch, applying transfer suppression
// and the rate limiter. Runs on the session loop.
func (s *Session) forwardInput(data []byte) {
	if s.transfer == transferReceiving {
		// Local input must not corrupt an in-flight transfer.
		log.Printf("session: %v", errors.New(errors.CodeInputSuppressed, "dropping input during transfer"))
		return
	}
	if s.limiter != nil && !s.limiter.Allow() {
		log.Printf("session: %v", errors.InputRateLimited())
		return
	}
	s.send(protocol.TagTerminalData, string(data))
}

// queueResize stores the latest dimensions and (re)arms the trailing-edge
// debounce timer. Runs on the session loop.
func (s *Session) queueResize(in resizeInput) {
	s.pendingResize = &in

	if s.cfg.ResizeDebounce <= 0 {
		s.flushResize()
		return
	}

	if !s.resizeTimer.Stop() {
		// Timer already fired or was never armed; drain if a tick is
		// pending so Reset arms cleanly.
		select {
		case <-s.resizeTimer.C:
		default:
		}
	}
	s.resizeTimer.Reset(s.cfg.ResizeDebounce)
}

// flushResize emits the coalesced TERMINAL_RESIZE envelope carrying the
// final dimensions. Runs on the session loop.
func (s *Session) flushResize() {
	if s.pendingResize == nil {
		return
	}
	cols, rows := s.pendingResize.cols, s.pendingResize.rows
	s.pendingResize = nil

	if cols == s.cols && rows == s.rows {
		return
	}
	s.cols, s.rows = cols, rows
	s.send(protocol.TagTerminalResize, protocol.MarshalResize(cols, rows))
}
