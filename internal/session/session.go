// Package session implements the protocol core of one terminal session: the
// envelope dispatcher, the binary transfer sentry, and the terminal I/O
// bridge, all driven by a single event loop.
//
// Concurrency model: one goroutine (the Run loop) owns every piece of
// mutable session state and the display surface. Inbound frames, lifecycle
// transitions, local input, and timer firings are delivered to the loop as
// discrete items and each handler runs to completion before the next item
// is taken. Nothing in this package mutates session state from outside the
// loop; the exported bridge methods only enqueue.
package session

import (
	"log"
	"time"

	"golang.org/x/time/rate"

	"github.com/termlink/termlink/internal/errors"
	"github.com/termlink/termlink/internal/protocol"
	"github.com/termlink/termlink/internal/term"
	"github.com/termlink/termlink/internal/transport"
)

// Transport is the slice of the transport manager the session needs:
// sending outbound envelopes and forcing teardown.
type Transport interface {
	Send(payload []byte) error
	Close() error
}

// TransferDecoder consumes the raw byte stream of one file transfer
// window. It is an external collaborator: it extracts file contents and
// drives its own completion signal; the sentry only feeds it.
type TransferDecoder interface {
	// Feed consumes one binary frame of the transfer stream.
	Feed(p []byte) error

	// Close finishes the transfer window (normal end or abort).
	Close() error
}

// Recorder persists session lifecycle and transfer events. Implementations
// must tolerate being called from the session loop only. A nil Recorder
// disables journaling.
type Recorder interface {
	SessionStarted(sessionID, endpoint string)
	SessionEnded(sessionID, reason string)
	TransferRecorded(sessionID string, bytes int64, started, ended time.Time)
}

// Config wires a session's collaborators.
type Config struct {
	// Transport sends outbound envelopes. Required.
	Transport Transport

	// Surface is the display surface the session writes to. Required.
	Surface term.DisplaySurface

	// NewDecoder creates the transfer sub-decoder for each transfer
	// window. Required if the server may start transfers.
	NewDecoder func() TransferDecoder

	// Notify surfaces a user-visible notification outside the terminal
	// byte stream. Nil falls back to the log.
	Notify func(message string)

	// Recorder journals lifecycle and transfer events. Optional.
	Recorder Recorder

	// Endpoint is recorded with the session start. Informational only.
	Endpoint string

	// ResizeDebounce is the trailing-edge window for coalescing resize
	// events. Zero disables coalescing (every event is sent).
	ResizeDebounce time.Duration

	// InputRateLimit bounds keystroke forwarding per second; excess input
	// is dropped, never queued. Zero disables the limiter.
	InputRateLimit int
}

// transferState is the binary transfer sentry state.
type transferState int

const (
	transferIdle transferState = iota
	transferReceiving
)

// localInput is an item enqueued to the session loop by the I/O bridge.
type localInput interface{ isLocalInput() }

type keyInput struct{ data []byte }
type resizeInput struct{ cols, rows int }
type envInput struct{ env protocol.Envelope }

func (keyInput) isLocalInput()    {}
func (resizeInput) isLocalInput() {}
func (envInput) isLocalInput()    {}

// Session owns the state of one logical terminal session.
//
// All fields below cfg are loop-owned: they are only touched from Run.
type Session struct {
	cfg Config

	mailbox chan localInput
	events  chan Event
	stop    chan struct{}

	limiter *rate.Limiter

	// Loop-owned state.
	id               string
	channelID        string
	cols, rows       int
	shareCode        string
	transferDisabled bool
	transfer         transferState
	decoder          TransferDecoder
	transferStart    time.Time
	transferBytes    int64
	everOpen         bool
	closed           bool
	closeEmitted     bool

	pendingResize *resizeInput
	resizeTimer   *time.Timer
}

// New creates a session around the given collaborators.
func New(cfg Config) *Session {
	s := &Session{
		cfg:     cfg,
		mailbox: make(chan localInput, 256),
		events:  make(chan Event, 64),
		stop:    make(chan struct{}),
	}
	if cfg.InputRateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.InputRateLimit), cfg.InputRateLimit)
	}
	return s
}

// ID returns the session identifier, or "" before CONNECT.
// Only meaningful after Run has exited or from within observer handlers.
func (s *Session) ID() string { return s.id }

// Run drives the session until the transport closes or the context is
// cancelled. It consumes the transport's frame and state channels and is
// the only goroutine that mutates session state.
func (s *Session) Run(frames <-chan transport.Inbound, states <-chan transport.StateChange) {
	// One stable debounce timer for the whole session, armed on demand
	// and disposed exactly once on teardown.
	s.resizeTimer = time.NewTimer(time.Hour)
	if !s.resizeTimer.Stop() {
		<-s.resizeTimer.C
	}

	defer func() {
		s.resizeTimer.Stop()
		if s.transfer == transferReceiving {
			s.leaveTransfer()
		}
		close(s.events)
	}()

	for {
		select {
		case fr, ok := <-frames:
			if !ok {
				// Transport loop exited; wait for the final state
				// change to learn why.
				frames = nil
				continue
			}
			if s.closed {
				// A closed session discards late-arriving frames
				// instead of attempting to resume state.
				continue
			}
			s.handleFrame(fr)

		case sc, ok := <-states:
			if !ok {
				return
			}
			if done := s.handleLifecycle(sc); done {
				return
			}

		case in := <-s.mailbox:
			if s.closed {
				continue
			}
			s.handleLocal(in)

		case <-s.resizeTimer.C:
			if s.closed {
				continue
			}
			s.flushResize()

		case <-s.stop:
			// finish() ran from a dispatch handler (CLOSE envelope,
			// share removal). For channel-scoped sessions there is no
			// transport state change coming; exit directly.
			return
		}
	}
}

// handleFrame classifies one transport frame and routes it to the control
// dispatcher or the binary sentry. Decode failures are logged and dropped;
// they never propagate.
func (s *Session) handleFrame(fr transport.Inbound) {
	frame, err := protocol.Classify(fr.Binary, fr.Payload)
	if err != nil {
		log.Printf("session: dropping frame: %v", err)
		return
	}

	switch frame.Kind {
	case protocol.FrameBinary:
		s.handleBinary(frame.Binary)
	case protocol.FrameControl:
		s.dispatch(frame.Envelope)
	}
}

// handleLifecycle reacts to a transport state change. Returns true when
// the session is finished and the loop should exit.
func (s *Session) handleLifecycle(sc transport.StateChange) bool {
	switch sc.State {
	case transport.StateOpen:
		name := "open"
		if s.everOpen {
			name = "reconnect"
		}
		s.everOpen = true
		s.emit(Event{Kind: KindEvent, Name: name})
		return false

	case transport.StateReconnecting:
		detail := ""
		if sc.Err != nil {
			detail = sc.Err.Error()
		}
		s.emit(Event{Kind: KindEvent, Name: "reconnect", Detail: detail})
		return false

	case transport.StateClosed:
		reason := "closed"
		if sc.Err != nil {
			code, msg := errors.ToCodeAndMessage(sc.Err)
			reason = code
			if code == errors.CodeRetryExhausted {
				s.notify("connection lost: " + msg)
				s.writeNotice("\r\n[connection lost: " + msg + "]\r\n")
			}
		}
		s.finish(reason)
		return true
	}
	return false
}

// handleLocal processes one bridge item on the session loop.
func (s *Session) handleLocal(in localInput) {
	switch v := in.(type) {
	case keyInput:
		s.forwardInput(v.data)
	case resizeInput:
		s.queueResize(v)
	case envInput:
		s.dispatch(v.env)
	}
}

// finish terminates the session exactly once: closes the transport,
// records the journal entry, and emits the outward close event.
func (s *Session) finish(reason string) {
	if s.closed {
		return
	}
	s.closed = true
	close(s.stop)

	s.cfg.Transport.Close()

	if s.cfg.Recorder != nil && s.id != "" {
		s.cfg.Recorder.SessionEnded(s.id, reason)
	}
	s.emitClose(reason)
}

// emitClose fires the outward close event, exactly once per session.
func (s *Session) emitClose(reason string) {
	if s.closeEmitted {
		return
	}
	s.closeEmitted = true
	s.emit(Event{Kind: KindEvent, Name: "close", Detail: reason})
}

// notify surfaces a user-visible message outside the terminal stream.
func (s *Session) notify(message string) {
	if s.cfg.Notify != nil {
		s.cfg.Notify(message)
		return
	}
	log.Printf("session: %s", message)
}

// writeNotice writes informational text to the display surface.
func (s *Session) writeNotice(text string) {
	if _, err := s.cfg.Surface.Write([]byte(text)); err != nil {
		log.Printf("session: display write failed: %v", err)
	}
}

// send encodes and sends one outbound envelope on the session's transport.
// A single failed send is recoverable; it is logged and the session
// continues (the transport layer drives reconnection).
func (s *Session) send(typ protocol.Tag, data string) {
	var payload []byte
	var err error
	if s.channelID != "" {
		payload, err = protocol.EncodeChannel(s.channelID, typ, data)
	} else {
		payload, err = protocol.Encode(s.id, typ, data)
	}
	if err != nil {
		log.Printf("session: encode %s failed: %v", typ, err)
		return
	}
	if err := s.cfg.Transport.Send(payload); err != nil {
		log.Printf("session: send %s failed: %v", typ, err)
	}
}
