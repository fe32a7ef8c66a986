package session

import (
	"log"

	"github.com/termlink/termlink/internal/protocol"
	"github.com/termlink/termlink/internal/term"
)

// EventKind distinguishes the two observer event families.
type EventKind string

const (
	// KindSocketData is fired after every internally handled envelope.
	KindSocketData EventKind = "socketData"

	// KindEvent is fired for lifecycle and user-facing events
	// ("open", "reconnect", "close", "transfer", "error").
	KindEvent EventKind = "event"
)

// Event is the outward observer unit. UI layers and other subscribers
// consume the session's event channel instead of being threaded through
// every component as callbacks.
type Event struct {
	Kind EventKind

	// Name is the envelope tag for socketData events, or the lifecycle
	// event name for event events.
	Name string

	// Envelope is the raw envelope for socketData events.
	Envelope *protocol.Envelope

	// Detail carries event-specific text (error message, share code,
	// reconnect attempt, close reason).
	Detail string

	// Surface is the current display surface reference, so UI layers can
	// react without the core depending on them.
	Surface term.DisplaySurface
}

// Events returns the outward observer channel. It is closed when the
// session loop exits.
func (s *Session) Events() <-chan Event { return s.events }

// emit delivers an observer event without ever blocking the session loop.
func (s *Session) emit(ev Event) {
	ev.Surface = s.cfg.Surface
	select {
	case s.events <- ev:
	default:
		log.Printf("session: dropping observer event %s/%s (subscriber stalled)", ev.Kind, ev.Name)
	}
}
