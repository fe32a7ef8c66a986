// Package mux routes envelopes between logical channels multiplexed over a
// single transport.
//
// Multi-channel mode exists for transports that carry several sessions at
// once (e.g., multiple exec tabs over one connection). Channel identity is
// data carried in the envelope itself; the registry is the single source of
// truth for live channels. UI state such as "current tab" never participates
// in routing.
//
// In single-channel mode the registry is simply not used: frames flow
// straight to the one session dispatcher.
package mux

import (
	"log"
	"sync"

	"github.com/termlink/termlink/internal/errors"
	"github.com/termlink/termlink/internal/protocol"
)

// Handler consumes envelopes routed to one channel.
type Handler interface {
	HandleEnvelope(env protocol.Envelope)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(env protocol.Envelope)

// HandleEnvelope calls f(env).
func (f HandlerFunc) HandleEnvelope(env protocol.Envelope) { f(env) }

// Registry maps channel identifiers to handlers.
//
// At most one handler is registered per channel id; re-registration
// replaces the previous handler (used when a tab is reattached). Register
// and Unregister must never be called from inside a handler that is itself
// processing a route for the same channel.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty channel registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register installs the handler for a channel id, replacing any previous
// registration for the same id.
func (r *Registry) Register(channelID string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[channelID] = h
}

// Unregister removes the handler for a channel id. Called when the
// channel's session closes. Unknown ids are a no-op.
func (r *Registry) Unregister(channelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, channelID)
}

// Len returns the number of registered channels.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

// Route delivers an envelope to the handler registered for its channel id.
// An envelope whose channel id has no registered handler is logged and
// dropped; the returned error carries the "channel.unknown" code for
// callers that track routing misses.
func (r *Registry) Route(env protocol.Envelope) error {
	r.mu.RLock()
	h, ok := r.handlers[env.ChannelID]
	r.mu.RUnlock()

	if !ok {
		log.Printf("mux: dropping %s envelope for unknown channel %q", env.Type, env.ChannelID)
		return errors.UnknownChannel(env.ChannelID)
	}

	h.HandleEnvelope(env)
	return nil
}
