package mux

import (
	"testing"

	tlerrors "github.com/termlink/termlink/internal/errors"
	"github.com/termlink/termlink/internal/protocol"
)

func TestRouteIsolatesChannels(t *testing.T) {
	r := NewRegistry()

	var gotX, gotY []protocol.Envelope
	r.Register("x", HandlerFunc(func(env protocol.Envelope) { gotX = append(gotX, env) }))
	r.Register("y", HandlerFunc(func(env protocol.Envelope) { gotY = append(gotY, env) }))

	if err := r.Route(protocol.Envelope{ChannelID: "x", Type: protocol.TagTerminalData, Data: "for x"}); err != nil {
		t.Fatalf("route to x: %v", err)
	}
	if err := r.Route(protocol.Envelope{ChannelID: "y", Type: protocol.TagTerminalData, Data: "for y"}); err != nil {
		t.Fatalf("route to y: %v", err)
	}

	if len(gotX) != 1 || gotX[0].Data != "for x" {
		t.Errorf("channel x got %v", gotX)
	}
	if len(gotY) != 1 || gotY[0].Data != "for y" {
		t.Errorf("channel y got %v", gotY)
	}
}

func TestRouteUnknownChannel(t *testing.T) {
	r := NewRegistry()

	err := r.Route(protocol.Envelope{ChannelID: "ghost", Type: protocol.TagTerminalData})
	if err == nil {
		t.Fatalf("routing to an unregistered channel succeeded")
	}
	if !tlerrors.IsCode(err, tlerrors.CodeChannelUnknown) {
		t.Errorf("error code = %q, want %q", tlerrors.GetCode(err), tlerrors.CodeChannelUnknown)
	}
}

func TestReregisterReplacesHandler(t *testing.T) {
	r := NewRegistry()

	var old, replacement int
	r.Register("x", HandlerFunc(func(protocol.Envelope) { old++ }))
	r.Register("x", HandlerFunc(func(protocol.Envelope) { replacement++ }))

	if r.Len() != 1 {
		t.Fatalf("registry has %d channels, want 1", r.Len())
	}
	if err := r.Route(protocol.Envelope{ChannelID: "x", Type: protocol.TagPing}); err != nil {
		t.Fatalf("route: %v", err)
	}
	if old != 0 || replacement != 1 {
		t.Errorf("old handler called %d times, replacement %d; want 0 and 1", old, replacement)
	}
}

func TestUnregisterStopsRouting(t *testing.T) {
	r := NewRegistry()
	r.Register("x", HandlerFunc(func(protocol.Envelope) {}))
	r.Unregister("x")

	if r.Len() != 0 {
		t.Fatalf("registry has %d channels after unregister, want 0", r.Len())
	}
	if err := r.Route(protocol.Envelope{ChannelID: "x", Type: protocol.TagPing}); err == nil {
		t.Fatalf("routing to an unregistered channel succeeded")
	}

	// Unregistering twice is a no-op, not a fault.
	r.Unregister("x")
}
