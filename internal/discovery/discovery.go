// Package discovery resolves terminal session endpoints on the local
// network via mDNS/DNS-SD.
//
// Servers that advertise themselves use the service type _termlink._tcp
// with TXT records carrying the protocol version and websocket path.
// Discovery only reveals presence; whatever authentication the server
// requires still applies after connecting.
package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"

	tlerrors "github.com/termlink/termlink/internal/errors"
)

// ServiceType is the mDNS service type browsed for endpoints.
// Follows the standard DNS-SD naming convention: _<service>._<protocol>
const ServiceType = "_termlink._tcp"

// Endpoint is one discovered server.
type Endpoint struct {
	// Name is the advertised instance name.
	Name string

	// Host is the resolved IPv4 address or hostname.
	Host string

	// Port is the advertised port.
	Port int

	// Path is the websocket path from the TXT record, default "/terminal".
	Path string

	// Version is the advertised protocol version, if any.
	Version string
}

// URL returns the websocket URL for the endpoint.
func (e Endpoint) URL() string {
	path := e.Path
	if path == "" {
		path = "/terminal"
	}
	return fmt.Sprintf("ws://%s:%d%s", e.Host, e.Port, path)
}

// Browse looks for endpoints until the timeout elapses and returns every
// instance seen. A browse that completes without results returns a
// "discovery.no_result" error so callers can distinguish "nothing there"
// from a failed resolver.
func Browse(ctx context.Context, timeout time.Duration) ([]Endpoint, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, tlerrors.Wrap(tlerrors.CodeDiscoveryFailed, "create mDNS resolver", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, 8)
	if err := resolver.Browse(ctx, ServiceType, "local.", entries); err != nil {
		return nil, tlerrors.Wrap(tlerrors.CodeDiscoveryFailed, "browse failed", err)
	}

	var found []Endpoint
	for entry := range entries {
		found = append(found, fromEntry(entry))
	}

	if len(found) == 0 {
		return nil, tlerrors.New(tlerrors.CodeDiscoveryNoResult, "no endpoints found on the local network")
	}
	return found, nil
}

// fromEntry converts a DNS-SD service entry into an Endpoint.
func fromEntry(entry *zeroconf.ServiceEntry) Endpoint {
	ep := Endpoint{
		Name: entry.Instance,
		Port: entry.Port,
	}

	if len(entry.AddrIPv4) > 0 {
		ep.Host = entry.AddrIPv4[0].String()
	} else {
		ep.Host = strings.TrimSuffix(entry.HostName, ".")
	}

	for _, txt := range entry.Text {
		switch {
		case strings.HasPrefix(txt, "path="):
			ep.Path = strings.TrimPrefix(txt, "path=")
		case strings.HasPrefix(txt, "version="):
			ep.Version = strings.TrimPrefix(txt, "version=")
		}
	}
	return ep
}
