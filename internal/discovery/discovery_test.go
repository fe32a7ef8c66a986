package discovery

import (
	"net"
	"testing"

	"github.com/grandcat/zeroconf"
)

func TestEndpointURL(t *testing.T) {
	cases := []struct {
		ep   Endpoint
		want string
	}{
		{Endpoint{Host: "192.168.1.10", Port: 7071, Path: "/terminal"}, "ws://192.168.1.10:7071/terminal"},
		{Endpoint{Host: "devbox.local", Port: 9000}, "ws://devbox.local:9000/terminal"},
		{Endpoint{Host: "h", Port: 80, Path: "/custom"}, "ws://h:80/custom"},
	}
	for _, tc := range cases {
		if got := tc.ep.URL(); got != tc.want {
			t.Errorf("URL() = %q, want %q", got, tc.want)
		}
	}
}

func TestFromEntry(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{Instance: "devbox"},
		HostName:      "devbox.local.",
		Port:          7071,
		Text:          []string{"path=/terminal", "version=1", "unrelated=x"},
		AddrIPv4:      []net.IP{net.ParseIP("192.168.1.10")},
	}

	ep := fromEntry(entry)
	if ep.Name != "devbox" {
		t.Errorf("name = %q", ep.Name)
	}
	if ep.Host != "192.168.1.10" {
		t.Errorf("host = %q, want the IPv4 address", ep.Host)
	}
	if ep.Path != "/terminal" || ep.Version != "1" {
		t.Errorf("txt parsing: path=%q version=%q", ep.Path, ep.Version)
	}
}

func TestFromEntryFallsBackToHostname(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{Instance: "devbox"},
		HostName:      "devbox.local.",
		Port:          7071,
	}

	ep := fromEntry(entry)
	if ep.Host != "devbox.local" {
		t.Errorf("host = %q, want hostname without trailing dot", ep.Host)
	}
}
