// Command devserver is a development terminal endpoint for exercising the
// termlink client against a real shell.
//
// It upgrades websocket connections on /terminal, speaks the tagged
// envelope protocol, and bridges each session to a local PTY. It exists
// for development and testing only; it performs no authentication.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net"
	"net/http"
	"os"
	"strconv"

	"github.com/grandcat/zeroconf"

	"github.com/termlink/termlink/internal/discovery"
)

func main() {
	addr := flag.String("addr", ":7071", "listen address")
	path := flag.String("path", "/terminal", "websocket path")
	shell := flag.String("shell", defaultShell(), "shell to run for each session")
	mdns := flag.Bool("mdns", false, "advertise the endpoint via mDNS")
	name := flag.String("name", "termlink-dev", "mDNS instance name")
	flag.Parse()

	if *mdns {
		port := listenPort(*addr)
		server, err := zeroconf.Register(*name, discovery.ServiceType, "local.", port,
			[]string{"path=" + *path, "version=1"}, nil)
		if err != nil {
			log.Printf("devserver: mDNS registration failed: %v", err)
		} else {
			defer server.Shutdown()
			log.Printf("devserver: advertising %s on %s port %d", *name, discovery.ServiceType, port)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc(*path, func(w http.ResponseWriter, r *http.Request) {
		serveTerminal(w, r, *shell)
	})

	log.Printf("devserver: listening on %s%s", *addr, *path)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		log.Fatalf("devserver: %v", err)
	}
}

// defaultShell picks the user's shell, falling back to /bin/bash.
func defaultShell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/bash"
}

// listenPort extracts the numeric port from a listen address.
func listenPort(addr string) int {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 7071
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 7071
	}
	return port
}

// newShareCode generates a 6-digit share code.
func newShareCode() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}
