package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/termlink/termlink/internal/discovery"
)

// runDiscover lists terminal endpoints advertised on the local network.
func runDiscover(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("discover", flag.ContinueOnError)
	fs.SetOutput(stderr)
	timeout := fs.Duration("timeout", 3*time.Second, "how long to browse for endpoints")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	fmt.Fprintf(stdout, "Browsing %s for %s...\n", discovery.ServiceType, *timeout)
	endpoints, err := discovery.Browse(context.Background(), *timeout)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "%-24s %-32s %s\n", "NAME", "URL", "VERSION")
	for _, ep := range endpoints {
		fmt.Fprintf(stdout, "%-24s %-32s %s\n", ep.Name, ep.URL(), ep.Version)
	}
	return 0
}
