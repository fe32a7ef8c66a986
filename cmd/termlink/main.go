// Command termlink is an interactive terminal session client.
//
// It connects to a terminal endpoint over websocket, bridges the local tty
// to the remote session, and keeps a local journal of sessions and file
// transfers.
package main

import (
	"fmt"
	"io"
	"os"
)

// Version is set at build time via -ldflags.
// Example: go build -ldflags="-X main.Version=v0.1.0" ./cmd/termlink
var Version = "dev"

const usage = `termlink - terminal session client

Usage:
  termlink <command> [options]

Commands:
  connect       Connect to a terminal endpoint (default)
  discover      List terminal endpoints on the local network
  history       Show recent sessions from the local journal
  transfers <session-id>  Show transfer receipts for a session

Run 'termlink <command> --help' for more information on a command.
`

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		fmt.Fprint(stdout, usage)
		return 0
	}

	switch args[1] {
	case "connect":
		return runConnect(args[2:], stdout, stderr)
	case "discover":
		return runDiscover(args[2:], stdout, stderr)
	case "history":
		return runHistory(args[2:], stdout, stderr)
	case "transfers":
		return runTransfers(args[2:], stdout, stderr)
	case "--help", "-h", "help":
		fmt.Fprint(stdout, usage)
		return 0
	case "--version", "-v", "version":
		fmt.Fprintf(stdout, "termlink %s\n", Version)
		return 0
	default:
		// Bare flags mean "connect" with options, matching the common
		// `termlink --url ws://...` invocation.
		if len(args[1]) > 0 && args[1][0] == '-' {
			return runConnect(args[1:], stdout, stderr)
		}
		fmt.Fprintf(stdout, "Unknown command: %s\n", args[1])
		fmt.Fprint(stdout, usage)
		return 1
	}
}
