package main

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/termlink/termlink/internal/config"
	"github.com/termlink/termlink/internal/journal"
)

// runTransfers prints the transfer receipts recorded for one session.
func runTransfers(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("transfers", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "config file path (default ~/.termlink/config.toml)")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(stderr, "Usage: termlink transfers <session-id>")
		return 1
	}
	sessionID := fs.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	j, err := journal.Open(cfg.Journal)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer j.Close()

	transfers, err := j.Transfers(sessionID)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if len(transfers) == 0 {
		fmt.Fprintf(stdout, "No transfers recorded for session %s.\n", sessionID)
		return 0
	}

	fmt.Fprintf(stdout, "%-12s %-20s %s\n", "BYTES", "STARTED", "DURATION")
	for _, rec := range transfers {
		fmt.Fprintf(stdout, "%-12d %-20s %s\n",
			rec.Bytes, rec.StartedAt.Format("2006-01-02 15:04:05"),
			rec.EndedAt.Sub(rec.StartedAt).Round(time.Millisecond))
	}
	return 0
}
