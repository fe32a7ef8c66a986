package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/termlink/termlink/internal/config"
	"github.com/termlink/termlink/internal/journal"
)

// runHistory prints recent sessions from the local journal.
func runHistory(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "config file path (default ~/.termlink/config.toml)")
	limit := fs.Int("limit", 20, "maximum number of sessions to show")
	if err := fs.Parse(args); err != nil {
		return 1
	}

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

	sessions, err := j.RecentSessions(*limit)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if len(sessions) == 0 {
		fmt.Fprintln(stdout, "No sessions recorded.")
		return 0
	}

	fmt.Fprintf(stdout, "%-36s %-28s %-20s %s\n", "SESSION", "ENDPOINT", "STARTED", "CLOSE REASON")
	for _, rec := range sessions {
		ended := rec.CloseReason
		if rec.EndedAt.IsZero() {
			ended = "(live)"
		}
		fmt.Fprintf(stdout, "%-36s %-28s %-20s %s\n",
			rec.ID, rec.Endpoint, rec.StartedAt.Format("2006-01-02 15:04:05"), ended)
	}
	return 0
}
