package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/termlink/termlink/internal/config"
	"github.com/termlink/termlink/internal/discovery"
	"github.com/termlink/termlink/internal/journal"
	"github.com/termlink/termlink/internal/protocol"
	"github.com/termlink/termlink/internal/session"
	"github.com/termlink/termlink/internal/share"
	"github.com/termlink/termlink/internal/term"
	"github.com/termlink/termlink/internal/transfer"
	"github.com/termlink/termlink/internal/transport"
)

// runConnect connects to a terminal endpoint and bridges the local tty to
// the remote session until either side closes.
func runConnect(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("connect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	urlFlag := fs.String("url", "", "websocket endpoint (e.g. ws://host:7071/terminal)")
	configPath := fs.String("config", "", "config file path (default ~/.termlink/config.toml)")
	discover := fs.Bool("discover", false, "resolve the endpoint via mDNS when --url is empty")
	qr := fs.Bool("qr", false, "display the session share code as a QR code")
	noJournal := fs.Bool("no-journal", false, "disable the local session journal")
	downloadDir := fs.String("download-dir", "", "directory for received file transfers")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	// CLI flags take precedence over the config file.
	if *urlFlag != "" {
		cfg.URL = *urlFlag
	}
	if *discover {
		cfg.Discover = true
	}
	if *qr {
		cfg.QR = true
	}
	if *downloadDir != "" {
		cfg.DownloadDir = *downloadDir
	}

	// Raw terminal bytes go to stdout; everything else (logs) must stay off
	// the session's display stream.
	log.SetOutput(stderr)
	if cfg.LogLevel != "debug" {
		log.SetOutput(io.Discard)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.URL == "" {
		if !cfg.Discover {
			fmt.Fprintln(stderr, "Error: no endpoint. Pass --url or enable --discover.")
			return 1
		}
		endpoints, err := discovery.Browse(ctx, 3*time.Second)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		cfg.URL = endpoints[0].URL()
		fmt.Fprintf(stderr, "Discovered endpoint %s (%s)\n", endpoints[0].Name, cfg.URL)
	}

	var rec session.Recorder
	if !*noJournal {
		j, err := journal.Open(cfg.Journal)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		defer j.Close()
		rec = j
	}

	return connect(ctx, cfg, rec, stdout, stderr)
}

// connect wires the transport, the session core, and the local tty together
// and blocks until the session finishes.
func connect(ctx context.Context, cfg *config.Config, rec session.Recorder, stdout, stderr io.Writer) int {
	mgr := transport.New(transport.Config{
		URL:             cfg.URL,
		Subprotocol:     cfg.Subprotocol,
		PingInterval:    time.Duration(cfg.PingIntervalMs) * time.Millisecond,
		StaleMultiplier: cfg.StaleMultiplier,
		MaxRetries:      cfg.MaxRetries,
		RetryDelay:      time.Duration(cfg.RetryDelayMs) * time.Millisecond,
		PingPayload: func() []byte {
			payload, _ := protocol.Encode("", protocol.TagPing, "")
			return payload
		},
	})

	surface := term.NewStdioSurface()
	sess := session.New(session.Config{
		Transport: mgr,
		Surface:   surface,
		NewDecoder: func() session.TransferDecoder {
			sink, err := transfer.NewSink(cfg.DownloadDir)
			if err != nil {
				log.Printf("termlink: transfer capture unavailable: %v", err)
				return discardDecoder{}
			}
			return sink
		},
		Notify: func(message string) {
			fmt.Fprintf(stderr, "\r\n* %s\r\n", message)
		},
		Recorder:       rec,
		Endpoint:       cfg.URL,
		ResizeDebounce: time.Duration(cfg.ResizeDebounceMs) * time.Millisecond,
		InputRateLimit: cfg.InputRateLimit,
	})

	restore, err := term.RawMode()
	if err != nil {
		fmt.Fprintf(stderr, "Error: raw mode: %v\n", err)
		return 1
	}
	defer restore()

	go mgr.Run(ctx)
	go readStdin(sess)
	go watchResize(ctx, sess, surface)

	done := make(chan int, 1)
	go func() { done <- consumeEvents(sess, cfg, stderr) }()

	sess.Run(mgr.Frames(), mgr.States())
	return <-done
}

// readStdin pumps local keystrokes into the session until stdin closes.
func readStdin(sess *session.Session) {
	buf := make([]byte, 4096)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			sess.SendInput(buf[:n])
		}
		if err != nil {
			return
		}
	}
}

// watchResize forwards terminal size changes (SIGWINCH) to the session.
func watchResize(ctx context.Context, sess *session.Session, surface *term.StdioSurface) {
	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)
	defer signal.Stop(winch)

	for {
		select {
		case <-winch:
			cols, rows := surface.Size()
			sess.Resize(cols, rows)
		case <-ctx.Done():
			return
		}
	}
}

// consumeEvents drains the session's observer channel, surfacing share
// codes and the final close reason. Returns the process exit code.
func consumeEvents(sess *session.Session, cfg *config.Config, stderr io.Writer) int {
	code := 0
	for ev := range sess.Events() {
		if ev.Kind != session.KindEvent {
			continue
		}
		switch ev.Name {
		case "connect":
			if ev.Detail != "" {
				if cfg.QR {
					share.DisplayQRCode(stderr, ev.Detail)
				} else {
					share.DisplayCode(stderr, ev.Detail)
				}
			}
		case "close":
			if ev.Detail != "" && ev.Detail != "closed" && ev.Detail != "server_close" {
				code = 1
			}
			fmt.Fprintf(stderr, "\r\nSession closed (%s)\r\n", ev.Detail)
		}
	}
	return code
}

// discardDecoder stands in when the capture sink cannot be created; the
// transfer still diverts away from the display, the bytes are just dropped.
type discardDecoder struct{}

func (discardDecoder) Feed([]byte) error { return nil }
func (discardDecoder) Close() error      { return nil }
