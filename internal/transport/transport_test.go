package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	tlerrors "github.com/termlink/termlink/internal/errors"
)

// echoServer is a minimal websocket endpoint for transport tests.
func echoServer(t *testing.T, onConn func(*websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{
		Subprotocols: []string{"terminal.v1"},
		CheckOrigin:  func(*http.Request) bool { return true },
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		onConn(conn)
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestConnectReceiveClose(t *testing.T) {
	srv := echoServer(t, func(conn *websocket.Conn) {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"PING"}`)); err != nil {
			return
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, []byte{0x01, 0x02}); err != nil {
			return
		}
		// Hold the connection open until the client closes.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	mgr := New(Config{
		URL:         wsURL(srv),
		Subprotocol: "terminal.v1",
		MaxRetries:  2,
		RetryDelay:  10 * time.Millisecond,
	})

	runDone := make(chan error, 1)
	go func() { runDone <- mgr.Run(context.Background()) }()

	waitForState(t, mgr.States(), StateOpen)

	first := waitForFrame(t, mgr.Frames())
	if first.Binary || string(first.Payload) != `{"type":"PING"}` {
		t.Errorf("first frame = %+v", first)
	}
	second := waitForFrame(t, mgr.Frames())
	if !second.Binary || len(second.Payload) != 2 {
		t.Errorf("second frame = %+v", second)
	}

	mgr.Close()
	if err := <-runDone; err != nil {
		t.Errorf("run after explicit close = %v, want nil", err)
	}

	// The frame channel drains and closes after shutdown.
	for range mgr.Frames() {
	}
}

func TestSendRequiresConnection(t *testing.T) {
	mgr := New(Config{URL: "ws://127.0.0.1:1/terminal"})
	err := mgr.Send([]byte(`{"type":"PING"}`))
	if !tlerrors.IsCode(err, tlerrors.CodeTransportClosed) {
		t.Errorf("send without connection = %v, want %s", err, tlerrors.CodeTransportClosed)
	}
}

func TestBoundedRetryExhaustion(t *testing.T) {
	// Port 1 refuses connections; every dial fails fast.
	mgr := New(Config{
		URL:        "ws://127.0.0.1:1/terminal",
		MaxRetries: 3,
		RetryDelay: 5 * time.Millisecond,
	})

	runDone := make(chan error, 1)
	start := time.Now()
	go func() { runDone <- mgr.Run(context.Background()) }()

	var runErr error
	select {
	case runErr = <-runDone:
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not finish after retry budget")
	}

	if !tlerrors.IsCode(runErr, tlerrors.CodeRetryExhausted) {
		t.Fatalf("run error = %v, want %s", runErr, tlerrors.CodeRetryExhausted)
	}
	// Each of the 3 attempts is preceded by the constant delay.
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Errorf("retries finished in %v, want at least 3 delays of 5ms", elapsed)
	}

	// The state stream ends in Closed carrying the exhaustion error.
	var last StateChange
	var attempts int
	for _, sc := range drainStates(mgr.States()) {
		if sc.State == StateReconnecting && sc.Attempt > 0 {
			attempts++
		}
		last = sc
	}
	if last.State != StateClosed {
		t.Fatalf("final state = %s, want closed", last.State)
	}
	if !tlerrors.IsCode(last.Err, tlerrors.CodeRetryExhausted) {
		t.Errorf("final state error = %v, want %s", last.Err, tlerrors.CodeRetryExhausted)
	}
	if attempts != 3 {
		t.Errorf("observed %d numbered reconnect attempts, want 3", attempts)
	}

	if mgr.State() != StateClosed {
		t.Errorf("manager state = %s, want closed", mgr.State())
	}
}

func TestStaleConnectionForcesReconnect(t *testing.T) {
	// The server accepts and stays silent; the liveness probe must notice.
	srv := echoServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	mgr := New(Config{
		URL:             wsURL(srv),
		PingInterval:    20 * time.Millisecond,
		StaleMultiplier: 1,
		MaxRetries:      2,
		RetryDelay:      10 * time.Millisecond,
		PingPayload:     func() []byte { return []byte(`{"type":"PING"}`) },
	})

	go mgr.Run(context.Background())
	defer mgr.Close()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case sc := <-mgr.States():
			if sc.State == StateReconnecting && tlerrors.IsCode(sc.Err, tlerrors.CodeTransportStale) {
				return
			}
		case <-deadline:
			t.Fatalf("no stale-triggered reconnect observed")
		}
	}
}

func TestHealthCounters(t *testing.T) {
	mgr := New(Config{
		URL:        "ws://127.0.0.1:1/terminal",
		MaxRetries: 4,
		RetryDelay: 7 * time.Millisecond,
	})
	h := mgr.Health()
	if h.MaxRetries != 4 || h.RetryDelay != 7*time.Millisecond {
		t.Errorf("health = %+v", h)
	}
}

// waitForState blocks until the given state appears on the channel.
func waitForState(t *testing.T, states <-chan StateChange, want State) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case sc := <-states:
			if sc.State == want {
				return
			}
		case <-deadline:
			t.Fatalf("state %s never arrived", want)
		}
	}
}

// waitForFrame blocks until one inbound frame arrives.
func waitForFrame(t *testing.T, frames <-chan Inbound) Inbound {
	t.Helper()
	select {
	case fr, ok := <-frames:
		if !ok {
			t.Fatalf("frame channel closed early")
		}
		return fr
	case <-time.After(5 * time.Second):
		t.Fatalf("no frame arrived")
		return Inbound{}
	}
}

// drainStates collects every buffered state change after Run has finished.
func drainStates(states <-chan StateChange) []StateChange {
	var out []StateChange
	for {
		select {
		case sc := <-states:
			out = append(out, sc)
		default:
			return out
		}
	}
}
