// Package transport owns the websocket connection lifecycle for one logical
// session: connect, keepalive, staleness detection, bounded reconnection,
// and teardown.
//
// The manager is the only component that touches the underlying connection.
// Inbound frames are delivered on Frames(), lifecycle transitions on
// States(); the session event loop consumes both. Outbound traffic goes
// through Send, which is safe to call from the session loop and from the
// manager's own liveness probe.
//
// State machine: Connecting -> Open -> {Reconnecting -> Open | Closed}.
// Reconnection is a fixed-delay, bounded-retry scheme: up to MaxRetries
// attempts, each preceded by a constant RetryDelay. No exponential backoff,
// by deliberate simplicity/latency tradeoff. Exceeding the budget moves the
// manager to Closed permanently.
package transport

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"github.com/termlink/termlink/internal/errors"
)

// State is the connection lifecycle state.
type State int

const (
	// StateConnecting is the initial dial, before the first Open.
	StateConnecting State = iota

	// StateOpen means the transport is established and healthy.
	StateOpen

	// StateReconnecting means the transport dropped and the bounded
	// retry loop is running.
	StateReconnecting

	// StateClosed is terminal: explicit close or exhausted retry budget.
	StateClosed
)

// String returns the lowercase state name for logs.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Inbound is one frame read off the transport.
type Inbound struct {
	// Binary reports whether the frame arrived as a websocket binary
	// message (raw terminal or transfer bytes) rather than text (JSON
	// control envelope).
	Binary bool

	// Payload is the frame content.
	Payload []byte
}

// StateChange notifies the consumer of a lifecycle transition.
type StateChange struct {
	State State

	// Attempt is the reconnect attempt number for StateReconnecting.
	Attempt int

	// Err carries the failure that caused the transition, if any. For the
	// terminal StateClosed after an exhausted budget it has code
	// "retry.exhausted".
	Err error
}

// Health is a snapshot of the connection health counters.
type Health struct {
	LastSendTime    time.Time
	LastReceiveTime time.Time
	RetryCount      int
	MaxRetries      int
	RetryDelay      time.Duration
	MissedProbes    int
}

// Config holds the manager configuration.
type Config struct {
	// URL is the websocket endpoint.
	URL string

	// Subprotocol is the single sub-protocol identifier required when
	// opening the transport.
	Subprotocol string

	// PingInterval is the liveness probe period. Zero disables the probe.
	PingInterval time.Duration

	// StaleMultiplier is how many silent probe intervals mark the
	// connection stale and force a reconnect.
	StaleMultiplier int

	// MaxRetries is the reconnect budget.
	MaxRetries int

	// RetryDelay is the constant delay preceding each reconnect attempt.
	RetryDelay time.Duration

	// PingPayload builds the keepalive envelope sent on each probe tick.
	// Required when PingInterval > 0.
	PingPayload func() []byte

	// Dialer overrides the websocket dialer (tests). Nil uses the default.
	Dialer *websocket.Dialer
}

// Manager owns the transport for the lifetime of one session.
type Manager struct {
	cfg Config

	frames chan Inbound
	states chan StateChange

	mu          sync.Mutex
	conn        *websocket.Conn
	state       State
	lastSend    time.Time
	lastReceive time.Time
	retryCount  int
	missed      int

	done      chan struct{}
	closeOnce sync.Once
}

// New creates a transport manager. Run must be called to start it.
func New(cfg Config) *Manager {
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	return &Manager{
		cfg:    cfg,
		frames: make(chan Inbound, 256),
		states: make(chan StateChange, 16),
		state:  StateConnecting,
		done:   make(chan struct{}),
	}
}

// Frames returns the inbound frame channel. It is closed when the manager
// reaches StateClosed and no further frames will be delivered; a session
// that is already closed must discard anything still buffered.
func (m *Manager) Frames() <-chan Inbound { return m.frames }

// States returns the lifecycle transition channel.
func (m *Manager) States() <-chan StateChange { return m.states }

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Health returns a snapshot of the connection health counters.
func (m *Manager) Health() Health {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Health{
		LastSendTime:    m.lastSend,
		LastReceiveTime: m.lastReceive,
		RetryCount:      m.retryCount,
		MaxRetries:      m.cfg.MaxRetries,
		RetryDelay:      m.cfg.RetryDelay,
		MissedProbes:    m.missed,
	}
}

// Send writes a text frame to the transport. It fails with
// "transport.closed" when no connection is up; a single failed send is
// recoverable and does not itself tear the session down.
func (m *Manager) Send(payload []byte) error {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()

	if conn == nil {
		return errors.TransportClosed()
	}

	// gorilla/websocket allows one concurrent writer; the session loop and
	// the probe ticker both send, so serialize here.
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		return errors.TransportClosed()
	}
	m.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := m.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return errors.SendFailed(err)
	}
	m.lastSend = time.Now()
	return nil
}

// Close tears the transport down exactly once. Pending reconnect attempts
// are invalidated and the liveness probe stops.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)
		m.mu.Lock()
		if m.conn != nil {
			m.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			m.conn.Close()
		}
		m.mu.Unlock()
	})
	return nil
}

// Run drives the lifecycle until the context is cancelled, Close is
// called, or the retry budget is exhausted. It always leaves the manager
// in StateClosed and closes the frame channel on the way out.
func (m *Manager) Run(ctx context.Context) error {
	defer func() {
		m.setState(StateClosed)
		close(m.frames)
	}()

	first := true
	var lastErr error

	for {
		if m.isDone(ctx) {
			m.emit(StateChange{State: StateClosed})
			return nil
		}

		conn, err := m.establish(ctx, first)
		if err != nil {
			m.emit(StateChange{State: StateClosed, Err: err})
			return err
		}
		first = false

		m.mu.Lock()
		m.conn = conn
		m.state = StateOpen
		m.retryCount = 0
		m.missed = 0
		m.lastReceive = time.Now()
		m.mu.Unlock()

		log.Printf("transport: connection open to %s", m.cfg.URL)
		m.emit(StateChange{State: StateOpen})

		lastErr = m.readLoop(ctx, conn)

		m.mu.Lock()
		m.conn = nil
		m.mu.Unlock()
		conn.Close()

		if m.isDone(ctx) {
			m.emit(StateChange{State: StateClosed})
			return nil
		}

		log.Printf("transport: connection lost: %v", lastErr)
		m.emit(StateChange{State: StateReconnecting, Err: lastErr})
	}
}

// establish dials the endpoint. The very first call (connecting) tries
// immediately; every subsequent attempt is preceded by the constant retry
// delay. Exhausting the budget returns a "retry.exhausted" error.
func (m *Manager) establish(ctx context.Context, first bool) (*websocket.Conn, error) {
	if first {
		m.setState(StateConnecting)
		conn, err := m.dial(ctx)
		if err == nil {
			return conn, nil
		}
		log.Printf("transport: initial dial failed: %v", err)
		m.emit(StateChange{State: StateReconnecting, Err: err})
	} else {
		m.setState(StateReconnecting)
	}

	// Fixed-delay, bounded-retry. The backoff policy is constant by
	// design; the budget lives in the loop bound, not the policy.
	policy := backoff.NewConstantBackOff(m.cfg.RetryDelay)

	var lastErr error
	for attempt := 1; attempt <= m.cfg.MaxRetries; attempt++ {
		m.mu.Lock()
		m.retryCount = attempt
		m.mu.Unlock()

		select {
		case <-time.After(policy.NextBackOff()):
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-m.done:
			return nil, errors.TransportClosed()
		}

		log.Printf("transport: reconnect attempt %d/%d", attempt, m.cfg.MaxRetries)
		conn, err := m.dial(ctx)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		m.emit(StateChange{State: StateReconnecting, Attempt: attempt, Err: err})
	}

	return nil, errors.RetryExhausted(m.cfg.MaxRetries, lastErr)
}

// dial opens one websocket connection with the configured sub-protocol.
func (m *Manager) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := *m.cfg.Dialer
	if m.cfg.Subprotocol != "" {
		dialer.Subprotocols = []string{m.cfg.Subprotocol}
	}
	conn, _, err := dialer.DialContext(ctx, m.cfg.URL, nil)
	if err != nil {
		return nil, errors.DialFailed(m.cfg.URL, err)
	}
	return conn, nil
}

// readLoop pumps inbound frames until the connection fails or goes stale.
// It also runs the liveness probe: a PING envelope on every tick, and a
// staleness check against the last receive time.
func (m *Manager) readLoop(ctx context.Context, conn *websocket.Conn) error {
	readErr := make(chan error, 1)

	go func() {
		for {
			msgType, payload, err := conn.ReadMessage()
			if err != nil {
				readErr <- errors.Wrap(errors.CodeTransportReadFailed, "read failed", err)
				return
			}

			m.mu.Lock()
			m.lastReceive = time.Now()
			m.missed = 0
			m.mu.Unlock()

			select {
			case m.frames <- Inbound{Binary: msgType == websocket.BinaryMessage, Payload: payload}:
			case <-m.done:
				readErr <- errors.TransportClosed()
				return
			}
		}
	}()

	var probe *time.Ticker
	var probeC <-chan time.Time
	if m.cfg.PingInterval > 0 {
		probe = time.NewTicker(m.cfg.PingInterval)
		probeC = probe.C
		defer probe.Stop()
	}

	for {
		select {
		case err := <-readErr:
			return err

		case <-probeC:
			if stale := m.checkStale(); stale != nil {
				conn.Close()
				<-readErr
				return stale
			}
			if m.cfg.PingPayload != nil {
				if err := m.Send(m.cfg.PingPayload()); err != nil {
					log.Printf("transport: keepalive send failed: %v", err)
				}
			}

		case <-ctx.Done():
			conn.Close()
			<-readErr
			return ctx.Err()

		case <-m.done:
			conn.Close()
			<-readErr
			return errors.TransportClosed()
		}
	}
}

// checkStale reports a "transport.stale" error when no inbound traffic has
// arrived within StaleMultiplier probe intervals.
func (m *Manager) checkStale() error {
	if m.cfg.StaleMultiplier <= 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	silent := time.Since(m.lastReceive)
	threshold := m.cfg.PingInterval * time.Duration(m.cfg.StaleMultiplier)
	if silent <= threshold {
		return nil
	}
	m.missed++
	return errors.Stale(silent.Milliseconds())
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Manager) isDone(ctx context.Context) bool {
	select {
	case <-m.done:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// emit delivers a state change without ever blocking the lifecycle loop.
// The channel is buffered; a consumer that has fallen this far behind has
// already abandoned the session.
func (m *Manager) emit(sc StateChange) {
	select {
	case m.states <- sc:
	default:
		log.Printf("transport: dropping state change %s (consumer stalled)", sc.State)
	}
}
