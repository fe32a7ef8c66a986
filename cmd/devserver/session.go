package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/creack/pty"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/termlink/termlink/internal/protocol"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	Subprotocols:    []string{"terminal.v1"},
	// Development server: accept any origin.
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsSession is one websocket connection bridged to a PTY.
type wsSession struct {
	id   string
	conn *websocket.Conn

	// gorilla/websocket allows one concurrent writer.
	writeMu sync.Mutex

	ptmx *os.File
	cmd  *exec.Cmd
}

// serveTerminal upgrades the connection and runs one PTY-backed session
// until either side closes.
func serveTerminal(w http.ResponseWriter, r *http.Request, shell string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("devserver: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	cmd := exec.Command(shell)
	cmd.Env = append(cmd.Environ(), "TERM=xterm-256color")
	ptmx, err := pty.Start(cmd)
	if err != nil {
		log.Printf("devserver: start shell: %v", err)
		return
	}
	defer ptmx.Close()

	s := &wsSession{
		id:   uuid.NewString(),
		conn: conn,
		ptmx: ptmx,
		cmd:  cmd,
	}
	log.Printf("devserver: session %s open for %s", s.id, r.RemoteAddr)

	if err := s.sendConnect(); err != nil {
		log.Printf("devserver: send CONNECT: %v", err)
		return
	}

	done := make(chan struct{})
	go s.pumpOutput(ptmx, done)

	s.readLoop(ptmx)

	// Kill the shell first: the output pump may be blocked in a PTY read
	// and only unblocks when the process side goes away.
	cmd.Process.Kill()
	ptmx.Close()
	<-done
	cmd.Wait()
	log.Printf("devserver: session %s closed", s.id)
}

// sendConnect delivers the CONNECT envelope that establishes the session.
func (s *wsSession) sendConnect() error {
	payload, _ := json.Marshal(protocol.ConnectPayload{
		User: protocol.ConnectUser{Username: "dev"},
		Code: newShareCode(),
	})
	return s.sendEnvelope(protocol.TagConnect, string(payload))
}

// sendEnvelope writes one control envelope as a text frame.
func (s *wsSession) sendEnvelope(typ protocol.Tag, data string) error {
	payload, err := protocol.Encode(s.id, typ, data)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

// pumpOutput forwards PTY output to the client as binary frames.
func (s *wsSession) pumpOutput(ptmx *os.File, done chan<- struct{}) {
	defer close(done)

	buf := make([]byte, 8192)
	for {
		n, err := ptmx.Read(buf)
		if n > 0 {
			s.writeMu.Lock()
			s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			werr := s.conn.WriteMessage(websocket.BinaryMessage, buf[:n])
			s.writeMu.Unlock()
			if werr != nil {
				return
			}
		}
		if err != nil {
			// Shell exited: tell the client the session is over.
			s.sendEnvelope(protocol.TagClose, "")
			s.writeMu.Lock()
			s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			s.writeMu.Unlock()
			return
		}
	}
}

// readLoop consumes client envelopes until the connection drops.
func (s *wsSession) readLoop(ptmx *os.File) {
	for {
		msgType, payload, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			// The client never sends binary upstream; drop it.
			continue
		}

		env, err := protocol.Decode(payload)
		if err != nil {
			log.Printf("devserver: dropping frame: %v", err)
			continue
		}

		switch env.Type {
		case protocol.TagTerminalInit:
			var init protocol.InitPayload
			if err := json.Unmarshal([]byte(env.Data), &init); err != nil {
				log.Printf("devserver: bad TERMINAL_INIT: %v", err)
				continue
			}
			s.resize(init.Cols, init.Rows)

		case protocol.TagTerminalData:
			if _, err := ptmx.Write([]byte(env.Data)); err != nil {
				log.Printf("devserver: pty write: %v", err)
			}

		case protocol.TagTerminalResize:
			size, err := protocol.ParseResize(env.Data)
			if err != nil {
				log.Printf("devserver: %v", err)
				continue
			}
			s.resize(size.Cols, size.Rows)

		case protocol.TagPing:
			if err := s.sendEnvelope(protocol.TagPing, ""); err != nil {
				return
			}

		case protocol.TagClose:
			return

		default:
			log.Printf("devserver: ignoring %s", env.Type)
		}
	}
}

// resize applies new dimensions to the PTY.
func (s *wsSession) resize(cols, rows int) {
	if cols <= 0 || rows <= 0 {
		return
	}
	if err := pty.Setsize(s.ptmx, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)}); err != nil {
		log.Printf("devserver: resize: %v", err)
	}
}
