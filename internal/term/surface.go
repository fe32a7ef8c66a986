// Package term defines the display surface contract the session core writes
// to, plus a local-terminal implementation backed by the process's stdio.
//
// The display surface is an external collaborator: the core never models
// cursors or screen buffers, it only needs write(bytes), current size, and
// the current text selection for the context-menu collaborator.
package term

import (
	"os"
	"sync"

	"golang.org/x/term"
)

// DisplaySurface is the narrow contract between the session core and
// whatever renders the terminal. Implementations are not required to be
// goroutine safe; the session event loop is the only writer.
type DisplaySurface interface {
	// Write renders raw terminal bytes.
	Write(p []byte) (int, error)

	// Size returns the current dimensions in character cells.
	Size() (cols, rows int)

	// Selection returns the currently selected text, or "" when nothing
	// is selected. The core only captures it for external consumers; it
	// never touches the clipboard itself.
	Selection() string
}

// StdioSurface renders to the process's controlling terminal.
//
// It is the surface used by cmd/termlink. Size is read live from the tty so
// resize events observed elsewhere (SIGWINCH) are always consistent with
// what Size reports.
type StdioSurface struct {
	out *os.File

	mu        sync.Mutex
	selection string
}

// NewStdioSurface creates a surface writing to stdout.
func NewStdioSurface() *StdioSurface {
	return &StdioSurface{out: os.Stdout}
}

// Write renders raw terminal bytes to stdout.
func (s *StdioSurface) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

// Size returns the tty dimensions, falling back to 80x24 when stdout is
// not a terminal (tests, pipes).
func (s *StdioSurface) Size() (cols, rows int) {
	cols, rows, err := term.GetSize(int(s.out.Fd()))
	if err != nil || cols <= 0 || rows <= 0 {
		return 80, 24
	}
	return cols, rows
}

// Selection returns the last selection recorded with SetSelection.
// A real terminal emulator would track this from mouse events; the stdio
// surface only stores what the embedding UI hands it.
func (s *StdioSurface) SetSelection(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = text
}

// Selection returns the current selection.
func (s *StdioSurface) Selection() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// RawMode puts the controlling terminal into raw mode and returns a
// restore function. Keystrokes reach the session byte-for-byte instead of
// being line-buffered by the local tty.
func RawMode() (restore func(), err error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return func() {}, nil
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return func() { _ = term.Restore(fd, state) }, nil
}
