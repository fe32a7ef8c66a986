// Package transfer provides a file-sink implementation of the session's
// transfer sub-decoder contract.
//
// The sink does not speak the ZMODEM framing itself; it captures the raw
// diverted stream of one transfer window into a file under the download
// directory so an external tool (or the user) can unpack it. What matters
// to the session core is only that binary frames stop reaching the display
// surface while a transfer is active.
package transfer

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Sink captures one transfer window's byte stream to disk.
type Sink struct {
	path string
	file *os.File
	size int64
}

// NewSink creates the download directory if needed and opens a uniquely
// named capture file for one transfer window.
func NewSink(downloadDir string) (*Sink, error) {
	if err := os.MkdirAll(downloadDir, 0o700); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}

	name := fmt.Sprintf("transfer-%s-%s.zmodem",
		time.Now().Format("20060102-150405"),
		uuid.NewString()[:8])
	path := filepath.Join(downloadDir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open capture file: %w", err)
	}

	log.Printf("transfer: capturing to %s", path)
	return &Sink{path: path, file: f}, nil
}

// Path returns the capture file location.
func (s *Sink) Path() string { return s.path }

// Size returns the number of bytes captured so far.
func (s *Sink) Size() int64 { return s.size }

// Feed writes one binary frame of the transfer stream.
func (s *Sink) Feed(p []byte) error {
	n, err := s.file.Write(p)
	s.size += int64(n)
	return err
}

// Close finishes the capture. An empty capture (a transfer window that
// carried no payload) is removed instead of left behind.
func (s *Sink) Close() error {
	err := s.file.Close()
	if s.size == 0 {
		os.Remove(s.path)
		return err
	}
	log.Printf("transfer: captured %d bytes to %s", s.size, s.path)
	return err
}
