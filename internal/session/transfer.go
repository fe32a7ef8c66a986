package session

import (
	"log"
	"time"

	"github.com/termlink/termlink/internal/errors"
)

// The binary transfer sentry decides where raw binary frames go: to the
// display surface (Idle) or to the file-transfer sub-decoder (Receiving).
// The sentry owns TransferState exclusively; transitions only happen on
// ZMODEM_START/ZMODEM_END action tags (plus the defensive reset in
// dispatchAction), always on the session loop.

// handleBinary routes one raw binary frame according to the sentry state.
func (s *Session) handleBinary(data []byte) {
	if s.transfer == transferReceiving {
		s.transferBytes += int64(len(data))
		if s.decoder == nil {
			// Diversion must continue even without a decoder, or the
			// raw transfer stream corrupts the display.
			return
		}
		if err := s.decoder.Feed(data); err != nil {
			log.Printf("session: %v", errors.Wrap(errors.CodeTransferDecodeFailed, "transfer decoder rejected frame", err))
		}
		return
	}

	if _, err := s.cfg.Surface.Write(data); err != nil {
		log.Printf("session: display write failed: %v", err)
	}
}

// enterTransfer switches the sentry to Receiving.
//
// The user-visible notification is suppressed when the session has the
// transfer-disabled flag set, but the state transition still occurs: the
// payload must be diverted either way.
func (s *Session) enterTransfer() {
	if s.transfer == transferReceiving {
		return
	}
	s.transfer = transferReceiving
	s.transferStart = time.Now()
	s.transferBytes = 0

	if s.cfg.NewDecoder != nil {
		s.decoder = s.cfg.NewDecoder()
	}

	if !s.transferDisabled {
		s.notify("file transfer starting")
	}
}

// leaveTransfer switches the sentry back to Idle, finishes the decoder,
// records the receipt, and writes a newline to resynchronize the cursor.
func (s *Session) leaveTransfer() {
	if s.transfer != transferReceiving {
		return
	}
	s.transfer = transferIdle

	if s.decoder != nil {
		if err := s.decoder.Close(); err != nil {
			log.Printf("session: transfer decoder close failed: %v", err)
		}
		s.decoder = nil
	}

	if s.cfg.Recorder != nil && s.id != "" {
		s.cfg.Recorder.TransferRecorded(s.id, s.transferBytes, s.transferStart, time.Now())
	}
	s.emit(Event{Kind: KindEvent, Name: "transfer", Detail: "complete"})

	// Resynchronize the cursor after the diverted stream and drop the
	// cached transfer flag.
	s.writeNotice("\r\n")
	s.transferBytes = 0
	s.transferStart = time.Time{}
}
