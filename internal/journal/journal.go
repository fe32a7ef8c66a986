// Package journal persists a local record of sessions and file transfers.
//
// The journal answers "what did this client connect to, when, and what did
// it receive". It stores metadata only, never terminal content, so it is
// not a session replay mechanism.
package journal

import (
	"fmt"
	"log"
	"sync"
	"time"

	// SQLite driver - imported for side effects (registers the driver).
	// Using modernc.org/sqlite which is a pure-Go implementation that
	// doesn't require CGO, making cross-compilation and testing easier.
	"database/sql"

	_ "modernc.org/sqlite"

	tlerrors "github.com/termlink/termlink/internal/errors"
)

// SessionRecord is one journaled session.
type SessionRecord struct {
	ID          string
	Endpoint    string
	StartedAt   time.Time
	EndedAt     time.Time // zero while the session is live
	CloseReason string
}

// TransferRecord is one journaled transfer receipt.
type TransferRecord struct {
	SessionID string
	Bytes     int64
	StartedAt time.Time
	EndedAt   time.Time
}

// Journal is a SQLite-backed event journal.
// It creates the database and tables on first use and supports concurrent
// access through internal locking.
type Journal struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens or creates the journal database at the given path.
// Use ":memory:" for an in-memory database (useful for testing).
func Open(path string) (*Journal, error) {
	log.Printf("journal: opening database at %s", path)

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, tlerrors.Wrap(tlerrors.CodeJournalOpenFailed, "open database", err)
	}

	// A single connection keeps :memory: databases coherent and sidesteps
	// SQLite writer contention; the journal is low traffic anyway.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, tlerrors.Wrap(tlerrors.CodeJournalOpenFailed, "ping database", err)
	}

	j := &Journal{db: db}
	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, tlerrors.Wrap(tlerrors.CodeJournalOpenFailed, "init schema", err)
	}
	return j, nil
}

// Close releases the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) initSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id           TEXT PRIMARY KEY,
	endpoint     TEXT NOT NULL,
	started_at   INTEGER NOT NULL,
	ended_at     INTEGER,
	close_reason TEXT
);

CREATE TABLE IF NOT EXISTS transfers (
	session_id TEXT NOT NULL REFERENCES sessions(id),
	bytes      INTEGER NOT NULL,
	started_at INTEGER NOT NULL,
	ended_at   INTEGER NOT NULL
);
`
	_, err := j.db.Exec(schema)
	return err
}

// SessionStarted records the start of a session. Reconnects reuse the same
// session id, so an existing row is left untouched.
func (j *Journal) SessionStarted(sessionID, endpoint string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(
		`INSERT INTO sessions (id, endpoint, started_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		sessionID, endpoint, time.Now().UnixMilli())
	if err != nil {
		log.Printf("journal: %v", tlerrors.Wrap(tlerrors.CodeJournalWriteFailed, "record session start", err))
	}
}

// SessionEnded records the end of a session with its close reason.
func (j *Journal) SessionEnded(sessionID, reason string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(
		`UPDATE sessions SET ended_at = ?, close_reason = ? WHERE id = ?`,
		time.Now().UnixMilli(), reason, sessionID)
	if err != nil {
		log.Printf("journal: %v", tlerrors.Wrap(tlerrors.CodeJournalWriteFailed, "record session end", err))
	}
}

// TransferRecorded records one completed transfer window.
func (j *Journal) TransferRecorded(sessionID string, bytes int64, started, ended time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(
		`INSERT INTO transfers (session_id, bytes, started_at, ended_at) VALUES (?, ?, ?, ?)`,
		sessionID, bytes, started.UnixMilli(), ended.UnixMilli())
	if err != nil {
		log.Printf("journal: %v", tlerrors.Wrap(tlerrors.CodeJournalWriteFailed, "record transfer", err))
	}
}

// RecentSessions returns up to limit sessions, newest first.
func (j *Journal) RecentSessions(limit int) ([]SessionRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.Query(
		`SELECT id, endpoint, started_at, COALESCE(ended_at, 0), COALESCE(close_reason, '')
		 FROM sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var started, ended int64
		if err := rows.Scan(&rec.ID, &rec.Endpoint, &started, &ended, &rec.CloseReason); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		rec.StartedAt = time.UnixMilli(started)
		if ended > 0 {
			rec.EndedAt = time.UnixMilli(ended)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Transfers returns the transfer receipts for one session, oldest first.
func (j *Journal) Transfers(sessionID string) ([]TransferRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.Query(
		`SELECT session_id, bytes, started_at, ended_at
		 FROM transfers WHERE session_id = ? ORDER BY started_at`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query transfers: %w", err)
	}
	defer rows.Close()

	var out []TransferRecord
	for rows.Next() {
		var rec TransferRecord
		var started, ended int64
		if err := rows.Scan(&rec.SessionID, &rec.Bytes, &started, &ended); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		rec.StartedAt = time.UnixMilli(started)
		rec.EndedAt = time.UnixMilli(ended)
		out = append(out, rec)
	}
	return out, rows.Err()
}
