// Package journal records interception decisions in a SQLite database so
// they can be inspected after the instrumented processes have exited.
package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration
)

// Entry is one recorded decision.
type Entry struct {
	Seq       int64
	Timestamp time.Time
	PID       int
	// EntryPoint is the intercepted call, e.g. "execvp".
	EntryPoint string
	Program    string
	// Resolved is the path the decision was made on; empty when PATH
	// lookup failed.
	Resolved string
	Verdict  string
	Reason   string
	// Argv is the vector that was launched.
	Argv []string
}

// Store is a decision journal. It is safe for concurrent use.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens or creates a journal at path.
func Open(path string) (*Store, error) {
	// Several instrumented processes may append at once.
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS decisions (
			seq      INTEGER PRIMARY KEY AUTOINCREMENT,
			ts       TEXT NOT NULL,
			pid      INTEGER NOT NULL,
			entry    TEXT NOT NULL,
			program  TEXT NOT NULL,
			resolved TEXT NOT NULL,
			verdict  TEXT NOT NULL,
			reason   TEXT NOT NULL,
			argv     TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_decisions_ts ON decisions(ts);
	`)
	if err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}

// Record appends e. A zero Timestamp is replaced by the current time.
func (s *Store) Record(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	argv := e.Argv
	if argv == nil {
		argv = []string{}
	}
	argvJSON, err := json.Marshal(argv)
	if err != nil {
		return fmt.Errorf("marshaling argv: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO decisions (ts, pid, entry, program, resolved, verdict, reason, argv)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.Timestamp.UTC().Format(time.RFC3339Nano), e.PID, e.EntryPoint,
		e.Program, e.Resolved, e.Verdict, e.Reason, string(argvJSON))
	if err != nil {
		return fmt.Errorf("inserting decision: %w", err)
	}
	return nil
}

// List returns up to limit entries, newest first. A limit of zero or
// less returns every entry.
func (s *Store) List(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT seq, ts, pid, entry, program, resolved, verdict, reason, argv
		FROM decisions ORDER BY seq DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying decisions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts, argv string
		if err := rows.Scan(&e.Seq, &ts, &e.PID, &e.EntryPoint, &e.Program,
			&e.Resolved, &e.Verdict, &e.Reason, &argv); err != nil {
			return nil, fmt.Errorf("scanning decision: %w", err)
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		if err := json.Unmarshal([]byte(argv), &e.Argv); err != nil {
			return nil, fmt.Errorf("decoding argv of decision %d: %w", e.Seq, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of recorded entries.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM decisions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting decisions: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
