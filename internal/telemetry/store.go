// Package telemetry is an operational event store, strictly for
// operator visibility: lost blocks, device health-test failures, and
// per-connection dispatch outcomes. It is never read back to
// reconstitute pool state — the pool exists only in memory, by design.
package telemetry

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS lost_blocks (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	block_index  INTEGER NOT NULL,
	reason       TEXT NOT NULL,
	timestamp_ns INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS health_failures (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	device       TEXT NOT NULL,
	test_name    TEXT NOT NULL,
	timestamp_ns INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS dispatches (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	outcome      TEXT NOT NULL,
	timestamp_ns INTEGER NOT NULL
);
`

// event is the internal unit of work handed to the writer goroutine.
type event struct {
	exec string
	args []any
}

// Store is a buffered, asynchronously-written SQLite event log. Writes
// go through a single writer goroutine so a slow disk never adds
// latency to a Refiller or Dispatcher on the hot path.
type Store struct {
	db     *sql.DB
	events chan event
	done   chan struct{}
	wg     sync.WaitGroup
}

// Open opens or creates the event store database at path and starts its
// writer goroutine.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("telemetry: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("telemetry: open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("telemetry: apply schema: %w", err)
	}

	s := &Store{
		db:     db,
		events: make(chan event, 256),
		done:   make(chan struct{}),
	}
	s.wg.Add(1)
	go s.writeLoop()
	return s, nil
}

func (s *Store) writeLoop() {
	defer s.wg.Done()
	for {
		select {
		case e := <-s.events:
			s.db.Exec(e.exec, e.args...)
		case <-s.done:
			// Drain whatever is already queued before exiting.
			for {
				select {
				case e := <-s.events:
					s.db.Exec(e.exec, e.args...)
				default:
					return
				}
			}
		}
	}
}

func (s *Store) enqueue(e event) {
	select {
	case s.events <- e:
	default:
		// Buffer full: drop the telemetry record rather than block the
		// caller's hot path.
	}
}

// RecordLostBlock logs a block permanently removed from circulation.
func (s *Store) RecordLostBlock(index int, reason string) {
	s.enqueue(event{
		exec: `INSERT INTO lost_blocks (block_index, reason, timestamp_ns) VALUES (?, ?, ?)`,
		args: []any{index, reason, time.Now().UnixNano()},
	})
}

// RecordHealthFailure logs a device health test tripping.
func (s *Store) RecordHealthFailure(deviceName, testName string) {
	s.enqueue(event{
		exec: `INSERT INTO health_failures (device, test_name, timestamp_ns) VALUES (?, ?, ?)`,
		args: []any{deviceName, testName, time.Now().UnixNano()},
	})
}

// RecordDispatch logs the outcome of a single client request ("served",
// "extract_failed", "write_failed").
func (s *Store) RecordDispatch(outcome string) {
	s.enqueue(event{
		exec: `INSERT INTO dispatches (outcome, timestamp_ns) VALUES (?, ?)`,
		args: []any{outcome, time.Now().UnixNano()},
	})
}

// Close stops the writer goroutine after draining pending events and
// closes the database.
func (s *Store) Close() error {
	close(s.done)
	s.wg.Wait()
	return s.db.Close()
}
