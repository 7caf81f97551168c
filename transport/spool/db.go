// Package spool provides a SQLite-backed store-and-forward queue for vendor
// calls. Calls pushed while the relay is unavailable persist across restarts
// and replay in FIFO order.
//
// It uses modernc.org/sqlite (pure Go, no CGO). The database runs in WAL
// mode and applies its schema on open.
package spool

import (
	"database/sql"
	"fmt"

	// Register the pure-Go SQLite driver.
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS calls (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    call_json TEXT NOT NULL,
    idempotency_key TEXT NOT NULL UNIQUE,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_calls_created ON calls(created_at);
`

// openDB opens (or creates) the spool database at path with WAL mode and a
// busy timeout, and ensures the schema exists.
func openDB(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("spool: database path must not be empty")
	}

	// WAL mode for concurrent access, 5s busy timeout for lock contention.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("spool: open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("spool: ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("spool: apply schema: %w", err)
	}

	return db, nil
}
