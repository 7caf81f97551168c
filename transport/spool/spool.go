package spool

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trackforge/gatag/transport"
)

// DefaultMaxSize is the spool capacity when none is configured.
const DefaultMaxSize = 1000

// Spool is a persistent FIFO transport. Push serializes the call into
// SQLite; Replay drains stored calls into a target transport. When the spool
// reaches capacity the oldest calls are evicted to make room.
type Spool struct {
	db      *sql.DB
	maxSize int
	logger  *slog.Logger
}

// Open creates a Spool backed by the database at path. maxSize <= 0 falls
// back to DefaultMaxSize. A nil logger uses slog.Default.
func Open(path string, maxSize int, logger *slog.Logger) (*Spool, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	return &Spool{
		db:      db,
		maxSize: maxSize,
		logger:  logger.With("component", "spool"),
	}, nil
}

// Close closes the underlying database.
func (s *Spool) Close() error {
	return s.db.Close()
}

// Push persists the call. Errors are logged, not returned: the Transport
// contract has no error channel, and a failed spool write should not break
// the event flow that produced the call.
func (s *Spool) Push(call transport.Call) {
	if err := s.enqueue(call); err != nil {
		s.logger.Error("failed to spool call", "command", call.Command, "error", err)
	}
}

func (s *Spool) enqueue(call transport.Call) error {
	body, err := json.Marshal(call)
	if err != nil {
		return fmt.Errorf("marshal call: %w", err)
	}

	count, err := s.Count()
	if err != nil {
		return fmt.Errorf("count calls: %w", err)
	}
	if count >= s.maxSize {
		if err := s.evictOldest(count - s.maxSize + 1); err != nil {
			return fmt.Errorf("evict oldest: %w", err)
		}
	}

	_, err = s.db.Exec(
		`INSERT OR IGNORE INTO calls (call_json, idempotency_key, created_at) VALUES (?, ?, ?)`,
		string(body), uuid.New().String(), time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert call: %w", err)
	}
	return nil
}

// Count returns the number of spooled calls.
func (s *Spool) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM calls`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Replay pushes all spooled calls to target in FIFO order and deletes the
// ones that were delivered. Returns the number of calls replayed.
func (s *Spool) Replay(target transport.Transport) (int, error) {
	rows, err := s.db.Query(`SELECT id, call_json FROM calls ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return 0, fmt.Errorf("spool: query calls: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var (
			id   int64
			body string
		)
		if err := rows.Scan(&id, &body); err != nil {
			return 0, fmt.Errorf("spool: scan call: %w", err)
		}

		var call transport.Call
		if err := json.Unmarshal([]byte(body), &call); err != nil {
			// A corrupt row blocks the queue forever if kept; drop it.
			s.logger.Warn("dropping undecodable spooled call", "id", id, "error", err)
			ids = append(ids, id)
			continue
		}

		target.Push(call)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("spool: iterate calls: %w", err)
	}

	if err := s.delete(ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (s *Spool) delete(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	if _, err := s.db.Exec(`DELETE FROM calls WHERE id IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("spool: delete calls: %w", err)
	}
	return nil
}

func (s *Spool) evictOldest(n int) error {
	_, err := s.db.Exec(
		`DELETE FROM calls WHERE id IN (SELECT id FROM calls ORDER BY created_at ASC, id ASC LIMIT ?)`,
		n,
	)
	return err
}
