package spool

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/trackforge/gatag/transport"
)

// newTestSpool creates a Spool with a temporary database.
func newTestSpool(t *testing.T, maxSize int) *Spool {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := Open(filepath.Join(dir, "spool.db"), maxSize, logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSpool_PushAndReplay(t *testing.T) {
	s := newTestSpool(t, 100)

	s.Push(transport.Call{Command: "create", Args: []any{"UA-1"}})
	s.Push(transport.Call{Command: "send", Args: []any{"pageview"}})

	count, err := s.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 calls, got %d", count)
	}

	rec := transport.NewRecorder()
	replayed, err := s.Replay(rec)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if replayed != 2 {
		t.Fatalf("expected 2 replayed, got %d", replayed)
	}

	calls := rec.Calls()
	if calls[0].Command != "create" || calls[1].Command != "send" {
		t.Fatalf("got %v", calls)
	}
	if calls[1].Args[0] != "pageview" {
		t.Fatalf("got args %v", calls[1].Args)
	}
}

// TestSpool_ReplayDeletesDelivered verifies replayed calls do not replay
// twice.
func TestSpool_ReplayDeletesDelivered(t *testing.T) {
	s := newTestSpool(t, 100)
	s.Push(transport.Call{Command: "send"})

	rec := transport.NewRecorder()
	if _, err := s.Replay(rec); err != nil {
		t.Fatalf("Replay: %v", err)
	}

	replayed, err := s.Replay(rec)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if replayed != 0 {
		t.Fatalf("expected 0 replayed, got %d", replayed)
	}

	count, err := s.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty spool, got %d", count)
	}
}

// TestSpool_EvictsOldestAtCapacity verifies the oldest calls make room for
// new ones.
func TestSpool_EvictsOldestAtCapacity(t *testing.T) {
	s := newTestSpool(t, 3)

	s.Push(transport.Call{Command: "first"})
	s.Push(transport.Call{Command: "second"})
	s.Push(transport.Call{Command: "third"})
	s.Push(transport.Call{Command: "fourth"})

	count, err := s.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 calls, got %d", count)
	}

	rec := transport.NewRecorder()
	if _, err := s.Replay(rec); err != nil {
		t.Fatalf("Replay: %v", err)
	}

	calls := rec.Calls()
	if calls[0].Command != "second" || calls[2].Command != "fourth" {
		t.Fatalf("got %v", calls)
	}
}

// TestSpool_SurvivesReopen verifies spooled calls persist across restarts.
func TestSpool_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spool.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := Open(path, 10, logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.Push(transport.Call{Command: "send", Args: []any{"pageview"}})
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(path, 10, logger)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	count, err := s.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 call, got %d", count)
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	if _, err := Open("", 10, nil); err == nil {
		t.Fatal("expected error")
	}
}
