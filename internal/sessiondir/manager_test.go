package sessiondir

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := New(filepath.Join(t.TempDir(), "temp"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return m
}

func TestAcquireCreatesEmptyDir(t *testing.T) {
	m := newTestManager(t)
	path, err := m.Acquire("abc123")
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty dir, got %d entries", len(entries))
	}
	if !m.Exists("abc123") {
		t.Error("Exists should report the acquired dir")
	}
}

func TestAcquireRejectsExistingDir(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.Acquire("dup"); err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	_, err := m.Acquire("dup")
	var se *StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if se.Op != "acquire" {
		t.Errorf("Op: got %s, want acquire", se.Op)
	}
}

func TestAcquireRejectsTraversal(t *testing.T) {
	m := newTestManager(t)
	for _, id := range []string{"", "..", "a/b", `a\b`} {
		if _, err := m.Acquire(id); err == nil {
			t.Errorf("Acquire(%q) should fail", id)
		}
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	m := newTestManager(t)
	path, err := m.Acquire("gone")
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(path, "creds.json"), []byte("{}"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := m.Release("gone"); err != nil {
			t.Fatalf("Release #%d failed: %v", i+1, err)
		}
	}
	if m.Exists("gone") {
		t.Error("directory should be removed")
	}
	// never acquired
	if err := m.Release("never"); err != nil {
		t.Errorf("Release of unknown id should be a no-op, got %v", err)
	}
}

func TestSweepRemovesOnlyStaleUnclaimed(t *testing.T) {
	m := newTestManager(t)
	for _, id := range []string{"old", "live", "fresh"} {
		if _, err := m.Acquire(id); err != nil {
			t.Fatalf("Acquire %s failed: %v", id, err)
		}
	}
	past := time.Now().Add(-2 * time.Hour)
	for _, id := range []string{"old", "live"} {
		if err := os.Chtimes(m.Path(id), past, past); err != nil {
			t.Fatalf("Chtimes failed: %v", err)
		}
	}

	removed, err := m.Sweep(time.Hour, func(id string) bool { return id == "live" })
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed: got %d, want 1", removed)
	}
	if m.Exists("old") {
		t.Error("stale dir should be removed")
	}
	if !m.Exists("live") || !m.Exists("fresh") {
		t.Error("claimed and fresh dirs must survive")
	}
}
