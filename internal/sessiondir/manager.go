package sessiondir

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// StorageError reports a session directory that could not be created or removed.
type StorageError struct {
	Op    string // acquire, release, sweep
	Path  string
	Cause error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("session storage %s %s: %v", e.Op, e.Path, e.Cause)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// Manager hands out one directory per session under a shared root.
type Manager struct {
	root string
}

// New prepares the root directory and returns a manager for it.
func New(root string) (*Manager, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &StorageError{Op: "init", Path: root, Cause: err}
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return nil, &StorageError{Op: "init", Path: abs, Cause: errors.Wrap(err, "create session root")}
	}
	return &Manager{root: abs}, nil
}

// Root returns the absolute directory all sessions live under.
func (m *Manager) Root() string {
	return m.root
}

// Path returns the location of the session directory, whether or not it exists.
func (m *Manager) Path(id string) string {
	return filepath.Join(m.root, id)
}

// Acquire creates a fresh, empty directory for id. An existing directory is
// an error rather than something to reuse.
func (m *Manager) Acquire(id string) (string, error) {
	if err := checkID(id); err != nil {
		return "", &StorageError{Op: "acquire", Path: id, Cause: err}
	}
	path := m.Path(id)
	if err := os.Mkdir(path, 0o700); err != nil {
		return "", &StorageError{Op: "acquire", Path: path, Cause: errors.Wrap(err, "create session dir")}
	}
	zap.L().Debug("sessiondir: acquired", zap.String("session", id), zap.String("path", path))
	return path, nil
}

// Release removes the session directory recursively. Removing a directory
// that is already gone, or was never created, is not an error.
func (m *Manager) Release(id string) error {
	if err := checkID(id); err != nil {
		return &StorageError{Op: "release", Path: id, Cause: err}
	}
	path := m.Path(id)
	if err := os.RemoveAll(path); err != nil {
		zap.L().Warn("sessiondir: release failed", zap.String("session", id), zap.Error(err))
		return &StorageError{Op: "release", Path: path, Cause: errors.Wrap(err, "remove session dir")}
	}
	zap.L().Debug("sessiondir: released", zap.String("session", id))
	return nil
}

// Exists reports whether the session directory is present.
func (m *Manager) Exists(id string) bool {
	info, err := os.Stat(m.Path(id))
	return err == nil && info.IsDir()
}

// Sweep removes session directories older than maxAge that keep does not
// claim. It is meant for leftovers of a crashed process; live sessions are
// protected by keep.
func (m *Manager) Sweep(maxAge time.Duration, keep func(id string) bool) (int, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		return 0, &StorageError{Op: "sweep", Path: m.root, Cause: errors.Wrap(err, "list session root")}
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	var failed []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id := entry.Name()
		if keep != nil && keep(id) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := m.Release(id); err != nil {
			failed = append(failed, id)
			continue
		}
		removed++
	}
	if len(failed) > 0 {
		return removed, &StorageError{Op: "sweep", Path: m.root,
			Cause: errors.Errorf("could not remove %s", strings.Join(failed, ", "))}
	}
	return removed, nil
}

func checkID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return errors.Errorf("invalid session id %q", id)
	}
	return nil
}
