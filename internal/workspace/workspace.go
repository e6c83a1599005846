// Package workspace manages the private working copies of uploaded
// highlights files.
//
// Each Workspace is a temporary directory holding one copy of the upload
// and a lock file. The lock is held for the lifetime of the Workspace so
// Sweep can tell live working copies from ones left behind by a crash.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const (
	dirPattern = "erratas-*"
	dirPrefix  = "erratas-"
	lockName   = ".lock"
)

// ErrClosed is returned when a closed Workspace is read.
var ErrClosed = errors.New("workspace closed")

type Workspace struct {
	dir  string
	path string
	lock *flock.Flock

	mu     sync.Mutex
	closed bool
}

// Create copies data into a new working file called name inside a fresh
// temporary directory under root.
func Create(root, name string, data []byte) (*Workspace, error) {
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace root: %w", err)
	}

	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) || name == "" || name == lockName {
		return nil, fmt.Errorf("invalid working file name %q", name)
	}

	dir, err := os.MkdirTemp(root, dirPattern)
	if err != nil {
		return nil, fmt.Errorf("create workspace dir: %w", err)
	}

	lock := flock.New(filepath.Join(dir, lockName))
	ok, err := lock.TryLock()
	if err != nil || !ok {
		_ = os.RemoveAll(dir)
		if err == nil {
			err = errors.New("lock already held")
		}
		return nil, fmt.Errorf("lock workspace: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		_ = lock.Unlock()
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("write working copy: %w", err)
	}

	return &Workspace{dir: dir, path: path, lock: lock}, nil
}

// Path is the working copy file.
func (w *Workspace) Path() string {
	return w.path
}

func (w *Workspace) Dir() string {
	return w.dir
}

// Bytes reads the working copy in full.
func (w *Workspace) Bytes() ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrClosed
	}
	data, err := os.ReadFile(w.path)
	if err != nil {
		return nil, fmt.Errorf("read working copy: %w", err)
	}
	return data, nil
}

// Close unlocks and removes the workspace directory. It is safe to call
// more than once.
func (w *Workspace) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	unlockErr := w.lock.Unlock()
	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("remove workspace: %w", err)
	}
	if unlockErr != nil {
		return fmt.Errorf("unlock workspace: %w", unlockErr)
	}
	return nil
}

// Sweep removes workspace directories under root that are older than
// olderThan and whose lock is not held. It returns how many were removed.
func Sweep(root string, olderThan time.Duration) (int, error) {
	if root == "" {
		root = os.TempDir()
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read workspace root: %w", err)
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	var errs []error

	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), dirPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		dir := filepath.Join(root, entry.Name())
		lock := flock.New(filepath.Join(dir, lockName))
		ok, err := lock.TryLock()
		if err != nil || !ok {
			continue
		}

		if err := os.RemoveAll(dir); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", dir, err))
		} else {
			removed++
		}
		_ = lock.Unlock()
	}

	return removed, errors.Join(errs...)
}
