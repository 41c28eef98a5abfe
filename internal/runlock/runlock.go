// Package runlock guarantees a single organizer run at a time. The
// collision numbering and library snapshots assume exclusive access to the
// download and library trees for the duration of a run.
package runlock

import (
	"os"
	"path/filepath"

	apperrors "github.com/glefebvre/mediasorter/internal/errors"
	"github.com/gofrs/flock"
)

// Lock is an exclusive advisory file lock
type Lock struct {
	path string
	lock *flock.Flock
}

// Acquire takes the lock at path without blocking. It returns a LOCK_ERROR
// when another process holds it.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, apperrors.LockError(path, err)
	}

	l := &Lock{path: path, lock: flock.New(path)}
	ok, err := l.lock.TryLock()
	if err != nil {
		return nil, apperrors.LockError(path, err)
	}
	if !ok {
		return nil, apperrors.LockError(path, nil)
	}
	return l, nil
}

// Path returns the lock file path
func (l *Lock) Path() string {
	return l.path
}

// Release unlocks the file. The file itself is left in place.
func (l *Lock) Release() error {
	if err := l.lock.Unlock(); err != nil {
		return apperrors.LockError(l.path, err)
	}
	return nil
}
