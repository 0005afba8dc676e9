// Package dirlock gives a data directory an exclusive owner. Opening the
// same directory from a second process while the first is still running
// returns a clear error instead of letting both processes silently corrupt
// each other's segments.
package dirlock

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/ignitekv/ignite/pkg/errors"
)

// FileName is the lock file's fixed name within a data directory.
const FileName = ".ignite.lock"

// Lock represents an acquired advisory lock over a data directory. It must
// be released with Release once the store that acquired it closes.
type Lock struct {
	file *os.File
	path string
}

// Acquire takes an exclusive, non-blocking advisory lock on dir's lock
// file, creating it if necessary. It returns errors.ErrDirectoryLocked
// (check with errors.IsDirectoryLocked) if another process already holds
// it.
func Acquire(dir string) (*Lock, error) {
	path := filepath.Join(dir, FileName)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to open directory lock file").
			WithPath(path)
	}

	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		file.Close()
		if err == unix.EWOULDBLOCK {
			return nil, errors.NewDirectoryLockedError(dir, err)
		}
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to lock data directory").
			WithPath(path)
	}

	return &Lock{file: file, path: path}, nil
}

// Release unlocks and closes the lock file. The lock file itself is left
// on disk so the next Acquire can reuse it.
func (l *Lock) Release() error {
	if err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN); err != nil {
		l.file.Close()
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to unlock data directory").
			WithPath(l.path)
	}
	return l.file.Close()
}
