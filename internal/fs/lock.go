package fs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileLock serialises access to a state file across processes. The lock
// lives next to the file as "<path>.lock".
type FileLock struct {
	flock *flock.Flock
	path  string
}

func NewFileLock(path string) *FileLock {
	lockPath := path + ".lock"
	return &FileLock{
		flock: flock.New(lockPath),
		path:  lockPath,
	}
}

// Lock acquires an exclusive lock, blocking until it is available
func (fl *FileLock) Lock() error {
	if err := os.MkdirAll(filepath.Dir(fl.path), 0700); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}
	if err := fl.flock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", fl.path, err)
	}
	return nil
}

// RLock acquires a shared lock
func (fl *FileLock) RLock() error {
	if err := os.MkdirAll(filepath.Dir(fl.path), 0700); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}
	if err := fl.flock.RLock(); err != nil {
		return fmt.Errorf("failed to acquire shared lock on %s: %w", fl.path, err)
	}
	return nil
}

func (fl *FileLock) Unlock() error {
	if err := fl.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", fl.path, err)
	}
	return nil
}

// ReadWithBackup opens path, falling back to the backup left by
// CreateWithBackup when the main file is missing. It returns
// os.ErrNotExist when neither exists.
func ReadWithBackup(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil || !os.IsNotExist(err) {
		return data, err
	}
	return os.ReadFile(BackupPath(path))
}
