package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	cp "github.com/otiai10/copy"
)

// swapped in tests to simulate cross-device moves
var (
	rename    = os.Rename
	removeAll = os.RemoveAll
)

// CreateExclusive creates a new file with O_EXCL flag to ensure atomic creation.
// Returns error if the file already exists.
func CreateExclusive(path string, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
}

// Exists reports whether something is present at path. Dangling symlinks count.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// Move moves a file or directory from src to dst without ever replacing dst.
// If rename(2) fails because src and dst are on different devices and
// fallbackCopy is true, it falls back to copy and delete. When the delete
// fails the copy at dst is kept and the error matches ErrSourceNotRemoved.
func Move(src, dst string, fallbackCopy bool) error {
	if _, err := os.Lstat(src); err != nil {
		if os.IsNotExist(err) {
			return NewMoveError("stat", src, dst, ErrSourceNotFound)
		}
		return NewMoveError("stat", src, dst, err)
	}
	if Exists(dst) {
		return NewMoveError("check", src, dst, ErrDestinationExists)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return NewMoveError("mkdir", src, dst, err)
	}

	err := rename(src, dst)
	if err == nil {
		return nil
	}
	if !isCrossDevice(err) {
		return NewMoveError("rename", src, dst, err)
	}
	if !fallbackCopy {
		return NewMoveError("rename", src, dst, ErrCrossDevice)
	}

	opts := cp.Options{
		OnSymlink:     func(string) cp.SymlinkAction { return cp.Shallow },
		PreserveTimes: true,
		Sync:          true,
	}
	if err := cp.Copy(src, dst, opts); err != nil {
		_ = os.RemoveAll(dst)
		return NewMoveError("copy", src, dst, err)
	}

	// RemoveAll may have deleted part of src already, so dst stays
	if err := removeAll(src); err != nil {
		return NewMoveError("remove", src, dst, fmt.Errorf("%w: %w", ErrSourceNotRemoved, err))
	}

	return nil
}

func isCrossDevice(err error) bool {
	var le *os.LinkError
	if errors.As(err, &le) {
		return errors.Is(le.Err, syscall.EXDEV)
	}
	return errors.Is(err, syscall.EXDEV)
}

// CreateWithBackup creates a new file while preserving the old one as a backup.
// The backup will have the same name as the original with ".backup" appended.
// Returns:
// - temporary file for writing
// - cleanup function to remove temporary file
// - commit function to save changes and create backup
// - error if any
func CreateWithBackup(path string) (*os.File, func(), func() error, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create temporary file: %w", err)
	}

	cleanup := func() {
		name := temp.Name()
		_ = temp.Close()
		_ = os.Remove(name)
	}

	commit := func() error {
		name := temp.Name()
		if err := temp.Sync(); err != nil {
			return fmt.Errorf("failed to sync temporary file: %w", err)
		}
		if err := temp.Close(); err != nil {
			return fmt.Errorf("failed to close temporary file: %w", err)
		}

		if _, err := os.Stat(path); err == nil {
			if err := os.Rename(path, BackupPath(path)); err != nil {
				return fmt.Errorf("failed to create backup: %w", err)
			}
		}

		if err := os.Rename(name, path); err != nil {
			return fmt.Errorf("failed to move temporary file: %w", err)
		}

		return nil
	}

	return temp, cleanup, commit, nil
}

// BackupPath returns where CreateWithBackup keeps the previous contents of path.
func BackupPath(path string) string {
	return path + ".backup"
}
