// Package dir implements a trash that is a single flat directory, such as
// ~/.Trash on macOS.
package dir

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/babarot/sift/internal/fs"
	"github.com/babarot/sift/internal/trash"
	"github.com/rs/xid"
)

// maxSuffix bounds the "name N" probing before falling back to a random name
const maxSuffix = 10000

// Storage moves files into Root
type Storage struct {
	root string
}

// New returns a Storage rooted at root, creating it if needed.
func New(root string) (*Storage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0700); err != nil {
		return nil, trash.NewStorageError("init", abs, err)
	}
	return &Storage{root: abs}, nil
}

func (s *Storage) Info() *trash.StorageInfo {
	return &trash.StorageInfo{
		Location:  trash.LocationHome,
		Root:      s.root,
		Available: fs.Exists(s.root),
		Type:      trash.StorageTypeDir,
	}
}

func (s *Storage) Owns(trashPath string) bool {
	return filepath.Dir(filepath.Clean(trashPath)) == s.root
}

// Trash moves path into the root as "name", or "name 2", "name 3" and so
// on when the name is taken.
func (s *Storage) Trash(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", trash.NewStorageError("trash", path, err)
	}
	if abs == s.root || s.Owns(abs) {
		return "", trash.NewStorageError("trash", abs, fmt.Errorf("%w: already in the trash", trash.ErrInvalidStorage))
	}
	if !fs.Exists(abs) {
		return "", trash.NewStorageError("trash", abs, trash.ErrNotFound)
	}

	for n := 1; n <= maxSuffix+1; n++ {
		dst := filepath.Join(s.root, candidate(filepath.Base(abs), n))
		err := fs.Move(abs, dst, true)
		if err == nil {
			return dst, nil
		}
		if errors.Is(err, fs.ErrSourceNotRemoved) {
			return dst, trash.NewStorageError("trash", abs, err)
		}
		if !errors.Is(err, fs.ErrDestinationExists) {
			return "", trash.NewStorageError("trash", abs, err)
		}
	}
	return "", trash.NewStorageError("trash", abs, trash.ErrFileExists)
}

func (s *Storage) Restore(trashPath, originalPath string) error {
	if !s.Owns(trashPath) {
		return trash.NewStorageError("restore", trashPath, trash.ErrInvalidStorage)
	}
	if err := fs.Move(trashPath, originalPath, true); err != nil {
		if errors.Is(err, fs.ErrSourceNotRemoved) {
			slog.Warn("restored, but leftovers remain in the trash", "path", trashPath, "error", err)
			return nil
		}
		return trash.NewStorageError("restore", originalPath, err)
	}
	return nil
}

func (s *Storage) Revert(trashPath, originalPath string) error {
	if !s.Owns(trashPath) {
		return trash.NewStorageError("revert", trashPath, trash.ErrInvalidStorage)
	}
	if err := fs.Move(originalPath, trashPath, true); err != nil {
		return trash.NewStorageError("revert", originalPath, err)
	}
	return nil
}

// candidate returns the n-th name for base: "a.txt", "a 2.txt", "a 3.txt".
// Past maxSuffix a random id is used instead of a number.
func candidate(base string, n int) string {
	if n == 1 {
		return base
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		// dotfiles like ".env" have no stem
		stem, ext = base, ""
	}
	if n > maxSuffix {
		return fmt.Sprintf("%s %s%s", stem, xid.New(), ext)
	}
	return fmt.Sprintf("%s %d%s", stem, n, ext)
}
