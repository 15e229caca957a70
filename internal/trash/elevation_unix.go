//go:build linux || darwin

package trash

import (
	"errors"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// needsElevation reports whether the directory holding path (or, when it
// does not exist yet, its nearest existing ancestor) is not writable by
// the current user.
func needsElevation(path string) bool {
	dir := filepath.Dir(path)
	for {
		err := unix.Access(dir, unix.W_OK)
		if err == nil {
			return false
		}
		if !errors.Is(err, unix.ENOENT) {
			return true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return true
		}
		dir = parent
	}
}
