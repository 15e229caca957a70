package fs

import (
	"path/filepath"
	"strings"
)

// IsUnsafePath checks if the given path is unsafe to remove
func IsUnsafePath(path string) bool {
	// Check the raw input first so "." and ".." survive normalization
	originalBase := filepath.Base(path)
	if originalBase == "." || originalBase == ".." {
		return true
	}

	if filepath.Clean(path) == "/" {
		return true
	}

	if strings.HasPrefix(path, "//") {
		return true
	}

	return false
}
