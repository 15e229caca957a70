// Package pathset reduces collections of filesystem paths to their
// top-most members.
package pathset

import (
	"path/filepath"
	"slices"
	"strings"
)

const sep = string(filepath.Separator)

// Reduce returns the minimal subset of paths such that no returned path is
// an ancestor of another. The input order does not matter; the result is
// cleaned, de-duplicated and sorted.
func Reduce(paths []string) []string {
	if len(paths) == 0 {
		return []string{}
	}

	cleaned := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		cleaned = append(cleaned, filepath.Clean(p))
	}
	slices.Sort(cleaned)
	cleaned = slices.Compact(cleaned)

	// Descendants sort after their ancestor but not always adjacent to it:
	// "/a" < "/a-b" < "/a/c".
	reduced := make([]string, 0, len(cleaned))
	for _, p := range cleaned {
		if Contains(reduced, p) {
			continue
		}
		reduced = append(reduced, p)
	}
	return reduced
}

// IsAncestor reports whether parent is a strict ancestor of child.
// Both paths are compared in cleaned form; "/a" is not an ancestor of "/ab".
func IsAncestor(parent, child string) bool {
	parent = filepath.Clean(parent)
	child = filepath.Clean(child)
	if parent == child {
		return false
	}
	if strings.HasSuffix(parent, sep) {
		return strings.HasPrefix(child, parent)
	}
	return strings.HasPrefix(child, parent+sep)
}

// Contains reports whether path equals or descends from any member of set.
func Contains(set []string, path string) bool {
	path = filepath.Clean(path)
	for _, p := range set {
		if p == path || IsAncestor(p, path) {
			return true
		}
	}
	return false
}
