package search

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// SearchType restricts results to files, folders or both.
type SearchType int

const (
	FilesAndFolders SearchType = iota
	FilesOnly
	FoldersOnly
)

func (t SearchType) String() string {
	switch t {
	case FilesOnly:
		return "files"
	case FoldersOnly:
		return "folders"
	default:
		return "all"
	}
}

func ParseSearchType(s string) (SearchType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "both":
		return FilesAndFolders, nil
	case "files", "file":
		return FilesOnly, nil
	case "folders", "folder", "dirs":
		return FoldersOnly, nil
	}
	return FilesAndFolders, fmt.Errorf("unknown search type %q (supported: all, files, folders)", s)
}

var ErrNoRoots = errors.New("no search roots given")

// Request describes one search job.
type Request struct {
	Roots                []string
	Filters              Filters
	IncludeSubfolders    bool
	IncludeHidden        bool
	CaseSensitive        bool
	Type                 SearchType
	ExcludeSystemFolders bool

	// CollapseNested reports a matching folder without descending into it,
	// so none of its descendants appear as separate results.
	CollapseNested bool
}

func (r Request) Validate() error {
	if len(r.Roots) == 0 {
		return ErrNoRoots
	}
	for _, root := range r.Roots {
		if !filepath.IsAbs(root) {
			return fmt.Errorf("search root must be absolute: %q", root)
		}
	}
	return nil
}

func (r Request) matchType(m *Metadata) bool {
	switch r.Type {
	case FilesOnly:
		return !m.IsDir
	case FoldersOnly:
		return m.IsDir
	default:
		return true
	}
}
