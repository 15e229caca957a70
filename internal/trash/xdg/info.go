package xdg

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/babarot/sift/internal/fs"
	"github.com/babarot/sift/internal/trash"
)

const (
	trashInfoHeader = "[Trash Info]"
	timeFormat      = "2006-01-02T15:04:05"
)

// TrashInfo represents the contents of a .trashinfo file
type TrashInfo struct {
	// Path is the original path of the file, can be absolute or relative
	Path string

	// DeletionDate is when the file was moved to trash
	DeletionDate time.Time

	// MountRoot is the root of the mount holding the trash. Paths are
	// stored relative to it for external trashes.
	MountRoot string
}

// NewInfo parses a TrashInfo from a reader
func NewInfo(r io.Reader) (*TrashInfo, error) {
	scanner := bufio.NewScanner(r)
	info := &TrashInfo{}
	var headerFound bool

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == trashInfoHeader {
			headerFound = true
			continue
		}
		if !headerFound {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "Path":
			path, err := url.PathUnescape(strings.TrimSpace(value))
			if err != nil {
				return nil, fmt.Errorf("invalid Path encoding: %w", err)
			}
			info.Path = path
		case "DeletionDate":
			date, err := time.ParseInLocation(timeFormat, strings.TrimSpace(value), time.Local)
			if err != nil {
				return nil, fmt.Errorf("invalid DeletionDate format: %w", err)
			}
			info.DeletionDate = date
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading info file: %w", err)
	}

	if !headerFound {
		return nil, trash.NewStorageError("parse", "", fmt.Errorf("missing [Trash Info] header"))
	}
	if info.Path == "" {
		return nil, trash.NewStorageError("parse", "", fmt.Errorf("missing Path field"))
	}
	if info.DeletionDate.IsZero() {
		return nil, trash.NewStorageError("parse", "", fmt.Errorf("missing DeletionDate field"))
	}

	return info, nil
}

// RelativePath returns the path to store: relative to the mount root for
// external trashes, absolute for the home trash.
func (i *TrashInfo) RelativePath() string {
	if i.MountRoot == "" || !filepath.IsAbs(i.Path) {
		return i.Path
	}
	rel, err := filepath.Rel(i.MountRoot, i.Path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return i.Path
	}
	return rel
}

// Save writes the trash info to path. It fails if path already exists,
// which is how a trash name is reserved.
func (i *TrashInfo) Save(path string) error {
	content := new(strings.Builder)
	fmt.Fprintln(content, trashInfoHeader)
	fmt.Fprintf(content, "Path=%s\n", encodeTrashPath(i.RelativePath()))
	fmt.Fprintf(content, "DeletionDate=%s\n", i.DeletionDate.Format(timeFormat))

	f, err := fs.CreateExclusive(path, 0600)
	if err != nil {
		return fmt.Errorf("failed to create info file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(content.String()); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to write info file: %w", err)
	}

	return nil
}

// encodeTrashPath percent-encodes every path segment as the trash
// specification requires, keeping the slashes.
func encodeTrashPath(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

func loadTrashInfo(path string) (*TrashInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open info file: %w", err)
	}
	defer f.Close()
	return NewInfo(f)
}
