package search

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Metadata is everything a predicate may inspect about one entry.
// Tags, Comment, MIME and CreatedAt are only populated when an active
// predicate needs them.
type Metadata struct {
	Path         string
	Name         string
	Ext          string
	Size         int64
	ModTime      time.Time
	CreatedAt    time.Time
	HasCreatedAt bool
	IsDir        bool
	IsSymlink    bool
	IsPackage    bool
	Hidden       bool
	Tags         []string
	Comment      string
	MIME         string

	// set when MIME is wanted but not sniffed yet
	mimePending bool
}

// MetadataProvider supplies user-assigned tags and comments. Missing data
// is reported as empty, never as an error.
type MetadataProvider interface {
	Tags(path string) []string
	Comment(path string) string
}

// IconProvider returns an opaque display handle for an entry.
type IconProvider interface {
	Icon(m *Metadata) any
}

// Stat collects the metadata for path with every optional field populated.
func Stat(path string, provider MetadataProvider) (*Metadata, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, err
	}
	m := newMetadata(path, info, needTags|needComment|needMIME|needCreated, provider)
	m.mimeType()
	return m, nil
}

func newMetadata(path string, info fs.FileInfo, n need, provider MetadataProvider) *Metadata {
	name := filepath.Base(path)
	m := &Metadata{
		Path:      path,
		Name:      name,
		Ext:       extension(name),
		Size:      info.Size(),
		ModTime:   info.ModTime(),
		IsDir:     info.IsDir(),
		IsSymlink: info.Mode()&fs.ModeSymlink != 0,
		Hidden:    isDotName(name) || hiddenFlag(info),
	}
	if m.IsDir {
		m.Size = 0
		m.IsPackage = isPackageName(name)
	}
	if n&needCreated != 0 {
		m.CreatedAt, m.HasCreatedAt = birthTime(path, info)
	}
	if provider != nil {
		if n&needTags != 0 {
			m.Tags = provider.Tags(path)
		}
		if n&needComment != 0 {
			m.Comment = provider.Comment(path)
		}
	}
	if n&needMIME != 0 && info.Mode().IsRegular() {
		m.mimePending = true
	}
	return m
}

// mimeType sniffs the content on first use, so entries rejected by the
// cheaper predicates are never read.
func (m *Metadata) mimeType() string {
	if m.mimePending {
		m.MIME = detectMIME(m.Path)
		m.mimePending = false
	}
	return m.MIME
}

func isDotName(name string) bool {
	return len(name) > 1 && name[0] == '.'
}
