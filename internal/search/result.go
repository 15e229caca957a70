package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/babarot/sift/internal/fs"
)

// Result is a matched entry. Its identity is Path.
type Result struct {
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Size      int64     `json:"size"`
	SizeKnown bool      `json:"size_known"`
	ModTime   time.Time `json:"modified"`
	IsDir     bool      `json:"is_dir"`
	Icon      any       `json:"-"`
}

func newResult(m *Metadata, icons IconProvider) Result {
	r := Result{
		Path:      m.Path,
		Name:      m.Name,
		Type:      TypeLabel(m.Name, m.IsDir),
		Size:      m.Size,
		SizeKnown: !m.IsDir,
		ModTime:   m.ModTime,
		IsDir:     m.IsDir,
	}
	if icons != nil {
		r.Icon = icons.Icon(m)
	}
	return r
}

// TypeLabel is "Folder" for directories, the upper-cased extension for
// files that have one and "File" otherwise.
func TypeLabel(name string, isDir bool) string {
	if isDir {
		return "Folder"
	}
	if ext := extension(name); ext != "" {
		return strings.ToUpper(ext)
	}
	return "File"
}

// LoadSize computes the recursive size of a directory result.
func (r *Result) LoadSize(ctx context.Context) error {
	if r.SizeKnown {
		return nil
	}
	size, err := fs.DirSize(ctx, r.Path)
	if err != nil {
		return err
	}
	r.Size = size
	r.SizeKnown = true
	return nil
}

// Collection accumulates streamed batches keyed by path. Adding a result
// for a path already present replaces its metadata but keeps its position.
type Collection struct {
	mu     sync.RWMutex
	order  []string
	byPath map[string]Result
}

func NewCollection() *Collection {
	return &Collection{byPath: make(map[string]Result)}
}

func (c *Collection) Add(batch []Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range batch {
		if _, ok := c.byPath[r.Path]; !ok {
			c.order = append(c.order, r.Path)
		}
		c.byPath[r.Path] = r
	}
}

func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

func (c *Collection) Results() []Result {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Result, 0, len(c.order))
	for _, p := range c.order {
		out = append(out, c.byPath[p])
	}
	return out
}

func (c *Collection) Paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.order...)
}
