package search

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/babarot/sift/internal/pathset"
)

// walker traverses one root. Each root gets its own walker and goroutine;
// all of them feed the job's batch channel.
type walker struct {
	engine *Engine
	req    *Request
	root   string
	out    chan<- []Result
	stats  *counters
	needs  need
	opts   MatchOptions
	logger *slog.Logger

	batch []Result
}

func (w *walker) run(ctx context.Context) {
	if w.req.ExcludeSystemFolders && w.underSystemPath(w.root) {
		w.logger.Debug("root is a system folder, skipped", "root", w.root)
		return
	}
	info, err := os.Stat(w.root)
	if err != nil || !info.IsDir() {
		w.stats.skipped.Add(1)
		w.logger.Debug("root is not a readable directory", "root", w.root, "error", err)
		return
	}
	w.walkDir(ctx, w.root)
	w.flush(ctx)
}

// walkDir lists dir, emits matches and descends into subdirectories.
// It returns false once the job has been cancelled.
func (w *walker) walkDir(ctx context.Context, dir string) bool {
	if ctx.Err() != nil {
		return false
	}
	w.stats.visited.Add(1)

	entries, err := os.ReadDir(dir)
	if err != nil {
		// ReadDir returns what it could read before the error
		w.stats.skipped.Add(1)
		w.logger.Debug("cannot read directory", "dir", dir, "error", err)
	}

	var subdirs []string
	for _, entry := range entries {
		name := entry.Name()
		path := filepath.Join(dir, name)

		if !w.req.IncludeHidden && isDotName(name) {
			continue
		}
		if w.req.ExcludeSystemFolders && w.isSystem(path) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// vanished between listing and stat
			w.stats.skipped.Add(1)
			continue
		}
		m := newMetadata(path, info, w.needs, w.engine.provider)
		if !w.req.IncludeHidden && m.Hidden {
			continue
		}

		matched := w.req.matchType(m) && w.req.Filters.Match(m, w.opts)
		if matched {
			w.stats.matched.Add(1)
			if !w.add(ctx, newResult(m, w.engine.icons)) {
				return false
			}
		}

		if !m.IsDir || !w.req.IncludeSubfolders {
			continue
		}
		if matched && w.req.CollapseNested {
			continue
		}
		if _, skip := w.engine.skipDirs[name]; skip {
			continue
		}
		subdirs = append(subdirs, path)
	}

	for _, sub := range subdirs {
		if !w.walkDir(ctx, sub) {
			return false
		}
	}

	// a finished subtree flushes whatever it found
	return w.flush(ctx)
}

func (w *walker) add(ctx context.Context, r Result) bool {
	w.batch = append(w.batch, r)
	if len(w.batch) >= w.engine.batchSize {
		return w.flush(ctx)
	}
	return true
}

func (w *walker) flush(ctx context.Context) bool {
	if len(w.batch) == 0 {
		return ctx.Err() == nil
	}
	batch := w.batch
	w.batch = nil
	select {
	case w.out <- batch:
		return true
	case <-ctx.Done():
		return false
	}
}

// isSystem reports whether path falls under the reserved denylist, either
// by its first component below the search root or by absolute location.
func (w *walker) isSystem(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err == nil {
		first, _, _ := strings.Cut(rel, string(filepath.Separator))
		for _, name := range w.engine.system {
			if !filepath.IsAbs(name) && name == first {
				return true
			}
		}
	}
	return w.underSystemPath(path)
}

func (w *walker) underSystemPath(path string) bool {
	for _, p := range w.engine.system {
		if filepath.IsAbs(p) && (p == path || pathset.IsAncestor(p, path)) {
			return true
		}
	}
	return false
}
