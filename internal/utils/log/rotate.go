package log

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/babarot/sift/internal/config"
	"github.com/docker/go-units"
)

const rotatedStamp = "20060102-150405.000000000"

// RotateWriter appends to a log file and moves it aside to
// "<path>.<timestamp>" before a write would take it past the size limit.
// Only the newest keep rotated files survive; keep <= 0 keeps every one.
type RotateWriter struct {
	path  string
	limit int64
	keep  int

	mu      sync.Mutex
	f       *os.File
	written int64
}

func NewRotateWriter(path string, cfg config.RotationConfig) (*RotateWriter, error) {
	limit, err := units.FromHumanSize(cfg.MaxSize)
	if err != nil {
		return nil, fmt.Errorf("invalid max size format: %w", err)
	}
	w := &RotateWriter{path: path, limit: limit, keep: cfg.MaxFiles}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *RotateWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	// a single record larger than the limit still goes to a fresh file
	if w.written > 0 && w.written+int64(len(p)) > w.limit {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := w.f.Write(p)
	w.written += int64(n)
	return n, err
}

func (w *RotateWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}

func (w *RotateWriter) open() error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f, w.written = f, info.Size()
	return nil
}

func (w *RotateWriter) rotate() error {
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	aside := w.path + "." + time.Now().Format(rotatedStamp)
	if err := os.Rename(w.path, aside); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := w.prune(); err != nil {
		return err
	}
	return w.open()
}

// prune drops the oldest rotated files beyond keep. The timestamp suffix
// sorts chronologically.
func (w *RotateWriter) prune() error {
	if w.keep <= 0 {
		return nil
	}
	entries, err := os.ReadDir(filepath.Dir(w.path))
	if err != nil {
		return err
	}
	prefix := filepath.Base(w.path) + "."
	var rotated []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix) {
			rotated = append(rotated, filepath.Join(filepath.Dir(w.path), e.Name()))
		}
	}
	if len(rotated) <= w.keep {
		return nil
	}
	slices.Sort(rotated)
	for _, p := range rotated[:len(rotated)-w.keep] {
		if err := os.Remove(p); err != nil {
			return err
		}
	}
	return nil
}
