// Package privileged moves files the current user cannot move itself by
// running mv through an elevated runner.
package privileged

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"al.essio.dev/pkg/shellescape"
	"github.com/babarot/sift/internal/fs"
	"github.com/babarot/sift/internal/trash"
)

// Runner runs a shell command with elevated rights
type Runner interface {
	RunPrivileged(ctx context.Context, command string) (ok bool, output string)
}

const defaultTimeout = 2 * time.Minute

type Option func(*Storage)

// WithTimeout bounds every command
func WithTimeout(d time.Duration) Option {
	return func(s *Storage) { s.timeout = d }
}

// Storage moves files into root through a Runner
type Storage struct {
	root    string
	runner  Runner
	timeout time.Duration

	mu       sync.Mutex
	reserved map[string]struct{}
}

func New(root string, runner Runner, opts ...Option) *Storage {
	s := &Storage{
		root:     filepath.Clean(root),
		runner:   runner,
		timeout:  defaultTimeout,
		reserved: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Storage) Info() *trash.StorageInfo {
	return &trash.StorageInfo{
		Location:  trash.LocationHome,
		Root:      s.root,
		Available: s.runner != nil,
		Type:      trash.StorageTypePrivileged,
	}
}

func (s *Storage) Owns(trashPath string) bool {
	return filepath.Dir(filepath.Clean(trashPath)) == s.root
}

func (s *Storage) Trash(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", trash.NewStorageError("trash", path, err)
	}
	dst := filepath.Join(s.root, s.reserve(filepath.Base(abs)))
	if err := s.mv(abs, dst); err != nil {
		s.release(filepath.Base(dst))
		return "", trash.NewStorageError("trash", abs, err)
	}
	return dst, nil
}

func (s *Storage) Restore(trashPath, originalPath string) error {
	if !s.Owns(trashPath) {
		return trash.NewStorageError("restore", trashPath, trash.ErrInvalidStorage)
	}
	if fs.Exists(originalPath) {
		return trash.NewStorageError("restore", originalPath, trash.ErrFileExists)
	}
	if err := s.mv(trashPath, originalPath); err != nil {
		return trash.NewStorageError("restore", originalPath, err)
	}
	s.release(filepath.Base(trashPath))
	return nil
}

func (s *Storage) Revert(trashPath, originalPath string) error {
	if fs.Exists(trashPath) {
		return trash.NewStorageError("revert", trashPath, trash.ErrFileExists)
	}
	if err := s.mv(originalPath, trashPath); err != nil {
		return trash.NewStorageError("revert", originalPath, err)
	}
	return nil
}

func (s *Storage) mv(src, dst string) error {
	if s.runner == nil {
		return trash.ErrStorageNotReady
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	cmd := command(src, dst)
	ok, output := s.runner.RunPrivileged(ctx, cmd)
	if !ok {
		return fmt.Errorf("%w: %s", trash.ErrPermissionDenied, strings.TrimSpace(output))
	}
	return nil
}

// command builds a mv that never overwrites dst and creates its parent
func command(src, dst string) string {
	return fmt.Sprintf("mkdir -p -- %s && mv -n -- %s %s && test ! -e %s",
		shellescape.Quote(filepath.Dir(dst)),
		shellescape.Quote(src),
		shellescape.Quote(dst),
		shellescape.Quote(src),
	)
}

// reserve picks a name free both on disk and among names handed out by
// this storage: "a.txt", "a2.txt", "a3.txt" and so on.
func (s *Storage) reserve(base string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		stem, ext = base, ""
	}
	name := base
	for n := 2; ; n++ {
		if _, taken := s.reserved[name]; !taken && !fs.Exists(filepath.Join(s.root, name)) {
			break
		}
		name = fmt.Sprintf("%s%d%s", stem, n, ext)
	}
	s.reserved[name] = struct{}{}
	return name
}

func (s *Storage) release(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reserved, name)
}
