package trash

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/babarot/sift/internal/fs"
	"github.com/samber/lo"
)

type Strategy string

const (
	StrategyXDG       Strategy = "xdg"
	StrategyDir       Strategy = "dir"
	StrategyComposite Strategy = "composite"
)

var ErrNoStorage = errors.New("no storage backend configured")

// Manager routes trash operations to a list of storages. It implements
// Gateway and Reverter so it can be handed to the delete engine as is.
type Manager struct {
	storages []Storage
	elevated Storage
	strategy Strategy

	// needsElevation reports whether a path cannot be moved without
	// elevated rights. Replaced in tests.
	needsElevation func(path string) bool
}

type ManagerOption func(*Manager)

// WithStorage appends a storage. Storages are tried in the order given.
func WithStorage(s Storage) ManagerOption {
	return func(m *Manager) {
		if s != nil {
			m.storages = append(m.storages, s)
		}
	}
}

// WithElevated sets the storage used when a path needs elevated rights.
func WithElevated(s Storage) ManagerOption {
	return func(m *Manager) {
		m.elevated = s
	}
}

func NewManager(opts ...ManagerOption) (*Manager, error) {
	m := &Manager{needsElevation: needsElevation}
	for _, opt := range opts {
		opt(m)
	}
	if len(m.storages) == 0 {
		return nil, ErrNoStorage
	}

	sts := lo.Map(m.storages, func(s Storage, _ int) StorageType {
		return s.Info().Type
	})
	switch len(slices.Compact(sts)) {
	case 1:
		switch sts[0] {
		case StorageTypeXDG:
			m.strategy = StrategyXDG
		default:
			m.strategy = StrategyDir
		}
	default:
		m.strategy = StrategyComposite
	}

	slog.Debug("trash manager ready", "strategy", m.strategy, "elevated", m.elevated != nil)
	return m, nil
}

func (m *Manager) Strategy() Strategy { return m.strategy }

// Trash moves path to the first storage that accepts it.
func (m *Manager) Trash(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", NewStorageError("trash", path, err)
	}
	if _, err := os.Lstat(abs); err != nil {
		return "", NewStorageError("trash", abs, err)
	}

	if m.elevated != nil && m.needsElevation(abs) {
		slog.Debug("path needs elevated rights", "path", abs)
		return m.elevated.Trash(abs)
	}

	var lastErr error
	for _, s := range m.storages {
		trashPath, err := s.Trash(abs)
		if err == nil {
			slog.Debug("moved to trash", "path", abs, "trash_path", trashPath, "storage", s.Info().Type)
			return trashPath, nil
		}
		if IsSourceNotRemoved(err) {
			slog.Warn("copied to trash with leftovers at the source", "path", abs, "trash_path", trashPath, "error", err)
			return trashPath, err
		}
		lastErr = err
		slog.Debug("storage failed to trash file", "storage", s.Info().Root, "error", err)
		if IsPermissionDenied(err) && m.elevated != nil {
			return m.elevated.Trash(abs)
		}
	}

	return "", fmt.Errorf("all storage backends failed to trash %s: %w", abs, lastErr)
}

// Restore moves trashPath back to originalPath through the storage that
// owns trashPath. The destination must not exist.
func (m *Manager) Restore(trashPath, originalPath string) error {
	if fs.Exists(originalPath) {
		return NewStorageError("restore", originalPath, ErrFileExists)
	}
	s, err := m.owner(trashPath)
	if err != nil {
		return err
	}
	if m.elevated != nil && s != m.elevated && m.needsElevation(originalPath) {
		return m.elevated.Restore(trashPath, originalPath)
	}
	err = s.Restore(trashPath, originalPath)
	if IsPermissionDenied(err) && m.elevated != nil && s != m.elevated {
		return m.elevated.Restore(trashPath, originalPath)
	}
	return err
}

// Revert puts a just-restored originalPath back at trashPath.
func (m *Manager) Revert(trashPath, originalPath string) error {
	s, err := m.owner(trashPath)
	if err != nil {
		return err
	}
	if r, ok := s.(Reverter); ok {
		return r.Revert(trashPath, originalPath)
	}
	if err := fs.Move(originalPath, trashPath, true); err != nil {
		return NewStorageError("revert", originalPath, err)
	}
	return nil
}

func (m *Manager) owner(trashPath string) (Storage, error) {
	for _, s := range m.storages {
		if s.Owns(trashPath) {
			return s, nil
		}
	}
	if m.elevated != nil && m.elevated.Owns(trashPath) {
		return m.elevated, nil
	}
	return nil, NewStorageError("lookup", trashPath, fmt.Errorf("%w: path does not belong to any known storage", ErrInvalidStorage))
}

// Storages returns information about all available storage backends
func (m *Manager) Storages() []*StorageInfo {
	infos := lo.Map(m.storages, func(s Storage, _ int) *StorageInfo { return s.Info() })
	if m.elevated != nil {
		infos = append(infos, m.elevated.Info())
	}
	return infos
}
