package factory

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/babarot/sift/internal/config"
	"github.com/babarot/sift/internal/shell"
	"github.com/babarot/sift/internal/trash"
	"github.com/babarot/sift/internal/trash/dir"
	"github.com/babarot/sift/internal/trash/privileged"
	"github.com/babarot/sift/internal/trash/xdg"
)

// NewManager builds a trash manager from the trash section of the config
func NewManager(cfg config.TrashConfig) (*trash.Manager, error) {
	var opts []trash.ManagerOption

	switch cfg.Strategy {
	case "xdg":
		s, err := newXDGStorage()
		if err != nil {
			return nil, err
		}
		opts = append(opts, trash.WithStorage(s))
	case "dir":
		s, err := newDirStorage(cfg.Dir)
		if err != nil {
			return nil, err
		}
		opts = append(opts, trash.WithStorage(s))
	case "auto", "":
		storages, err := autoConfigure(cfg.Dir)
		if err != nil {
			return nil, err
		}
		for _, s := range storages {
			opts = append(opts, trash.WithStorage(s))
		}
	default:
		return nil, fmt.Errorf("unknown trash strategy: %q", cfg.Strategy)
	}

	if cfg.Elevated.Enabled {
		s, err := newPrivilegedStorage(cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, trash.WithElevated(s))
	}

	return trash.NewManager(opts...)
}

// autoConfigure picks storages based on the platform and what already
// exists on disk. An explicit dir is always used as a fallback.
func autoConfigure(dirPath string) ([]trash.Storage, error) {
	var storages []trash.Storage

	if runtime.GOOS == "darwin" {
		s, err := newDirStorage(dirPath)
		if err != nil {
			return nil, err
		}
		return append(storages, s), nil
	}

	x, err := newXDGStorage()
	if err != nil {
		slog.Warn("xdg trash is not available, falling back to a plain directory", "error", err)
	} else {
		storages = append(storages, x)
	}

	if dirPath != "" || len(storages) == 0 {
		d, err := newDirStorage(dirPath)
		if err != nil {
			return nil, err
		}
		storages = append(storages, d)
	}
	return storages, nil
}

func newXDGStorage() (*xdg.Storage, error) {
	s, err := xdg.New(xdg.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to create XDG storage: %w", err)
	}
	return s, nil
}

func newDirStorage(dirPath string) (*dir.Storage, error) {
	root, err := trashDir(dirPath)
	if err != nil {
		return nil, err
	}
	s, err := dir.New(root)
	if err != nil {
		return nil, fmt.Errorf("failed to create trash directory storage: %w", err)
	}
	return s, nil
}

func newPrivilegedStorage(cfg config.TrashConfig) (*privileged.Storage, error) {
	root, err := trashDir(cfg.Dir)
	if err != nil {
		return nil, err
	}
	runner := shell.Elevated{Prefix: cfg.Elevated.Command}
	return privileged.New(root, runner), nil
}

// trashDir resolves the configured trash directory, defaulting to
// ~/.Trash on macOS and ~/.local/share/sift/trash elsewhere
func trashDir(configured string) (string, error) {
	if configured != "" {
		return config.ExpandPath(configured)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, ".Trash"), nil
	}
	return filepath.Join(home, ".local", "share", "sift", "trash"), nil
}
