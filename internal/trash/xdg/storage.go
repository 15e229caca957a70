package xdg

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/babarot/sift/internal/fs"
	"github.com/babarot/sift/internal/pathset"
	"github.com/babarot/sift/internal/trash"
)

const infoSuffix = ".trashinfo"

// Options configures the XDG storage
type Options struct {
	// HomeTrash overrides $XDG_DATA_HOME/Trash
	HomeTrash string

	// ForceHomeTrash uses the home trash even for files on other devices
	ForceHomeTrash bool

	// SkipMounts disables the $topdir/.Trash-$uid lookup
	SkipMounts bool

	// Now is used for DeletionDate. Defaults to time.Now.
	Now func() time.Time
}

// Storage implements trash.Storage for the freedesktop.org trash specification
type Storage struct {
	// Home trash location (~/.local/share/Trash)
	homeTrash *trashLocation

	// External trash locations ($topdir/.Trash-$uid)
	externalTrashes []*trashLocation

	opts Options
}

// trashLocation represents a single trash directory
type trashLocation struct {
	// Root directory (e.g., ~/.local/share/Trash or /media/disk/.Trash-1000)
	root string

	// Files directory (root/files)
	filesDir string

	// Info directory (root/info)
	infoDir string

	// Mount point the location belongs to; empty for the home trash,
	// whose .trashinfo files carry absolute paths
	mountRoot string
}

func newLocation(root, mountRoot string) *trashLocation {
	return &trashLocation{
		root:      root,
		filesDir:  filepath.Join(root, "files"),
		infoDir:   filepath.Join(root, "info"),
		mountRoot: mountRoot,
	}
}

func (l *trashLocation) infoPath(name string) string {
	return filepath.Join(l.infoDir, name+infoSuffix)
}

// New creates a new XDG-compliant trash storage
func New(opts Options) (*Storage, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Storage{opts: opts}

	home, err := s.initHomeTrash()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize home trash: %w", err)
	}
	s.homeTrash = home

	if !opts.ForceHomeTrash && !opts.SkipMounts {
		if err := s.scanExternalTrashes(); err != nil {
			// home trash is still usable
			slog.Warn("failed to scan external trashes", "error", err)
		}
	}

	slog.Debug("xdg storage ready", "home", home.root, "external", len(s.externalTrashes))
	return s, nil
}

func (s *Storage) Info() *trash.StorageInfo {
	return &trash.StorageInfo{
		Location:  trash.LocationHome,
		Root:      s.homeTrash.root,
		Available: true,
		Type:      trash.StorageTypeXDG,
	}
}

func (s *Storage) Owns(trashPath string) bool {
	return s.locationOf(trashPath) != nil
}

func (s *Storage) locationOf(trashPath string) *trashLocation {
	for _, loc := range append([]*trashLocation{s.homeTrash}, s.externalTrashes...) {
		if filepath.Dir(trashPath) == loc.filesDir {
			return loc
		}
	}
	return nil
}

func (s *Storage) Trash(src string) (string, error) {
	abs, err := filepath.Abs(src)
	if err != nil {
		return "", trash.NewStorageError("trash", src, err)
	}
	if pathset.Contains([]string{s.homeTrash.root}, abs) {
		return "", trash.NewStorageError("trash", abs, fmt.Errorf("%w: refusing to trash the trash itself", trash.ErrInvalidStorage))
	}

	loc := s.selectTrashLocation(abs)
	if loc != s.homeTrash {
		if err := createTrashDir(loc.root); err != nil {
			return "", trash.NewStorageError("trash", abs, err)
		}
	}

	// Reserve a unique name by creating the .trashinfo with O_EXCL first
	info := &TrashInfo{
		Path:         abs,
		DeletionDate: s.opts.Now(),
		MountRoot:    loc.mountRoot,
	}
	baseName := filepath.Base(abs)
	trashName := baseName
	for counter := 1; ; counter++ {
		if !fs.Exists(filepath.Join(loc.filesDir, trashName)) {
			err := info.Save(loc.infoPath(trashName))
			if err == nil {
				break
			}
			if !errors.Is(err, os.ErrExist) {
				return "", trash.NewStorageError("trash", abs, fmt.Errorf("failed to save trash info: %w", err))
			}
		}
		trashName = fmt.Sprintf("%s_%d", baseName, counter)
	}

	dstPath := filepath.Join(loc.filesDir, trashName)
	if err := fs.Move(abs, dstPath, true); err != nil {
		if errors.Is(err, fs.ErrSourceNotRemoved) {
			// the .trashinfo stays with the full copy
			return dstPath, trash.NewStorageError("trash", abs, err)
		}
		_ = os.Remove(loc.infoPath(trashName))
		return "", trash.NewStorageError("trash", abs, err)
	}

	return dstPath, nil
}

func (s *Storage) Restore(trashPath, originalPath string) error {
	loc := s.locationOf(trashPath)
	if loc == nil {
		return trash.NewStorageError("restore", trashPath, trash.ErrInvalidStorage)
	}
	if !fs.Exists(trashPath) {
		return trash.NewStorageError("restore", trashPath, trash.ErrNotFound)
	}
	if fs.Exists(originalPath) {
		return trash.NewStorageError("restore", originalPath, trash.ErrFileExists)
	}

	if err := fs.Move(trashPath, originalPath, true); err != nil {
		if !errors.Is(err, fs.ErrSourceNotRemoved) {
			return trash.NewStorageError("restore", originalPath, err)
		}
		slog.Warn("restored, but leftovers remain in the trash", "path", trashPath, "error", err)
	}

	if err := os.Remove(loc.infoPath(filepath.Base(trashPath))); err != nil {
		// the file is already back in place
		slog.Warn("failed to remove trash info", "path", trashPath, "error", err)
	}
	return nil
}

// Revert moves a restored file back to trashPath and recreates its
// .trashinfo.
func (s *Storage) Revert(trashPath, originalPath string) error {
	loc := s.locationOf(trashPath)
	if loc == nil {
		return trash.NewStorageError("revert", trashPath, trash.ErrInvalidStorage)
	}
	info := &TrashInfo{Path: originalPath, DeletionDate: s.opts.Now(), MountRoot: loc.mountRoot}
	infoPath := loc.infoPath(filepath.Base(trashPath))
	if err := info.Save(infoPath); err != nil {
		return trash.NewStorageError("revert", trashPath, err)
	}
	if err := fs.Move(originalPath, trashPath, true); err != nil {
		_ = os.Remove(infoPath)
		return trash.NewStorageError("revert", originalPath, err)
	}
	return nil
}

// Orphans lists .trashinfo files whose payload no longer exists or that
// cannot be parsed.
func (s *Storage) Orphans() ([]string, error) {
	var orphans []string
	for _, loc := range append([]*trashLocation{s.homeTrash}, s.externalTrashes...) {
		entries, err := os.ReadDir(loc.infoDir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, trash.NewStorageError("orphans", loc.infoDir, err)
		}
		for _, entry := range entries {
			name, ok := strings.CutSuffix(entry.Name(), infoSuffix)
			if !ok || entry.IsDir() {
				continue
			}
			infoPath := filepath.Join(loc.infoDir, entry.Name())
			if !fs.Exists(filepath.Join(loc.filesDir, name)) {
				orphans = append(orphans, infoPath)
				continue
			}
			if _, err := loadTrashInfo(infoPath); err != nil {
				slog.Debug("unreadable trash info", "path", infoPath, "error", err)
				orphans = append(orphans, infoPath)
			}
		}
	}
	return orphans, nil
}

// RemoveOrphans deletes the given orphaned .trashinfo files.
func (s *Storage) RemoveOrphans(paths []string) error {
	var errs []error
	for _, p := range paths {
		if !strings.HasSuffix(p, infoSuffix) {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Storage) initHomeTrash() (*trashLocation, error) {
	root := s.opts.HomeTrash
	if root == "" {
		dataDir := os.Getenv("XDG_DATA_HOME")
		if dataDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get home directory: %w", err)
			}
			dataDir = filepath.Join(home, ".local", "share")
		}
		root = filepath.Join(dataDir, "Trash")
	}

	loc := newLocation(root, "")
	if err := createTrashDir(loc.root); err != nil {
		return nil, err
	}
	return loc, nil
}

func (s *Storage) scanExternalTrashes() error {
	mounts, err := getMountPoints()
	if err != nil {
		return fmt.Errorf("failed to get mount points: %w", err)
	}

	uid := os.Getuid()
	uidStr := strconv.Itoa(uid)

	for _, mount := range mounts {
		// $topdir/.Trash/$uid
		trashPath := filepath.Join(mount, ".Trash", uidStr)
		if isValidExternalTrash(trashPath) {
			s.externalTrashes = append(s.externalTrashes, newLocation(trashPath, mount))
			continue
		}

		// $topdir/.Trash-$uid
		trashPath = filepath.Join(mount, fmt.Sprintf(".Trash-%d", uid))
		if isValidExternalTrash(trashPath) {
			s.externalTrashes = append(s.externalTrashes, newLocation(trashPath, mount))
		}
	}

	return nil
}

func (s *Storage) selectTrashLocation(path string) *trashLocation {
	if s.opts.ForceHomeTrash {
		return s.homeTrash
	}

	sameDevice, err := isOnSameDevice(filepath.Dir(path), s.homeTrash.root)
	if err == nil && sameDevice {
		return s.homeTrash
	}

	for _, ext := range s.externalTrashes {
		sameDevice, err := isOnSameDevice(filepath.Dir(path), ext.root)
		if err == nil && sameDevice {
			return ext
		}
	}

	// No trash on the file's device: copy into the home trash
	return s.homeTrash
}
