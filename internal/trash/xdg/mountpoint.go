//go:build linux || darwin

package xdg

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/babarot/sift/internal/trash"
	"github.com/moby/sys/mountinfo"
)

// pseudo file systems never hold a trash directory
var skipFSTypes = map[string]bool{
	"proc":        true,
	"sysfs":       true,
	"devtmpfs":    true,
	"devpts":      true,
	"tmpfs":       true,
	"cgroup":      true,
	"cgroup2":     true,
	"pstore":      true,
	"securityfs":  true,
	"debugfs":     true,
	"configfs":    true,
	"fusectl":     true,
	"bpf":         true,
	"nsfs":        true,
	"efivarfs":    true,
	"hugetlbfs":   true,
	"mqueue":      true,
	"binfmt_misc": true,
	"autofs":      true,
	"devfs":       true,
}

func usableMount(info *mountinfo.Info) (skip, stop bool) {
	if skipFSTypes[info.FSType] {
		return true, false
	}
	if slices.Contains(strings.Split(info.Options, ","), "ro") {
		return true, false
	}
	return false, false
}

// getMountPoints returns the writable mount points that may carry a
// $topdir trash. The root file system is always included.
func getMountPoints() ([]string, error) {
	mounts, err := mountinfo.GetMounts(usableMount)
	if err != nil {
		return nil, fmt.Errorf("failed to get mount info: %w", err)
	}

	points := make([]string, 0, len(mounts)+1)
	for _, m := range mounts {
		points = append(points, m.Mountpoint)
	}
	points = append(points, "/")
	slices.Sort(points)
	points = slices.Compact(points)

	slog.Debug("mount points", "count", len(points))
	return points, nil
}

// isOnSameDevice checks if two paths are on the same device
func isOnSameDevice(path1, path2 string) (bool, error) {
	dev1, err := deviceOf(path1)
	if err != nil {
		return false, err
	}
	dev2, err := deviceOf(path2)
	if err != nil {
		return false, err
	}
	return dev1 == dev2, nil
}

func deviceOf(path string) (uint64, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve path %s: %w", path, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", resolved, err)
	}
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, trash.NewStorageError("check-device", path, fmt.Errorf("failed to get device information"))
	}
	return uint64(st.Dev), nil
}

// isValidExternalTrash checks the $topdir trash rules: a real directory,
// not a symlink, and for the shared .Trash/$uid form a sticky parent.
func isValidExternalTrash(path string) bool {
	info, err := os.Lstat(path)
	if err != nil || !info.IsDir() || info.Mode()&os.ModeSymlink != 0 {
		return false
	}

	if parent := filepath.Dir(path); filepath.Base(parent) == ".Trash" {
		pinfo, err := os.Lstat(parent)
		if err != nil || pinfo.Mode()&os.ModeSymlink != 0 || pinfo.Mode()&os.ModeSticky == 0 {
			slog.Debug("shared trash is not sticky", "path", parent)
			return false
		}
	}

	return true
}

// createTrashDir creates a trash directory with its files/ and info/
// subdirectories, all mode 0700.
func createTrashDir(path string) error {
	for _, dir := range []string{path, filepath.Join(path, "files"), filepath.Join(path, "info")} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create trash directory %s: %w", dir, err)
		}
	}
	return nil
}
