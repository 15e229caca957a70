//go:build linux || darwin

package xattr

import (
	"errors"

	"golang.org/x/sys/unix"
)

func get(path, attr string) (string, bool) {
	size, err := unix.Lgetxattr(path, attr, nil)
	if err != nil || size <= 0 {
		return "", false
	}
	buf := make([]byte, size)
	for {
		n, err := unix.Lgetxattr(path, attr, buf)
		if errors.Is(err, unix.ERANGE) {
			// attribute grew between the two calls
			buf = make([]byte, len(buf)*2)
			continue
		}
		if err != nil {
			return "", false
		}
		return string(buf[:n]), true
	}
}

func set(path, attr, value string) error {
	return unix.Lsetxattr(path, attr, []byte(value), 0)
}
