package search

import (
	"io/fs"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

func birthTime(_ string, info fs.FileInfo) (time.Time, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(st.Birthtimespec.Unix()), true
}

// hiddenFlag reports the Finder "hidden" flag (chflags hidden).
func hiddenFlag(info fs.FileInfo) bool {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return false
	}
	return st.Flags&unix.UF_HIDDEN != 0
}
