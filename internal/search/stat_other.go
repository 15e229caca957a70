//go:build !linux && !darwin

package search

import (
	"io/fs"
	"time"
)

func birthTime(string, fs.FileInfo) (time.Time, bool) { return time.Time{}, false }

func hiddenFlag(fs.FileInfo) bool { return false }
