//go:build !linux && !darwin

package xattr

import "errors"

var errUnsupported = errors.New("extended attributes are not supported on this platform")

func get(string, string) (string, bool) { return "", false }

func set(string, string, string) error { return errUnsupported }
