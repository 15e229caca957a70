//go:build !linux && !darwin

package trash

func needsElevation(string) bool { return false }
