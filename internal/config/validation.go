package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/babarot/sift/internal/utils/duration"
	"github.com/docker/go-units"
	"github.com/go-playground/validator/v10"
)

// validateStrategy validates the trash strategy value
func validateStrategy(fl validator.FieldLevel) bool {
	value := strings.ToLower(fl.Field().String())
	return slices.Contains([]string{"auto", "xdg", "dir"}, value)
}

// validateSize validates the size format (e.g., "10MB", "1GB"). Empty is
// acceptable.
func validateSize(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if value == "" {
		return true
	}
	_, err := units.FromHumanSize(value)
	return err == nil
}

// validateDuration validates durations such as "7d" or "3 days". Empty is
// acceptable.
func validateDuration(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if value == "" {
		return true
	}
	_, err := duration.ParseLong(value)
	return err == nil
}

// expandPath expands environment variables and "~" in paths
func expandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}

	path = os.ExpandEnv(path)

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	return abs, nil
}

// ExpandPath is expandPath for callers outside the package
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}
