package env

import (
	"os"
	"path/filepath"
)

const (
	defaultXDGConfigDirname = ".config"
	defaultXDGStateDirname  = ".local/state"
)

var (
	SIFT_CONFIG_PATH string

	SIFT_LOG_PATH string

	// SIFT_STATE_DIR holds history.json and associations.json
	SIFT_STATE_DIR string
)

func init() {
	// https://github.com/charmbracelet/log/issues/35
	os.Setenv("CLICOLOR_FORCE", "1")
	Load()
}

// Load resolves the paths from the environment, following
// https://specifications.freedesktop.org/basedir-spec/latest/
func Load() {
	SIFT_CONFIG_PATH = os.Getenv("SIFT_CONFIG_PATH")
	if SIFT_CONFIG_PATH == "" {
		SIFT_CONFIG_PATH = filepath.Join(baseDir("XDG_CONFIG_HOME", defaultXDGConfigDirname), "sift", "config.yaml")
	}

	SIFT_STATE_DIR = os.Getenv("SIFT_STATE_DIR")
	if SIFT_STATE_DIR == "" {
		SIFT_STATE_DIR = filepath.Join(baseDir("XDG_STATE_HOME", defaultXDGStateDirname), "sift")
	}

	SIFT_LOG_PATH = os.Getenv("SIFT_LOG_PATH")
	if SIFT_LOG_PATH == "" {
		SIFT_LOG_PATH = filepath.Join(SIFT_STATE_DIR, "debug.log")
	}
}

func baseDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}
	return filepath.Join(homeDir, fallback)
}
