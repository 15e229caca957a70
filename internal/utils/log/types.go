package log

import (
	"strings"

	charmlog "github.com/charmbracelet/log"
)

type (
	Level     = charmlog.Level
	Styles    = charmlog.Styles
	Formatter = charmlog.Formatter
)

const (
	DebugLevel     = charmlog.DebugLevel
	InfoLevel      = charmlog.InfoLevel
	WarnLevel      = charmlog.WarnLevel
	ErrorLevel     = charmlog.ErrorLevel
	FatalLevel     = charmlog.FatalLevel
	ImportantLevel = WarnLevel + 1
)

const (
	TextFormatter = charmlog.TextFormatter
	JSONFormatter = charmlog.JSONFormatter
)

// LogLevelString returns the string representation of the level
func LogLevelString(l Level) string {
	switch l {
	case ImportantLevel:
		return " IMPORTANT "
	default:
		return charmlog.Level(l).String()
	}
}

// ParseLevel maps a config level name to a Level, defaulting to info
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	case "important":
		return ImportantLevel
	default:
		return InfoLevel
	}
}

// ParseFormatter maps a config format name to a Formatter
func ParseFormatter(s string) Formatter {
	if strings.ToLower(s) == "json" {
		return JSONFormatter
	}
	return TextFormatter
}
