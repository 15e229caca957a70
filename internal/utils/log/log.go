package log

import (
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/babarot/sift/internal/config"
	charmlog "github.com/charmbracelet/log"
)

var (
	// singleton instances
	defaultStylesOnce sync.Once
	defaultStyles     atomic.Pointer[Styles]
)

// initializeStyles creates and initializes the default styles
func initializeStyles() *Styles {
	styles := charmlog.DefaultStyles()
	for _, ls := range levelStyles {
		levelStr := strings.ToUpper(LogLevelString(ls.level))
		if len(levelStr) < ls.maxWidth {
			levelStr = levelStr + strings.Repeat(" ", ls.maxWidth-len(levelStr))
		}
		styles.Levels[ls.level] = ls.style.SetString(levelStr)
	}
	return styles
}

// DefaultStyles returns the initialized styles with all levels including Important
func DefaultStyles() *Styles {
	defaultStylesOnce.Do(func() {
		defaultStyles.Store(initializeStyles())
	})
	return defaultStyles.Load()
}

// New creates a new logger with the given options
func New(opts ...Option) *slog.Logger {
	o := DefaultOptions()
	o.Apply(opts...)

	if o.OutputFunc != nil {
		if w, err := o.OutputFunc(); err == nil {
			o.Writer = w
		}
	}

	handler := charmlog.NewWithOptions(o.Writer, o.Options)
	handler.SetStyles(o.Styles)
	if len(o.Fields) > 0 {
		handler = handler.With(o.Fields...)
	}

	logger := slog.New(handler)

	if o.Default {
		charmlog.SetDefault(handler)
		slog.SetDefault(logger)
	}

	return logger
}

// Setup installs the process logger described by cfg. Disabled logging
// discards every record.
func Setup(cfg config.LoggingConfig, path, runID string) *slog.Logger {
	opts := []Option{
		AsDefault(),
		UseLevel(ParseLevel(cfg.Level)),
		UseFormatter(ParseFormatter(cfg.Format)),
		UseReportCaller(true),
		UseReportTimestamp(true),
		UseTimeFormat(time.Kitchen),
		UseFields("run_id", runID),
	}
	if cfg.Enabled {
		opts = append(opts, UseRotation(path, cfg.Rotation))
	} else {
		opts = append(opts, UseOutput(io.Discard))
	}
	return New(opts...)
}
