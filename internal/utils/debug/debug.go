package debug

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/babarot/sift/internal/config"
	"github.com/mattn/go-isatty"
	"github.com/nxadm/tail"
)

// Logs prints the log file at path, or follows it when live is set
func Logs(w io.Writer, path string, cfg config.LoggingConfig, live bool) error {
	if live {
		return tailLiveLogs(w, path, cfg)
	}
	return showExistingLogs(w, path, cfg)
}

// tailLiveLogs follows log entries in real-time
func tailLiveLogs(w io.Writer, path string, cfg config.LoggingConfig) error {
	if !cfg.Enabled {
		return fmt.Errorf("logging is not enabled in config: enable logging in config for live debugging")
	}

	shouldFollow := isatty.IsTerminal(os.Stdout.Fd())
	tailConfig := tail.Config{
		ReOpen: shouldFollow,
		Follow: shouldFollow,
		Poll:   true,
		Logger: tail.DiscardingLogger,
		Location: &tail.SeekInfo{
			Offset: 0,
			Whence: io.SeekEnd,
		},
	}

	t, err := tail.TailFile(path, tailConfig)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("log file does not exist: try running some commands with logging enabled")
		}
		return err
	}
	slog.Info("Live tail started")

	for line := range t.Lines {
		fmt.Fprintln(w, line.Text)
	}

	return nil
}

// showExistingLogs displays the current content of the log file
func showExistingLogs(w io.Writer, path string, cfg config.LoggingConfig) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if !cfg.Enabled {
			return fmt.Errorf("logging is not enabled in config: enable logging to create log files")
		}
		return fmt.Errorf("no log file exists yet: try running some commands first")
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fmt.Fprintln(w, scanner.Text())
	}

	return scanner.Err()
}
