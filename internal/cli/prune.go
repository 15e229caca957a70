package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/babarot/sift/internal/trash/xdg"
	"github.com/babarot/sift/internal/ui/confirm"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

type PruneCommand struct {
	Force bool `short:"f" long:"force" description:"Do not ask before removing orphaned metadata"`
}

// OrphanedFile is a .trashinfo file whose payload is gone
type OrphanedFile struct {
	TrashInfoPath string
	OriginalPath  string
	DeletedAt     time.Time
	Size          int64
}

var ErrInvalidArgument = errors.New("prune requires an argument (invalid or orphans)")

// PruneFunc represents a function that performs a pruning operation
type PruneFunc func() error

func (c *CLI) Prune(args []string) error {
	slog.Debug("pruning started")
	defer slog.Debug("pruning finished")

	if len(args) == 0 {
		return ErrInvalidArgument
	}

	var pruneFuncs []PruneFunc
	for _, arg := range args {
		switch arg {
		case "invalid":
			pruneFuncs = append(pruneFuncs, c.pruneInvalid)
		case "orphans":
			pruneFuncs = append(pruneFuncs, c.pruneOrphans)
		default:
			return fmt.Errorf("unknown prune argument: %s", arg)
		}
	}

	for _, fn := range pruneFuncs {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

// pruneInvalid drops history entries whose trashed files are gone
func (c *CLI) pruneInvalid() error {
	if err := c.setup(); err != nil {
		return err
	}
	n := c.undo.Prune()
	if n == 0 {
		fmt.Fprintln(c.out, "No invalid transactions found.")
		return nil
	}
	fmt.Fprintf(c.out, "Removed %d invalid transactions from history.\n", n)
	return nil
}

// pruneOrphans removes .trashinfo files without a trashed file
func (c *CLI) pruneOrphans() error {
	storage, err := xdg.New(xdg.Options{})
	if err != nil {
		return fmt.Errorf("failed to open xdg trash: %w", err)
	}
	paths, err := storage.Orphans()
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Fprintln(c.out, "No orphaned metadata files found.")
		return nil
	}

	files := make([]OrphanedFile, 0, len(paths))
	for _, p := range paths {
		files = append(files, describeOrphan(p))
	}
	c.printOrphanedFilesTable(files)

	if !c.option.Prune.Force {
		if !isatty.IsTerminal(os.Stdin.Fd()) {
			return ErrNotConfirmed
		}
		if !confirm.AskYes(fmt.Sprintf("Remove %d orphaned metadata files?", len(files))) {
			fmt.Fprintln(c.out, "Pruning canceled.")
			return nil
		}
	}

	if err := storage.RemoveOrphans(paths); err != nil {
		return fmt.Errorf("some orphaned metadata files could not be removed: %w", err)
	}
	fmt.Fprintf(c.out, "Successfully removed %d orphaned metadata files.\n", len(files))
	return nil
}

// describeOrphan reads what it can from an orphaned .trashinfo. Unreadable
// files are still listed.
func describeOrphan(path string) OrphanedFile {
	file := OrphanedFile{TrashInfoPath: path}
	if fi, err := os.Stat(path); err == nil {
		file.Size = fi.Size()
	}
	f, err := os.Open(path)
	if err != nil {
		return file
	}
	defer f.Close()
	if info, err := xdg.NewInfo(f); err == nil {
		file.OriginalPath = info.Path
		file.DeletedAt = info.DeletionDate
	}
	return file
}

func (c *CLI) printOrphanedFilesTable(files []OrphanedFile) {
	green := color.New(color.FgHiGreen).SprintfFunc()
	white := color.New(color.FgWhite).SprintfFunc()

	fmt.Fprintf(c.out, "%s %s %s\n",
		green("%-20s", "Deleted At"),
		green("%-10s", "Size"),
		green("%-30s", "Path"),
	)
	for _, file := range files {
		deletedAt := "-"
		if !file.DeletedAt.IsZero() {
			deletedAt = file.DeletedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(c.out, "%s %s %s\n",
			white("%-20s", deletedAt),
			white("%-10s", humanize.Bytes(uint64(file.Size))),
			white("%-30s", file.TrashInfoPath),
		)
	}
	fmt.Fprintln(c.out)
}
