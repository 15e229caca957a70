package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/babarot/sift/internal/ui/confirm"
	"github.com/babarot/sift/internal/undo"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

type PutCommand struct {
	Name  string `short:"n" long:"name" description:"Name of the transaction (default: \"N items\")"`
	From  string `long:"from" value-name:"FILE" description:"Read paths to delete from FILE, one per line (- for stdin)"`
	Force bool   `short:"f" long:"force" description:"Do not ask before deleting"`
}

var (
	ErrNoPaths        = errors.New("too few arguments")
	ErrNotConfirmed   = errors.New("refusing to delete without confirmation on a non-interactive terminal (use -f)")
	ErrPartialDelete  = errors.New("some paths could not be moved to the trash")
	ErrNothingDeleted = errors.New("nothing was moved to the trash")
)

func (c *CLI) Put(args []string) error {
	slog.Debug("cli.put started")
	defer slog.Debug("cli.put finished")

	opt := c.option.Put
	paths := args
	if opt.From != "" {
		listed, err := readPathList(opt.From)
		if err != nil {
			return err
		}
		paths = append(paths, listed...)
	}
	if len(paths) == 0 {
		return ErrNoPaths
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return c.deletePaths(ctx, paths, opt.Name, opt.Force)
}

// readPathList reads newline separated paths. Blank lines and lines
// starting with # are skipped.
func readPathList(name string) ([]string, error) {
	f := os.Stdin
	if name != "-" {
		var err error
		f, err = os.Open(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()
	}

	var paths []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return paths, nil
}

// deletePaths asks for confirmation when configured to, then moves paths
// to the trash as one transaction
func (c *CLI) deletePaths(ctx context.Context, paths []string, name string, force bool) error {
	if len(paths) == 0 {
		fmt.Fprintln(c.errOut, "Nothing to delete.")
		return nil
	}

	if c.config.Core.Delete.Confirm && !force {
		if !isatty.IsTerminal(os.Stdin.Fd()) {
			return ErrNotConfirmed
		}
		if !confirm.Ask(fmt.Sprintf("Move %d items to the trash?", len(paths))) {
			fmt.Fprintln(c.errOut, "Delete canceled.")
			return nil
		}
	}

	if err := c.setup(); err != nil {
		return err
	}

	res := c.undo.DeleteFiles(ctx, paths, name)
	return c.reportDelete(res)
}

func (c *CLI) reportDelete(res undo.Result) error {
	red := color.New(color.FgRed).SprintFunc()
	for _, f := range res.Failures {
		fmt.Fprintf(c.errOut, "%s %s: %v\n", red("failed"), f.Path, f.Err)
	}

	if !res.OK() {
		return ErrNothingDeleted
	}

	tx := res.Transaction
	if c.config.Core.Delete.Verbose {
		for _, r := range tx.Records {
			fmt.Fprintf(c.out, "removed '%s'\n", r.OriginalPath)
		}
	}
	fmt.Fprintf(c.out, "%s %q (%d of %d items) as %s\n",
		color.GreenString("Moved"), tx.Name, tx.FileCount, res.Requested, shortID(tx.ID))

	if !res.Complete() {
		return fmt.Errorf("%w: %w", ErrPartialDelete, res.Err())
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
