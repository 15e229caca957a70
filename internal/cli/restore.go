package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/babarot/sift/internal/history"
	"github.com/babarot/sift/internal/undo"
	"github.com/fatih/color"
)

type RestoreCommand struct {
	Last bool `short:"l" long:"last" description:"Restore the most recent transaction"`
}

var ErrNoTransaction = errors.New("restore needs transaction ids or --last")

func (c *CLI) Restore(args []string) error {
	slog.Debug("cli.restore started")
	defer slog.Debug("cli.restore finished")

	if len(args) == 0 && !c.option.Restore.Last {
		return ErrNoTransaction
	}
	if err := c.setup(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if c.option.Restore.Last && len(args) == 0 {
		tx, err := c.undo.Undo(ctx)
		if err != nil {
			return c.restoreFailed(err)
		}
		c.printRestored([]history.Transaction{tx})
		return nil
	}

	var txs []history.Transaction
	if c.option.Restore.Last {
		list := c.undo.History()
		if len(list) == 0 {
			return undo.ErrNothingToUndo
		}
		txs = append(txs, list[0])
	}
	for _, id := range args {
		tx, err := c.undo.Find(id)
		if err != nil {
			return err
		}
		txs = append(txs, tx)
	}

	if err := c.undo.RestoreRecords(ctx, txs); err != nil {
		return c.restoreFailed(err)
	}
	c.printRestored(txs)
	return nil
}

func (c *CLI) restoreFailed(err error) error {
	var rerr *undo.RestoreError
	if errors.As(err, &rerr) {
		fmt.Fprintf(c.errOut, "%s %q could not be restored: %s: %v\n",
			color.RedString("Transaction"), rerr.Name, rerr.Path, rerr.Err)
	}
	return err
}

func (c *CLI) printRestored(txs []history.Transaction) {
	for _, tx := range txs {
		if c.config.Core.Delete.Verbose {
			for _, r := range tx.Records {
				fmt.Fprintf(c.out, "restored '%s'\n", r.OriginalPath)
			}
		}
		fmt.Fprintf(c.out, "%s %q (%d items)\n", color.GreenString("Restored"), tx.Name, tx.FileCount)
	}
}
