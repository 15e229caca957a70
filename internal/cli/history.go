package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/babarot/sift/internal/history"
	"github.com/babarot/sift/internal/undo"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

type HistoryCommand struct {
	Within string   `long:"within" value-name:"DURATION" description:"Only transactions younger than DURATION (e.g. 3d, 2 weeks)"`
	Glob   []string `long:"glob" description:"Only transactions containing a file whose name matches"`
	All    bool     `short:"a" long:"all" description:"Ignore the exclude rules of the config"`
	Paths  bool     `short:"p" long:"paths" description:"List the paths of every transaction"`
	JSON   bool     `long:"json" description:"Print transactions as JSON"`
}

func (c *CLI) History(_ []string) error {
	slog.Debug("cli.history started")
	defer slog.Debug("cli.history finished")

	if err := c.setup(); err != nil {
		return err
	}

	entries := c.filterEntries(c.undo.Entries())
	if len(entries) == 0 {
		fmt.Fprintln(c.errOut, "No transactions in history.")
		return nil
	}

	if c.option.History.JSON {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	renderHistory(c.out, entries, c.option.History.Paths)
	return nil
}

// filterEntries applies the config include/exclude rules and the command
// line narrowing
func (c *CLI) filterEntries(entries []undo.Entry) []undo.Entry {
	opt := c.option.History
	cfg := c.config.Core.History

	filter := history.FilterOptions{
		Globs:  opt.Glob,
		Within: cfg.Include.Within,
	}
	if opt.Within != "" {
		filter.Within = opt.Within
	}
	if !opt.All {
		filter.Names = cfg.Exclude.Names
		filter.Patterns = cfg.Exclude.Patterns
	}

	statuses := make(map[string]history.Status, len(entries))
	txs := make([]history.Transaction, 0, len(entries))
	for _, e := range entries {
		statuses[e.Transaction.ID] = e.Status
		txs = append(txs, e.Transaction)
	}

	var out []undo.Entry
	for _, tx := range history.Filter(txs, filter) {
		out = append(out, undo.Entry{Transaction: tx, Status: statuses[tx.ID]})
	}
	return out
}

func renderHistory(w io.Writer, entries []undo.Entry, withPaths bool) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Name", "Items", "Deleted", "Status"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, e := range entries {
		tx := e.Transaction
		table.Append([]string{
			shortID(tx.ID),
			tx.Name,
			strconv.Itoa(tx.FileCount),
			humanize.Time(tx.Timestamp),
			statusString(e.Status),
		})
		if withPaths {
			for _, r := range tx.Records {
				table.Append([]string{"", "  " + r.OriginalPath, "", "", ""})
			}
		}
	}
	table.Render()
}

func statusString(s history.Status) string {
	switch s {
	case history.StatusActive:
		return color.GreenString(s.String())
	case history.StatusInvalidated:
		return color.RedString(s.String())
	default:
		return color.HiBlackString(s.String())
	}
}
