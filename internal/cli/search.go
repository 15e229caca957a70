package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/babarot/sift/internal/search"
	"github.com/babarot/sift/internal/search/xattr"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

type SearchCommand struct {
	Name           []string `long:"name" value-name:"MODE:VALUE" description:"Name filter, MODE is contains, not-contains, starts-with, ends-with, equals, regex or glob"`
	Ext            []string `long:"ext" value-name:"a,b" description:"Only these extensions"`
	NotExt         []string `long:"not-ext" value-name:"a,b" description:"Skip these extensions"`
	Size           []string `long:"size" value-name:"SIZE" description:"Size filter: >10MB, <1KB, =0 or 1MB..5MB"`
	ModifiedAfter  string   `long:"modified-after" value-name:"WHEN" description:"Modified after a duration ago (7d) or a date (2024-01-02)"`
	ModifiedBefore string   `long:"modified-before" value-name:"WHEN" description:"Modified before a duration ago or a date"`
	CreatedAfter   string   `long:"created-after" value-name:"WHEN" description:"Created after a duration ago or a date"`
	CreatedBefore  string   `long:"created-before" value-name:"WHEN" description:"Created before a duration ago or a date"`
	Tag            []string `long:"tag" description:"Has this tag"`
	AnyTag         []string `long:"any-tag" value-name:"a,b" description:"Has at least one of these tags"`
	AllTags        []string `long:"all-tags" value-name:"a,b" description:"Has all of these tags"`
	NoTag          []string `long:"no-tag" description:"Does not have this tag"`
	Comment        []string `long:"comment" value-name:"MODE:VALUE" description:"Comment filter, MODE is contains, not-contains, equals or is-empty"`
	Kind           []string `long:"kind" description:"file, folder, package, alias, image, audio, video, text, archive or document"`
	Type           string   `long:"type" description:"Entries to report" choice:"all" choice:"files" choice:"folders" default:"all"`
	Hidden         bool     `long:"hidden" description:"Include hidden entries"`
	CaseSensitive  bool     `long:"case-sensitive" description:"Match names and comments case-sensitively"`
	NoRecursive    bool     `long:"no-recursive" description:"Only look at the direct children of each root"`
	IncludeSystem  bool     `long:"include-system" description:"Do not skip system folders"`
	Collapse       bool     `long:"collapse" description:"Do not report entries below a matching folder"`
	Sizes          bool     `long:"sizes" description:"Compute the size of matching folders"`
	JSON           bool     `long:"json" description:"Print results as JSON lines"`
	Delete         string   `long:"delete" value-name:"NAME" description:"Move every match to the trash as a transaction named NAME"`
	Force          bool     `short:"f" long:"force" description:"Do not ask before deleting"`
}

// request turns the command line into a search request
func (o SearchCommand) request(args []string, cfg searchDefaults, now time.Time) (search.Request, error) {
	if len(args) == 0 {
		args = []string{"."}
	}
	roots := make([]string, 0, len(args))
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return search.Request{}, err
		}
		roots = append(roots, abs)
	}

	typ, err := search.ParseSearchType(o.Type)
	if err != nil {
		return search.Request{}, err
	}
	filters, err := o.filters(now)
	if err != nil {
		return search.Request{}, err
	}

	return search.Request{
		Roots:                roots,
		Filters:              filters,
		IncludeSubfolders:    !o.NoRecursive,
		IncludeHidden:        o.Hidden,
		CaseSensitive:        o.CaseSensitive,
		Type:                 typ,
		ExcludeSystemFolders: cfg.excludeSystem && !o.IncludeSystem,
		CollapseNested:       cfg.collapse || o.Collapse,
	}, nil
}

type searchDefaults struct {
	excludeSystem bool
	collapse      bool
}

func (o SearchCommand) filters(now time.Time) (search.Filters, error) {
	var filters search.Filters
	add := func(p search.Predicate, err error) error {
		if err != nil {
			return err
		}
		filters = append(filters, p)
		return nil
	}

	for _, s := range o.Name {
		if err := add(parseNameFlag(s)); err != nil {
			return nil, err
		}
	}
	if exts := splitList(o.Ext); len(exts) > 0 {
		if err := add(search.NewExtensionFilter(search.ExtensionIncludes, exts...)); err != nil {
			return nil, err
		}
	}
	if exts := splitList(o.NotExt); len(exts) > 0 {
		if err := add(search.NewExtensionFilter(search.ExtensionExcludes, exts...)); err != nil {
			return nil, err
		}
	}
	for _, s := range o.Size {
		if err := add(parseSizeFlag(s)); err != nil {
			return nil, err
		}
	}

	for _, d := range []struct {
		field         search.DateField
		after, before string
	}{
		{search.DateModified, o.ModifiedAfter, o.ModifiedBefore},
		{search.DateCreated, o.CreatedAfter, o.CreatedBefore},
	} {
		f, ok, err := dateFilter(d.field, d.after, d.before, now)
		if err != nil {
			return nil, err
		}
		if ok {
			filters = append(filters, f)
		}
	}

	for _, t := range o.Tag {
		if err := add(search.NewTagFilter(search.TagHas, t)); err != nil {
			return nil, err
		}
	}
	for _, t := range o.NoTag {
		if err := add(search.NewTagFilter(search.TagNotHas, t)); err != nil {
			return nil, err
		}
	}
	if tags := splitList(o.AnyTag); len(tags) > 0 {
		if err := add(search.NewTagFilter(search.TagHasAny, tags...)); err != nil {
			return nil, err
		}
	}
	if tags := splitList(o.AllTags); len(tags) > 0 {
		if err := add(search.NewTagFilter(search.TagHasAll, tags...)); err != nil {
			return nil, err
		}
	}
	for _, s := range o.Comment {
		if err := add(parseCommentFlag(s)); err != nil {
			return nil, err
		}
	}
	for _, s := range o.Kind {
		k, err := search.ParseKind(s)
		if err != nil {
			return nil, err
		}
		if err := add(search.NewKindFilter(k)); err != nil {
			return nil, err
		}
	}
	return filters, nil
}

func (c *CLI) newEngine() *search.Engine {
	cfg := c.config.Search
	opts := []search.Option{
		search.WithBatchSize(cfg.BatchSize),
		search.WithBuffer(cfg.Buffer),
		search.WithSystemFolders(cfg.SystemFolders...),
		search.WithSkipDirs(cfg.SkipDirs...),
		search.WithMetadataProvider(&xattr.Provider{
			TagsAttr:    cfg.Metadata.TagsAttr,
			CommentAttr: cfg.Metadata.CommentAttr,
		}),
		search.WithLogger(slog.Default().With("component", "search")),
	}
	if cfg.Workers > 0 {
		opts = append(opts, search.WithWorkers(cfg.Workers))
	}
	return search.New(opts...)
}

func (c *CLI) Search(args []string) error {
	slog.Debug("cli.search started")
	defer slog.Debug("cli.search finished")

	opt := c.option.Search
	req, err := opt.request(args, searchDefaults{
		excludeSystem: c.config.Search.ExcludeSystemFolders,
		collapse:      c.config.Search.CollapseNested,
	}, time.Now())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	collected := search.NewCollection()
	printer := resultPrinter{cli: c, json: opt.JSON}
	onBatch := func(batch []search.Result) {
		if opt.Sizes {
			for i := range batch {
				if err := batch[i].LoadSize(ctx); err != nil {
					slog.Debug("failed to load size", "path", batch[i].Path, "error", err)
				}
			}
		}
		collected.Add(batch)
		printer.print(batch)
	}

	job, err := c.newEngine().Search(ctx, req, onBatch, nil)
	if err != nil {
		return err
	}
	stats := job.Wait()
	// Ctrl-C only cancels the search
	stop()
	c.printSummary(stats)

	if opt.Delete == "" {
		return nil
	}
	if stats.Cancelled {
		fmt.Fprintln(c.errOut, "Search was cancelled, nothing was deleted.")
		return nil
	}
	return c.deletePaths(context.Background(), collected.Paths(), opt.Delete, opt.Force)
}

type resultPrinter struct {
	cli  *CLI
	json bool
}

func (p resultPrinter) print(batch []search.Result) {
	if p.json {
		enc := json.NewEncoder(p.cli.out)
		for _, r := range batch {
			if err := enc.Encode(r); err != nil {
				slog.Error("failed to encode result", "path", r.Path, "error", err)
			}
		}
		return
	}

	cyan := color.New(color.FgCyan).SprintfFunc()
	white := color.New(color.FgWhite).SprintfFunc()
	gray := color.New(color.FgHiBlack).SprintfFunc()
	for _, r := range batch {
		size := "--"
		if r.SizeKnown {
			size = humanize.Bytes(uint64(r.Size))
		}
		path := white("%s", r.Path)
		if r.IsDir {
			path = cyan("%s", r.Path)
		}
		fmt.Fprintf(p.cli.out, "%s %s %s %s\n",
			gray("%-8s", r.Type),
			white("%9s", size),
			gray("%-16s", humanize.Time(r.ModTime)),
			path,
		)
	}
}

func (c *CLI) printSummary(stats search.Stats) {
	summary := fmt.Sprintf("%d matches, %d visited, %d skipped in %s",
		stats.Matched, stats.Visited, stats.Skipped, stats.Elapsed.Round(time.Millisecond))
	if stats.Cancelled {
		summary += color.YellowString(" (cancelled)")
	}
	fmt.Fprintln(c.errOut, summary)
}
