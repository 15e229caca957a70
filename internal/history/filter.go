package history

import (
	"log/slog"
	"path/filepath"
	"regexp"
	"time"

	"github.com/babarot/sift/internal/utils/duration"
	"github.com/gobwas/glob"
	"github.com/samber/lo"
)

// FilterOptions narrows a transaction listing
type FilterOptions struct {
	// Names excludes transactions with exactly these names
	Names []string

	// Patterns excludes transactions whose name matches a regular expression
	Patterns []string

	// Globs keeps only transactions with a record whose base name matches
	Globs []string

	// Within keeps transactions younger than a duration such as "7d"
	Within string

	// Now defaults to time.Now
	Now func() time.Time
}

// Filter applies opts to txs, keeping their order
func Filter(txs []Transaction, opts FilterOptions) []Transaction {
	txs = rejectByNames(txs, opts.Names)
	txs = rejectByPatterns(txs, opts.Patterns)
	txs = keepByGlobs(txs, opts.Globs)
	txs = keepWithin(txs, opts.Within, opts.Now)
	return txs
}

func rejectByNames(txs []Transaction, names []string) []Transaction {
	if len(names) == 0 {
		return txs
	}
	return lo.Reject(txs, func(tx Transaction, _ int) bool {
		return lo.Contains(names, tx.Name)
	})
}

func rejectByPatterns(txs []Transaction, patterns []string) []Transaction {
	var res []*regexp.Regexp
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			slog.Warn("ignoring invalid pattern", "pattern", p, "error", err)
			continue
		}
		res = append(res, re)
	}
	if len(res) == 0 {
		return txs
	}
	return lo.Reject(txs, func(tx Transaction, _ int) bool {
		return lo.SomeBy(res, func(re *regexp.Regexp) bool { return re.MatchString(tx.Name) })
	})
}

func keepByGlobs(txs []Transaction, patterns []string) []Transaction {
	var globs []glob.Glob
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			slog.Warn("ignoring invalid glob", "glob", p, "error", err)
			continue
		}
		globs = append(globs, g)
	}
	if len(globs) == 0 {
		return txs
	}
	return lo.Filter(txs, func(tx Transaction, _ int) bool {
		return lo.SomeBy(tx.Records, func(r Record) bool {
			name := filepath.Base(r.OriginalPath)
			return lo.SomeBy(globs, func(g glob.Glob) bool { return g.Match(name) })
		})
	})
}

func keepWithin(txs []Transaction, within string, now func() time.Time) []Transaction {
	if within == "" {
		return txs
	}
	d, err := duration.ParseLong(within)
	if err != nil {
		slog.Error("failed to parse duration", "within", within, "error", err)
		return txs
	}
	if now == nil {
		now = time.Now
	}
	cutoff := now().Add(-d)
	return lo.Filter(txs, func(tx Transaction, _ int) bool {
		return tx.Timestamp.After(cutoff)
	})
}
