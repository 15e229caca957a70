package search

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// normalize prepares s for comparison. Case-insensitive comparisons use
// full Unicode case folding, so "Straße" and "STRASSE" compare equal.
func normalize(s string, caseSensitive bool) string {
	s = norm.NFC.String(s)
	if caseSensitive {
		return s
	}
	return folder.String(s)
}

func foldAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, normalize(v, false))
	}
	return out
}
