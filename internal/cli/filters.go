package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/babarot/sift/internal/search"
	"github.com/babarot/sift/internal/utils/duration"
	"github.com/samber/lo"
)

const dateLayout = "2006-01-02"

// splitMode splits "MODE:VALUE". Values without a known mode prefix are
// returned whole with an empty mode.
func splitMode(s string, known func(string) bool) (string, string) {
	mode, value, ok := strings.Cut(s, ":")
	if !ok || !known(mode) {
		return "", s
	}
	return mode, value
}

func parseNameFlag(s string) (search.NameFilter, error) {
	mode, value := splitMode(s, func(m string) bool {
		_, err := search.ParseNameMode(m)
		return err == nil
	})
	if mode == "" {
		return search.NewNameFilter(search.NameContains, value)
	}
	m, _ := search.ParseNameMode(mode)
	return search.NewNameFilter(m, value)
}

func parseCommentFlag(s string) (search.CommentFilter, error) {
	if strings.EqualFold(strings.TrimSpace(s), "is-empty") {
		return search.NewCommentFilter(search.CommentIsEmpty, "")
	}
	mode, value := splitMode(s, func(m string) bool {
		_, err := search.ParseCommentMode(m)
		return err == nil
	})
	if mode == "" {
		return search.NewCommentFilter(search.CommentContains, value)
	}
	m, _ := search.ParseCommentMode(mode)
	return search.NewCommentFilter(m, value)
}

// parseSizeFlag understands ">10MB", "<1KB", "=0", "1MB..5MB" and a bare
// size, which means greater than
func parseSizeFlag(s string) (search.SizeFilter, error) {
	s = strings.TrimSpace(s)
	if from, to, ok := strings.Cut(s, ".."); ok {
		lower, err := search.ParseSize(from)
		if err != nil {
			return search.SizeFilter{}, err
		}
		upper, err := search.ParseSize(to)
		if err != nil {
			return search.SizeFilter{}, err
		}
		return search.NewSizeFilter(search.SizeBetween, lower, upper)
	}

	mode := search.SizeGreaterThan
	switch {
	case strings.HasPrefix(s, ">"):
		s = s[1:]
	case strings.HasPrefix(s, "<"):
		mode, s = search.SizeLessThan, s[1:]
	case strings.HasPrefix(s, "="):
		mode, s = search.SizeEquals, s[1:]
	}
	n, err := search.ParseSize(s)
	if err != nil {
		return search.SizeFilter{}, err
	}
	return search.NewSizeFilter(mode, n, 0)
}

// parseDate accepts a relative duration ("7d", "2 weeks") counted back
// from now, or a local calendar date
func parseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(dateLayout, s, time.Local); err == nil {
		return t, nil
	}
	d, err := duration.ParseLong(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use a duration such as 7d or a date such as 2024-01-02", s)
	}
	return now.Add(-d), nil
}

// dateFilter turns an after/before pair into one filter. Empty bounds are
// skipped; ok is false when both are empty.
func dateFilter(field search.DateField, after, before string, now time.Time) (f search.DateFilter, ok bool, err error) {
	var start, end time.Time
	if after != "" {
		if start, err = parseDate(after, now); err != nil {
			return f, false, err
		}
	}
	if before != "" {
		if end, err = parseDate(before, now); err != nil {
			return f, false, err
		}
	}

	switch {
	case after != "" && before != "":
		f, err = search.NewDateFilter(field, search.DateBetween, start, end)
	case after != "":
		f, err = search.NewDateFilter(field, search.DateAfter, start, time.Time{})
	case before != "":
		f, err = search.NewDateFilter(field, search.DateBefore, end, time.Time{})
	default:
		return f, false, nil
	}
	return f, err == nil, err
}

// splitList splits repeated comma separated flag values
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, strings.Split(v, ",")...)
	}
	return lo.Compact(lo.Map(out, func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))
}
