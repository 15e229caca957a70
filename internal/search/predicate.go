package search

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/dustin/go-humanize"
	"github.com/gobwas/glob"
	"github.com/samber/lo"
)

// ErrInvalidFilter is returned by predicate constructors when the
// arguments cannot describe a usable filter.
var ErrInvalidFilter = errors.New("invalid filter")

// FilterError describes why a predicate could not be constructed
type FilterError struct {
	Filter string
	Reason string
	Err    error
}

func (e *FilterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s filter: %s: %v", e.Filter, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s filter: %s", e.Filter, e.Reason)
}

func (e *FilterError) Unwrap() error {
	if e.Err != nil {
		return errors.Join(ErrInvalidFilter, e.Err)
	}
	return ErrInvalidFilter
}

func invalid(filter, reason string, err error) error {
	return &FilterError{Filter: filter, Reason: reason, Err: err}
}

// MatchOptions carries request-wide settings that affect evaluation.
type MatchOptions struct {
	CaseSensitive bool
}

type need uint8

const (
	needTags need = 1 << iota
	needComment
	needMIME
	needCreated
)

// Predicate is a single filter criterion. The set of implementations is
// closed: NameFilter, ExtensionFilter, SizeFilter, DateFilter, TagFilter,
// CommentFilter and KindFilter.
type Predicate interface {
	Match(m *Metadata, opts MatchOptions) bool
	String() string
	needs() need
}

// Filters is a conjunction of predicates. An empty set matches every
// entry. Predicates that only look at the stat data run before those
// that read xattrs or file content.
type Filters []Predicate

func (fs Filters) Match(m *Metadata, opts MatchOptions) bool {
	for _, f := range fs {
		if f.needs() == 0 && !f.Match(m, opts) {
			return false
		}
	}
	for _, f := range fs {
		if f.needs() != 0 && !f.Match(m, opts) {
			return false
		}
	}
	return true
}

func (fs Filters) needs() need {
	var n need
	for _, f := range fs {
		n |= f.needs()
	}
	return n
}

func (fs Filters) Strings() []string {
	return lo.Map(fs, func(f Predicate, _ int) string { return f.String() })
}

// Name

type NameMode int

const (
	NameContains NameMode = iota
	NameNotContains
	NameStartsWith
	NameEndsWith
	NameEquals
	NameRegex
	NameGlob
)

var nameModes = map[NameMode]string{
	NameContains:    "contains",
	NameNotContains: "not-contains",
	NameStartsWith:  "starts-with",
	NameEndsWith:    "ends-with",
	NameEquals:      "equals",
	NameRegex:       "regex",
	NameGlob:        "glob",
}

func (m NameMode) String() string { return modeName(nameModes, m) }

func ParseNameMode(s string) (NameMode, error) { return parseMode("name", nameModes, s) }

type NameFilter struct {
	Mode  NameMode
	Value string

	re     *regexp.Regexp
	reFold *regexp.Regexp
	g      glob.Glob
	gFold  glob.Glob
}

func NewNameFilter(mode NameMode, value string) (NameFilter, error) {
	f := NameFilter{Mode: mode, Value: value}
	switch mode {
	case NameContains, NameNotContains, NameStartsWith, NameEndsWith, NameEquals:
	case NameRegex:
		re, err := regexp.Compile(value)
		if err != nil {
			return f, invalid("name", "bad regular expression", err)
		}
		f.re = re
		f.reFold = regexp.MustCompile("(?i)" + value)
	case NameGlob:
		g, err := glob.Compile(nfc(value))
		if err != nil {
			return f, invalid("name", "bad glob pattern", err)
		}
		f.g = g
		f.gFold = glob.MustCompile(normalize(value, false))
	default:
		return f, invalid("name", fmt.Sprintf("unknown mode %d", mode), nil)
	}
	return f, nil
}

func nfc(s string) string { return normalize(s, true) }

func (f NameFilter) Match(m *Metadata, opts MatchOptions) bool {
	switch f.Mode {
	case NameRegex:
		if opts.CaseSensitive {
			return f.re.MatchString(m.Name)
		}
		return f.reFold.MatchString(m.Name)
	case NameGlob:
		if opts.CaseSensitive {
			return f.g.Match(nfc(m.Name))
		}
		return f.gFold.Match(normalize(m.Name, false))
	}

	name := normalize(m.Name, opts.CaseSensitive)
	value := normalize(f.Value, opts.CaseSensitive)
	switch f.Mode {
	case NameContains:
		return strings.Contains(name, value)
	case NameNotContains:
		return !strings.Contains(name, value)
	case NameStartsWith:
		return strings.HasPrefix(name, value)
	case NameEndsWith:
		return strings.HasSuffix(name, value)
	case NameEquals:
		return name == value
	}
	return false
}

func (f NameFilter) String() string { return fmt.Sprintf("Name %s: %s", f.Mode, f.Value) }

func (NameFilter) needs() need { return 0 }

// Extension

type ExtensionMode int

const (
	ExtensionIncludes ExtensionMode = iota
	ExtensionExcludes
)

var extensionModes = map[ExtensionMode]string{
	ExtensionIncludes: "includes",
	ExtensionExcludes: "excludes",
}

func (m ExtensionMode) String() string { return modeName(extensionModes, m) }

type ExtensionFilter struct {
	Mode       ExtensionMode
	Extensions []string
}

// NewExtensionFilter builds an extension filter. Leading dots are stripped
// and extensions are always compared case-insensitively.
func NewExtensionFilter(mode ExtensionMode, exts ...string) (ExtensionFilter, error) {
	if _, ok := extensionModes[mode]; !ok {
		return ExtensionFilter{}, invalid("extension", fmt.Sprintf("unknown mode %d", mode), nil)
	}
	trimmed := lo.Map(exts, func(e string, _ int) string {
		return strings.TrimLeft(strings.TrimSpace(e), ".")
	})
	set := lo.Uniq(foldAll(trimmed))
	if len(set) == 0 {
		return ExtensionFilter{}, invalid("extension", "at least one extension is required", nil)
	}
	return ExtensionFilter{Mode: mode, Extensions: set}, nil
}

func (f ExtensionFilter) Match(m *Metadata, _ MatchOptions) bool {
	in := lo.Contains(f.Extensions, normalize(m.Ext, false))
	if f.Mode == ExtensionExcludes {
		return !in
	}
	return in
}

func (f ExtensionFilter) String() string {
	return fmt.Sprintf("Extension %s: %s", f.Mode, strings.Join(f.Extensions, ", "))
}

func (ExtensionFilter) needs() need { return 0 }

// Size

type SizeMode int

const (
	SizeGreaterThan SizeMode = iota
	SizeLessThan
	SizeBetween
	SizeEquals
)

var sizeModes = map[SizeMode]string{
	SizeGreaterThan: "greater-than",
	SizeLessThan:    "less-than",
	SizeBetween:     "between",
	SizeEquals:      "equals",
}

func (m SizeMode) String() string { return modeName(sizeModes, m) }

// SizeFilter compares the entry size in bytes. Directories have size 0.
// Between is inclusive at both ends; GreaterThan and LessThan are strict.
type SizeFilter struct {
	Mode SizeMode
	Min  int64
	Max  int64
}

// NewSizeFilter builds a size filter. For modes other than SizeBetween
// only value is used.
func NewSizeFilter(mode SizeMode, value, upper int64) (SizeFilter, error) {
	if value < 0 || upper < 0 {
		return SizeFilter{}, invalid("size", "sizes must not be negative", nil)
	}
	switch mode {
	case SizeGreaterThan, SizeLessThan, SizeEquals:
		return SizeFilter{Mode: mode, Min: value}, nil
	case SizeBetween:
		if upper < value {
			return SizeFilter{}, invalid("size", "upper bound is below lower bound", nil)
		}
		return SizeFilter{Mode: mode, Min: value, Max: upper}, nil
	}
	return SizeFilter{}, invalid("size", fmt.Sprintf("unknown mode %d", mode), nil)
}

func (f SizeFilter) Match(m *Metadata, _ MatchOptions) bool {
	switch f.Mode {
	case SizeGreaterThan:
		return m.Size > f.Min
	case SizeLessThan:
		return m.Size < f.Min
	case SizeBetween:
		return m.Size >= f.Min && m.Size <= f.Max
	case SizeEquals:
		return m.Size == f.Min
	}
	return false
}

func (f SizeFilter) String() string {
	if f.Mode == SizeBetween {
		return fmt.Sprintf("Size between: %s and %s", humanize.Bytes(uint64(f.Min)), humanize.Bytes(uint64(f.Max)))
	}
	return fmt.Sprintf("Size %s: %s", f.Mode, humanize.Bytes(uint64(f.Min)))
}

func (SizeFilter) needs() need { return 0 }

// ParseSize parses human readable sizes such as "10MB" or "1.5 GiB".
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, invalid("size", "empty size", nil)
	}
	if strings.Contains(strings.ToLower(s), "i") {
		n, err := units.RAMInBytes(s)
		if err != nil {
			return 0, invalid("size", "bad size", err)
		}
		return n, nil
	}
	n, err := units.FromHumanSize(s)
	if err != nil {
		return 0, invalid("size", "bad size", err)
	}
	return n, nil
}

// Date

type DateField int

const (
	DateModified DateField = iota
	DateCreated
)

func (d DateField) String() string {
	if d == DateCreated {
		return "created"
	}
	return "modified"
}

type DateMode int

const (
	DateAfter DateMode = iota
	DateBefore
	DateBetween
)

var dateModes = map[DateMode]string{
	DateAfter:   "after",
	DateBefore:  "before",
	DateBetween: "between",
}

func (m DateMode) String() string { return modeName(dateModes, m) }

// DateFilter compares the creation or modification time. Between is
// inclusive at both ends; After and Before are strict. Entries whose
// creation time is unknown never match a creation-time filter.
type DateFilter struct {
	Field DateField
	Mode  DateMode
	Start time.Time
	End   time.Time
}

// NewDateFilter builds a date filter. For DateAfter and DateBefore only
// start is used.
func NewDateFilter(field DateField, mode DateMode, start, end time.Time) (DateFilter, error) {
	if field != DateModified && field != DateCreated {
		return DateFilter{}, invalid("date", fmt.Sprintf("unknown field %d", field), nil)
	}
	switch mode {
	case DateAfter, DateBefore:
		return DateFilter{Field: field, Mode: mode, Start: start}, nil
	case DateBetween:
		if end.Before(start) {
			return DateFilter{}, invalid("date", "end is before start", nil)
		}
		return DateFilter{Field: field, Mode: mode, Start: start, End: end}, nil
	}
	return DateFilter{}, invalid("date", fmt.Sprintf("unknown mode %d", mode), nil)
}

func (f DateFilter) Match(m *Metadata, _ MatchOptions) bool {
	t := m.ModTime
	if f.Field == DateCreated {
		if !m.HasCreatedAt {
			return false
		}
		t = m.CreatedAt
	}
	switch f.Mode {
	case DateAfter:
		return t.After(f.Start)
	case DateBefore:
		return t.Before(f.Start)
	case DateBetween:
		return !t.Before(f.Start) && !t.After(f.End)
	}
	return false
}

func (f DateFilter) String() string {
	const layout = "2006-01-02 15:04"
	if f.Mode == DateBetween {
		return fmt.Sprintf("Date %s between: %s and %s", f.Field, f.Start.Format(layout), f.End.Format(layout))
	}
	return fmt.Sprintf("Date %s %s: %s", f.Field, f.Mode, f.Start.Format(layout))
}

func (f DateFilter) needs() need {
	if f.Field == DateCreated {
		return needCreated
	}
	return 0
}

// Tag

type TagMode int

const (
	TagHas TagMode = iota
	TagNotHas
	TagHasAny
	TagHasAll
)

var tagModes = map[TagMode]string{
	TagHas:    "has",
	TagNotHas: "not-has",
	TagHasAny: "has-any",
	TagHasAll: "has-all",
}

func (m TagMode) String() string { return modeName(tagModes, m) }

// TagFilter matches entry tags case-insensitively.
type TagFilter struct {
	Mode TagMode
	Tags []string
}

func NewTagFilter(mode TagMode, tags ...string) (TagFilter, error) {
	set := lo.Uniq(foldAll(tags))
	switch mode {
	case TagHas, TagNotHas:
		if len(set) != 1 {
			return TagFilter{}, invalid("tag", "exactly one tag is required", nil)
		}
	case TagHasAny, TagHasAll:
		if len(set) == 0 {
			return TagFilter{}, invalid("tag", "at least one tag is required", nil)
		}
	default:
		return TagFilter{}, invalid("tag", fmt.Sprintf("unknown mode %d", mode), nil)
	}
	return TagFilter{Mode: mode, Tags: set}, nil
}

func (f TagFilter) Match(m *Metadata, _ MatchOptions) bool {
	tags := foldAll(m.Tags)
	switch f.Mode {
	case TagHas:
		return lo.Contains(tags, f.Tags[0])
	case TagNotHas:
		return !lo.Contains(tags, f.Tags[0])
	case TagHasAny:
		return lo.ContainsBy(f.Tags, func(t string) bool { return lo.Contains(tags, t) })
	case TagHasAll:
		return lo.Every(tags, f.Tags)
	}
	return false
}

func (f TagFilter) String() string {
	return fmt.Sprintf("Tag %s: %s", f.Mode, strings.Join(f.Tags, ", "))
}

func (TagFilter) needs() need { return needTags }

// Comment

type CommentMode int

const (
	CommentContains CommentMode = iota
	CommentNotContains
	CommentEquals
	CommentIsEmpty
)

var commentModes = map[CommentMode]string{
	CommentContains:    "contains",
	CommentNotContains: "not-contains",
	CommentEquals:      "equals",
	CommentIsEmpty:     "is-empty",
}

func (m CommentMode) String() string { return modeName(commentModes, m) }

func ParseCommentMode(s string) (CommentMode, error) { return parseMode("comment", commentModes, s) }

// CommentFilter matches the free-text comment attached to an entry.
// CommentIsEmpty ignores Value.
type CommentFilter struct {
	Mode  CommentMode
	Value string
}

func NewCommentFilter(mode CommentMode, value string) (CommentFilter, error) {
	if _, ok := commentModes[mode]; !ok {
		return CommentFilter{}, invalid("comment", fmt.Sprintf("unknown mode %d", mode), nil)
	}
	if mode == CommentIsEmpty {
		value = ""
	}
	return CommentFilter{Mode: mode, Value: value}, nil
}

func (f CommentFilter) Match(m *Metadata, opts MatchOptions) bool {
	if f.Mode == CommentIsEmpty {
		return strings.TrimSpace(m.Comment) == ""
	}
	comment := normalize(m.Comment, opts.CaseSensitive)
	value := normalize(f.Value, opts.CaseSensitive)
	switch f.Mode {
	case CommentContains:
		return strings.Contains(comment, value)
	case CommentNotContains:
		return !strings.Contains(comment, value)
	case CommentEquals:
		return comment == value
	}
	return false
}

func (f CommentFilter) String() string {
	if f.Mode == CommentIsEmpty {
		return "Comment is empty"
	}
	return fmt.Sprintf("Comment %s: %s", f.Mode, f.Value)
}

func (CommentFilter) needs() need { return needComment }

// Kind

type KindFilter struct {
	Kind Kind
}

func NewKindFilter(k Kind) (KindFilter, error) {
	if _, ok := kindNames[k]; !ok {
		return KindFilter{}, invalid("kind", fmt.Sprintf("unknown kind %d", k), nil)
	}
	return KindFilter{Kind: k}, nil
}

func (f KindFilter) Match(m *Metadata, _ MatchOptions) bool {
	switch f.Kind {
	case KindFile:
		return !m.IsDir && !m.IsPackage
	case KindFolder:
		return m.IsDir && !m.IsPackage
	case KindPackage:
		return m.IsPackage
	case KindAlias:
		return m.IsSymlink
	default:
		return !m.IsDir && mimeMatches(f.Kind, m.mimeType())
	}
}

func (f KindFilter) String() string { return "Kind: " + f.Kind.String() }

func (f KindFilter) needs() need {
	if f.Kind.needsMIME() {
		return needMIME
	}
	return 0
}

func modeName[M ~int](names map[M]string, m M) string {
	if name, ok := names[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

func parseMode[M ~int](filter string, names map[M]string, s string) (M, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m, name := range names {
		if name == s {
			return m, nil
		}
	}
	var zero M
	return zero, invalid(filter, fmt.Sprintf("unknown mode %q", s), nil)
}

func extension(name string) string {
	return strings.TrimPrefix(filepath.Ext(name), ".")
}
