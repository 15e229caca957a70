package search

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func meta(name string) *Metadata {
	return &Metadata{Path: "/x/" + name, Name: name, Ext: extension(name)}
}

func mustName(t *testing.T, mode NameMode, value string) NameFilter {
	t.Helper()
	f, err := NewNameFilter(mode, value)
	require.NoError(t, err)
	return f
}

func TestNameFilter(t *testing.T) {
	insensitive := MatchOptions{}
	sensitive := MatchOptions{CaseSensitive: true}

	tests := []struct {
		name  string
		mode  NameMode
		value string
		file  string
		opts  MatchOptions
		want  bool
	}{
		{"contains", NameContains, "port", "Report.pdf", insensitive, true},
		{"contains case sensitive", NameContains, "REPORT", "Report.pdf", sensitive, false},
		{"contains folded", NameContains, "REPORT", "Report.pdf", insensitive, true},
		{"unicode folding", NameEquals, "STRASSE", "straße", insensitive, true},
		{"not contains", NameNotContains, "tmp", "notes.txt", insensitive, true},
		{"starts with", NameStartsWith, "no", "Notes.txt", insensitive, true},
		{"ends with", NameEndsWith, ".TXT", "notes.txt", insensitive, true},
		{"ends with sensitive", NameEndsWith, ".TXT", "notes.txt", sensitive, false},
		{"equals", NameEquals, "a", "a", sensitive, true},
		{"regex", NameRegex, `^IMG_\d+\.jpe?g$`, "img_0001.jpg", insensitive, true},
		{"regex sensitive", NameRegex, `^IMG_\d+\.jpe?g$`, "img_0001.jpg", sensitive, false},
		{"glob", NameGlob, "*.log", "APP.LOG", insensitive, true},
		{"glob sensitive", NameGlob, "*.log", "APP.LOG", sensitive, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := mustName(t, tt.mode, tt.value)
			assert.Equal(t, tt.want, f.Match(meta(tt.file), tt.opts))
		})
	}
}

func TestConstructorsRejectInvalidArguments(t *testing.T) {
	now := time.Now()
	errs := map[string]error{}

	_, errs["bad regex"] = NewNameFilter(NameRegex, "(")
	_, errs["bad glob"] = NewNameFilter(NameGlob, "[")
	_, errs["unknown name mode"] = NewNameFilter(NameMode(99), "x")
	_, errs["no extensions"] = NewExtensionFilter(ExtensionIncludes, "", ".")
	_, errs["size between inverted"] = NewSizeFilter(SizeBetween, 10, 5)
	_, errs["negative size"] = NewSizeFilter(SizeGreaterThan, -1, 0)
	_, errs["date between inverted"] = NewDateFilter(DateModified, DateBetween, now, now.Add(-time.Hour))
	_, errs["has tag needs one"] = NewTagFilter(TagHas, "a", "b")
	_, errs["has all needs some"] = NewTagFilter(TagHasAll)
	_, errs["unknown kind"] = NewKindFilter(Kind(42))

	for name, err := range errs {
		t.Run(name, func(t *testing.T) {
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidFilter), "%v should wrap ErrInvalidFilter", err)
			var fe *FilterError
			assert.ErrorAs(t, err, &fe)
		})
	}
}

func TestExtensionFilter(t *testing.T) {
	inc, err := NewExtensionFilter(ExtensionIncludes, ".TXT", "md")
	require.NoError(t, err)
	exc, err := NewExtensionFilter(ExtensionExcludes, "txt")
	require.NoError(t, err)

	assert.True(t, inc.Match(meta("a.Txt"), MatchOptions{CaseSensitive: true}))
	assert.True(t, inc.Match(meta("README.md"), MatchOptions{}))
	assert.False(t, inc.Match(meta("Makefile"), MatchOptions{}))
	assert.False(t, exc.Match(meta("a.txt"), MatchOptions{}))
	assert.True(t, exc.Match(meta("a.go"), MatchOptions{}))
}

func TestSizeFilter(t *testing.T) {
	between, err := NewSizeFilter(SizeBetween, 10, 20)
	require.NoError(t, err)
	gt, err := NewSizeFilter(SizeGreaterThan, 10, 0)
	require.NoError(t, err)
	lt, err := NewSizeFilter(SizeLessThan, 10, 0)
	require.NoError(t, err)

	for size, want := range map[int64][3]bool{
		9:  {false, false, true},
		10: {true, false, false},
		15: {true, true, false},
		20: {true, true, false},
		21: {false, true, false},
	} {
		m := &Metadata{Size: size}
		assert.Equal(t, want[0], between.Match(m, MatchOptions{}), "between size=%d", size)
		assert.Equal(t, want[1], gt.Match(m, MatchOptions{}), "gt size=%d", size)
		assert.Equal(t, want[2], lt.Match(m, MatchOptions{}), "lt size=%d", size)
	}
}

func TestParseSize(t *testing.T) {
	n, err := ParseSize("10MB")
	require.NoError(t, err)
	assert.Equal(t, int64(10_000_000), n)

	n, err = ParseSize("1KiB")
	require.NoError(t, err)
	assert.Equal(t, int64(1024), n)

	_, err = ParseSize("lots")
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestDateFilter(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	between, err := NewDateFilter(DateModified, DateBetween, start, end)
	require.NoError(t, err)
	after, err := NewDateFilter(DateModified, DateAfter, start, time.Time{})
	require.NoError(t, err)
	created, err := NewDateFilter(DateCreated, DateBefore, end, time.Time{})
	require.NoError(t, err)

	assert.True(t, between.Match(&Metadata{ModTime: start}, MatchOptions{}))
	assert.True(t, between.Match(&Metadata{ModTime: end}, MatchOptions{}))
	assert.False(t, between.Match(&Metadata{ModTime: end.Add(time.Second)}, MatchOptions{}))
	assert.False(t, after.Match(&Metadata{ModTime: start}, MatchOptions{}))
	assert.True(t, after.Match(&Metadata{ModTime: start.Add(time.Nanosecond)}, MatchOptions{}))

	assert.False(t, created.Match(&Metadata{}, MatchOptions{}), "unknown creation time never matches")
	assert.True(t, created.Match(&Metadata{CreatedAt: start, HasCreatedAt: true}, MatchOptions{}))
	assert.Equal(t, needCreated, created.needs())
}

func TestTagFilter(t *testing.T) {
	has, err := NewTagFilter(TagHas, "Red")
	require.NoError(t, err)
	notHas, err := NewTagFilter(TagNotHas, "red")
	require.NoError(t, err)
	anyOf, err := NewTagFilter(TagHasAny, "blue", "green")
	require.NoError(t, err)
	allOf, err := NewTagFilter(TagHasAll, "red", "BLUE")
	require.NoError(t, err)

	tagged := &Metadata{Tags: []string{"RED", "blue"}}
	untagged := &Metadata{}

	assert.True(t, has.Match(tagged, MatchOptions{CaseSensitive: true}))
	assert.False(t, has.Match(untagged, MatchOptions{}))
	assert.False(t, notHas.Match(tagged, MatchOptions{}))
	assert.True(t, notHas.Match(untagged, MatchOptions{}))
	assert.True(t, anyOf.Match(tagged, MatchOptions{}))
	assert.True(t, allOf.Match(tagged, MatchOptions{}))
	assert.False(t, allOf.Match(&Metadata{Tags: []string{"red"}}, MatchOptions{}))
}

func TestCommentFilter(t *testing.T) {
	contains, err := NewCommentFilter(CommentContains, "invoice")
	require.NoError(t, err)
	empty, err := NewCommentFilter(CommentIsEmpty, "ignored")
	require.NoError(t, err)
	equals, err := NewCommentFilter(CommentEquals, "Keep")
	require.NoError(t, err)

	assert.True(t, contains.Match(&Metadata{Comment: "March INVOICE"}, MatchOptions{}))
	assert.False(t, contains.Match(&Metadata{Comment: "March INVOICE"}, MatchOptions{CaseSensitive: true}))
	assert.False(t, contains.Match(&Metadata{}, MatchOptions{}))
	assert.True(t, empty.Match(&Metadata{Comment: "  "}, MatchOptions{}))
	assert.False(t, empty.Match(&Metadata{Comment: "x"}, MatchOptions{}))
	assert.True(t, equals.Match(&Metadata{Comment: "keep"}, MatchOptions{}))
}

func TestKindFilter(t *testing.T) {
	tests := []struct {
		kind Kind
		m    Metadata
		want bool
	}{
		{KindFile, Metadata{}, true},
		{KindFile, Metadata{IsDir: true}, false},
		{KindFolder, Metadata{IsDir: true}, true},
		{KindFolder, Metadata{IsDir: true, IsPackage: true}, false},
		{KindPackage, Metadata{IsDir: true, IsPackage: true}, true},
		{KindAlias, Metadata{IsSymlink: true}, true},
		{KindImage, Metadata{MIME: "image/png"}, true},
		{KindImage, Metadata{MIME: "text/plain; charset=utf-8"}, false},
		{KindText, Metadata{MIME: "text/plain; charset=utf-8"}, true},
		{KindText, Metadata{MIME: "application/json"}, true},
		{KindArchive, Metadata{MIME: "application/zip"}, true},
		{KindDocument, Metadata{MIME: "application/pdf"}, true},
		{KindVideo, Metadata{}, false},
	}
	for _, tt := range tests {
		f, err := NewKindFilter(tt.kind)
		require.NoError(t, err)
		m := tt.m
		assert.Equal(t, tt.want, f.Match(&m, MatchOptions{}), "kind=%s meta=%+v", tt.kind, tt.m)
	}
}

func TestFiltersEmptyMatchesEverything(t *testing.T) {
	var fs Filters
	assert.True(t, fs.Match(meta("anything"), MatchOptions{}))
	assert.Equal(t, need(0), fs.needs())
}

func TestFiltersSniffContentLast(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n"), 0o644))

	image, err := NewKindFilter(KindImage)
	require.NoError(t, err)
	jpg, err := NewExtensionFilter(ExtensionIncludes, "jpg")
	require.NoError(t, err)
	png, err := NewExtensionFilter(ExtensionIncludes, "png")
	require.NoError(t, err)

	m := &Metadata{Path: path, Name: "photo.png", Ext: "png", mimePending: true}
	assert.False(t, Filters{image, jpg}.Match(m, MatchOptions{}))
	assert.True(t, m.mimePending, "content read although the extension already rejected the entry")
	assert.Empty(t, m.MIME)

	assert.True(t, Filters{image, png}.Match(m, MatchOptions{}))
	assert.False(t, m.mimePending)
	assert.Equal(t, "image/png", m.MIME)
}

// Every predicate is total, and negated modes are exact complements.
func TestPredicateProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		name := rapid.String().Draw(t, "name")
		value := rapid.String().Draw(t, "value")
		comment := rapid.String().Draw(t, "comment")
		tags := rapid.SliceOf(rapid.StringMatching(`[a-zA-Z]{1,5}`)).Draw(t, "tags")
		tag := rapid.StringMatching(`[a-zA-Z]{1,5}`).Draw(t, "tag")
		opts := MatchOptions{CaseSensitive: rapid.Bool().Draw(t, "sensitive")}
		m := &Metadata{
			Name:    name,
			Ext:     extension(name),
			Size:    rapid.Int64Min(0).Draw(t, "size"),
			ModTime: time.Unix(rapid.Int64Range(0, 1<<32).Draw(t, "mtime"), 0),
			Tags:    tags,
			Comment: comment,
		}

		contains, err := NewNameFilter(NameContains, value)
		if err != nil {
			t.Fatal(err)
		}
		notContains, _ := NewNameFilter(NameNotContains, value)
		if contains.Match(m, opts) == notContains.Match(m, opts) {
			t.Fatalf("contains and not-contains agree for name=%q value=%q", name, value)
		}

		has, _ := NewTagFilter(TagHas, tag)
		notHas, _ := NewTagFilter(TagNotHas, tag)
		if has.Match(m, opts) == notHas.Match(m, opts) {
			t.Fatalf("has and not-has agree for tags=%v tag=%q", tags, tag)
		}

		cc, _ := NewCommentFilter(CommentContains, value)
		cn, _ := NewCommentFilter(CommentNotContains, value)
		if cc.Match(m, opts) == cn.Match(m, opts) {
			t.Fatalf("comment contains and not-contains agree")
		}

		lo := rapid.Int64Range(0, 1<<20).Draw(t, "lo")
		hi := lo + rapid.Int64Range(0, 1<<20).Draw(t, "span")
		between, err := NewSizeFilter(SizeBetween, lo, hi)
		if err != nil {
			t.Fatal(err)
		}
		want := m.Size >= lo && m.Size <= hi
		if between.Match(m, opts) != want {
			t.Fatalf("between(%d,%d) on %d = %v", lo, hi, m.Size, !want)
		}
	})
}
