// Package xattr reads user tags and comments stored in extended attributes.
//
// Tags are kept as a comma separated list in "user.xdg.tags" and comments
// in "user.xdg.comment", following the freedesktop.org shared metadata
// convention understood by file managers such as Dolphin and Nautilus.
package xattr

import (
	"strings"

	"github.com/samber/lo"
)

const (
	DefaultTagsAttr    = "user.xdg.tags"
	DefaultCommentAttr = "user.xdg.comment"
)

// Provider implements search.MetadataProvider on top of extended attributes.
type Provider struct {
	TagsAttr    string
	CommentAttr string
}

func New() *Provider {
	return &Provider{
		TagsAttr:    DefaultTagsAttr,
		CommentAttr: DefaultCommentAttr,
	}
}

func (p *Provider) Tags(path string) []string {
	raw, ok := get(path, p.TagsAttr)
	if !ok {
		return nil
	}
	return ParseTags(raw)
}

func (p *Provider) Comment(path string) string {
	raw, ok := get(path, p.CommentAttr)
	if !ok {
		return ""
	}
	return strings.TrimRight(raw, "\x00")
}

// SetTags stores tags on path, replacing any existing ones.
func (p *Provider) SetTags(path string, tags ...string) error {
	return set(path, p.TagsAttr, strings.Join(tags, ","))
}

func (p *Provider) SetComment(path, comment string) error {
	return set(path, p.CommentAttr, comment)
}

// ParseTags splits a stored tag list, dropping blanks and duplicates.
func ParseTags(raw string) []string {
	raw = strings.TrimRight(raw, "\x00")
	tags := lo.FilterMap(strings.Split(raw, ","), func(t string, _ int) (string, bool) {
		t = strings.TrimSpace(t)
		return t, t != ""
	})
	return lo.Uniq(tags)
}
