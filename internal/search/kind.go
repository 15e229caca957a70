package search

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Kind classifies an entry for KindFilter.
type Kind int

const (
	KindFile Kind = iota
	KindFolder
	KindPackage
	KindAlias
	KindImage
	KindAudio
	KindVideo
	KindText
	KindArchive
	KindDocument
)

var kindNames = map[Kind]string{
	KindFile:     "file",
	KindFolder:   "folder",
	KindPackage:  "package",
	KindAlias:    "alias",
	KindImage:    "image",
	KindAudio:    "audio",
	KindVideo:    "video",
	KindText:     "text",
	KindArchive:  "archive",
	KindDocument: "document",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind converts a kind name such as "folder" into a Kind.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidFilter, s)
}

func (k Kind) needsMIME() bool {
	switch k {
	case KindImage, KindAudio, KindVideo, KindText, KindArchive, KindDocument:
		return true
	default:
		return false
	}
}

// packageExtensions are directory extensions that are presented as a
// single opaque item by macOS Finder.
var packageExtensions = map[string]struct{}{
	"app": {}, "bundle": {}, "framework": {}, "plugin": {}, "kext": {},
	"xpc": {}, "appex": {}, "prefpane": {}, "qlgenerator": {}, "mdimporter": {},
	"saver": {}, "wdgt": {}, "xcodeproj": {}, "xcworkspace": {},
	"photoslibrary": {}, "lpdf": {}, "rtfd": {},
}

func isPackageName(name string) bool {
	_, ok := packageExtensions[strings.ToLower(extension(name))]
	return ok
}

var archiveTypes = []string{
	"application/zip",
	"application/gzip",
	"application/x-tar",
	"application/x-7z-compressed",
	"application/x-rar-compressed",
	"application/x-bzip2",
	"application/x-xz",
	"application/zstd",
	"application/vnd.rar",
	"application/x-apple-diskimage",
	"application/x-xar",
}

var documentTypes = []string{
	"application/pdf",
	"application/msword",
	"application/rtf",
	"text/rtf",
	"application/epub+zip",
	"application/vnd.ms-excel",
	"application/vnd.ms-powerpoint",
}

var documentPrefixes = []string{
	"application/vnd.openxmlformats-officedocument.",
	"application/vnd.oasis.opendocument.",
}

// detectMIME reports the MIME type of a regular file, or "" when the
// content cannot be read.
func detectMIME(path string) string {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return ""
	}
	return mtype.String()
}

// mimeMatches reports whether mime (or one of its parents in the mimetype
// hierarchy) belongs to the media category of k.
func mimeMatches(k Kind, mime string) bool {
	s := baseMIME(mime)
	if s == "" {
		return false
	}
	if mimeInCategory(k, s) {
		return true
	}
	for m := mimetype.Lookup(s); m != nil; m = m.Parent() {
		if mimeInCategory(k, baseMIME(m.String())) {
			return true
		}
	}
	return false
}

func mimeInCategory(k Kind, s string) bool {
	switch k {
	case KindImage:
		return strings.HasPrefix(s, "image/")
	case KindAudio:
		return strings.HasPrefix(s, "audio/")
	case KindVideo:
		return strings.HasPrefix(s, "video/")
	case KindText:
		return strings.HasPrefix(s, "text/")
	case KindArchive:
		for _, t := range archiveTypes {
			if s == t {
				return true
			}
		}
	case KindDocument:
		for _, t := range documentTypes {
			if s == t {
				return true
			}
		}
		for _, p := range documentPrefixes {
			if strings.HasPrefix(s, p) {
				return true
			}
		}
	}
	return false
}

// baseMIME strips parameters such as "; charset=utf-8".
func baseMIME(s string) string {
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
