// Package imagelink recognizes and rewrites image references embedded in
// document text. Two grammars are supported: the wiki-style embed
// ![[target|caption|size]] and the standard Markdown image ![caption](target).
// Parsing never fails: malformed input simply produces no matches.
package imagelink

import (
	"net/url"
	"path"
	"sort"
	"strings"
)

// Kind distinguishes the two reference syntaxes.
type Kind string

const (
	KindEmbed  Kind = "embed"
	KindInline Kind = "inline"
)

// Link is one image reference located in document text. It is derived fresh
// on every parse and never persisted. The span invariant holds for every
// link: End > Start and text[Start:End] == FullMatch.
type Link struct {
	FullMatch string `json:"full_match"`
	FilePath  string `json:"file_path"`
	Caption   string `json:"caption,omitempty"`
	Size      string `json:"size,omitempty"`
	Kind      Kind   `json:"kind"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
}

// imageExts are the recognized image file extensions, lowercased without dot.
var imageExts = map[string]struct{}{
	"png": {}, "jpg": {}, "jpeg": {}, "gif": {}, "webp": {}, "bmp": {},
	"svg": {}, "avif": {}, "tiff": {}, "tif": {}, "ico": {},
}

// HasImageExt reports whether name ends in a recognized image extension.
func HasImageExt(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
	_, ok := imageExts[ext]
	return ok
}

// ParseAll returns every image link found in text, from both grammars,
// ordered by start offset ascending.
func ParseAll(text string) []Link {
	var links []Link
	for _, m := range embedRe.FindAllStringSubmatchIndex(text, -1) {
		links = append(links, embedLinkAt(text, m))
	}
	for _, m := range inlineRe.FindAllStringSubmatchIndex(text, -1) {
		links = append(links, inlineLinkAt(text, m))
	}
	sort.Slice(links, func(i, j int) bool { return links[i].Start < links[j].Start })
	return links
}

// ParseShorthand returns embed links whose target carries no extension at
// all (the wiki shorthand form ![[image]]). These are matched by base name
// during lookup and are deliberately excluded from ParseAll.
func ParseShorthand(text string) []Link {
	var links []Link
	for _, m := range embedAnyRe.FindAllStringSubmatchIndex(text, -1) {
		l := embedLinkAt(text, m)
		if path.Ext(l.FilePath) != "" {
			continue
		}
		links = append(links, l)
	}
	return links
}

// FindByTarget locates the link referencing target. Both sides are compared
// after URL-decoding, reduction to the final path segment, and lowercasing.
// An exact (with-extension) match always wins; when none exists, embed
// shorthand links are matched by base name without extension. Returns nil
// when no link references the target.
func FindByTarget(text, target string) *Link {
	want := NormalizeRef(target)
	for _, l := range ParseAll(text) {
		if NormalizeRef(l.FilePath) == want {
			hit := l
			return &hit
		}
	}

	stem := strings.TrimSuffix(want, path.Ext(want))
	if stem == "" {
		return nil
	}
	for _, l := range ParseShorthand(text) {
		if NormalizeRef(l.FilePath) == stem {
			hit := l
			return &hit
		}
	}
	return nil
}

// NormalizeRef reduces a reference to its comparable form: URL-decoded,
// final path segment only, lowercased.
func NormalizeRef(ref string) string {
	if dec, err := url.PathUnescape(ref); err == nil {
		ref = dec
	}
	ref = strings.TrimSpace(ref)
	return strings.ToLower(path.Base(ref))
}
