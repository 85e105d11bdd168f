package imagelink

import (
	"path"
	"sort"
	"strings"
)

// Build renders a single image link. For embeds the caption segment is
// emitted only when non-empty; when a size is present without a caption an
// empty pipe segment is inserted so the size always occupies the third
// segment. Inline syntax cannot represent a size, so it is silently dropped.
func Build(filePath, caption, size string, kind Kind) string {
	if kind == KindInline {
		return "![" + caption + "](" + filePath + ")"
	}

	var b strings.Builder
	b.WriteString("![[")
	b.WriteString(filePath)
	if caption != "" {
		b.WriteByte('|')
		b.WriteString(caption)
	}
	if size != "" {
		if caption == "" {
			b.WriteByte('|')
		}
		b.WriteByte('|')
		b.WriteString(size)
	}
	b.WriteString("]]")
	return b.String()
}

// SetCaption replaces the caption of the link referencing target, keeping
// the link's syntax kind and size. Only the located span is rewritten; every
// other byte of text is preserved. When no link references target the input
// is returned unchanged.
func SetCaption(text, target, caption string) string {
	l := FindByTarget(text, target)
	if l == nil {
		return text
	}
	rebuilt := Build(l.FilePath, caption, l.Size, l.Kind)
	if rebuilt == l.FullMatch {
		return text
	}
	return text[:l.Start] + rebuilt + text[l.End:]
}

// RemoveCaption clears the caption of the link referencing target,
// preserving its size. Idempotent: removing a caption that is already absent
// returns the input unchanged.
func RemoveCaption(text, target string) string {
	return SetCaption(text, target, "")
}

// ReplaceTarget repoints every link referencing oldTarget at newPath,
// keeping captions and sizes. Extension-less shorthand embeds matching the
// old stem are rewritten to the full new path. Inline paths have spaces
// percent-escaped so the rebuilt link stays well-formed. Returns the updated
// text and the number of links rewritten.
func ReplaceTarget(text, oldTarget, newPath string) (string, int) {
	want := NormalizeRef(oldTarget)
	stem := strings.TrimSuffix(want, path.Ext(want))

	var hits []Link
	for _, l := range ParseAll(text) {
		if NormalizeRef(l.FilePath) == want {
			hits = append(hits, l)
		}
	}
	for _, l := range ParseShorthand(text) {
		if NormalizeRef(l.FilePath) == stem {
			hits = append(hits, l)
		}
	}
	if len(hits) == 0 {
		return text, 0
	}

	// Splice back to front so earlier offsets stay valid.
	sort.Slice(hits, func(i, j int) bool { return hits[i].Start > hits[j].Start })
	for _, l := range hits {
		target := newPath
		if l.Kind == KindInline {
			target = strings.ReplaceAll(target, " ", "%20")
		}
		text = text[:l.Start] + Build(target, l.Caption, l.Size, l.Kind) + text[l.End:]
	}
	return text, len(hits)
}
