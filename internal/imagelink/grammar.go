package imagelink

import "regexp"

// The embed grammar requires the target to end in a recognized image
// extension, which keeps note and PDF embeds from being parsed as images.
// Captions run to the next pipe or the closing brackets; the third pipe
// segment is a digits-only display width. embedAnyRe drops the extension
// requirement and backs the shorthand lookup in FindByTarget only.
var (
	embedRe    = regexp.MustCompile(`!\[\[([^\[\]|]+\.(?i:png|jpe?g|gif|webp|bmp|svg|avif|tiff?|ico))(?:\|([^\]|]*))?(?:\|(\d+))?\]\]`)
	embedAnyRe = regexp.MustCompile(`!\[\[([^\[\]|]+)(?:\|([^\]|]*))?(?:\|(\d+))?\]\]`)
	inlineRe   = regexp.MustCompile(`!\[([^\]]*)\]\(([^()\s"]+)(?:\s+"[^"]*")?\)`)
)

// group extracts capture group i from a FindAllStringSubmatchIndex row.
func group(text string, m []int, i int) string {
	lo, hi := m[2*i], m[2*i+1]
	if lo < 0 {
		return ""
	}
	return text[lo:hi]
}

func embedLinkAt(text string, m []int) Link {
	return Link{
		FullMatch: text[m[0]:m[1]],
		FilePath:  group(text, m, 1),
		Caption:   group(text, m, 2),
		Size:      group(text, m, 3),
		Kind:      KindEmbed,
		Start:     m[0],
		End:       m[1],
	}
}

func inlineLinkAt(text string, m []int) Link {
	return Link{
		FullMatch: text[m[0]:m[1]],
		FilePath:  group(text, m, 2),
		Caption:   group(text, m, 1),
		Kind:      KindInline,
		Start:     m[0],
		End:       m[1],
	}
}
