package index

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	gmparser "github.com/yuin/goldmark/parser"
	gmtext "github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/starford/pictor/internal/imagelink"
	"github.com/starford/pictor/internal/models"
)

// ExtractRefs returns the image refs a document of the given kind holds.
// Extraction never fails: malformed content yields no refs.
func ExtractRefs(kind models.Kind, data []byte) []Ref {
	switch kind {
	case models.KindCanvas:
		return canvasRefs(data)
	case models.KindNote, models.KindDrawing:
		return markdownRefs(data)
	}
	return nil
}

// markdownRefs collects embed and inline image targets. The imagelink
// grammars cover the wiki forms; a goldmark AST pass picks up CommonMark
// shapes the inline regex misses (reference-style definitions, titled or
// angle-bracketed destinations). External URLs are not vault refs.
func markdownRefs(data []byte) []Ref {
	text := string(data)
	seen := make(map[string]struct{})
	var out []Ref
	add := func(raw, kind string) {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.Contains(raw, "://") {
			return
		}
		if _, dup := seen[raw]; dup {
			return
		}
		seen[raw] = struct{}{}
		out = append(out, Ref{Raw: raw, Kind: kind})
	}

	for _, l := range imagelink.ParseAll(text) {
		add(l.FilePath, string(l.Kind))
	}
	for _, l := range imagelink.ParseShorthand(text) {
		add(l.FilePath, string(imagelink.KindEmbed))
	}

	md := goldmark.New()
	ctx := gmparser.NewContext()
	root := md.Parser().Parse(gmtext.NewReader(data), gmparser.WithContext(ctx))
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if img, ok := n.(*gmast.Image); ok {
			if dest := string(img.Destination); imagelink.HasImageExt(dest) {
				add(dest, string(imagelink.KindInline))
			}
		}
		return gmast.WalkContinue, nil
	})
	// Reference definitions live in the parse context, not the AST.
	for _, ref := range ctx.References() {
		if dest := string(ref.Destination()); imagelink.HasImageExt(dest) {
			add(dest, string(imagelink.KindInline))
		}
	}
	return out
}

// canvasNode is the slice of a canvas node the index cares about.
type canvasNode struct {
	Type string `json:"type"`
	File string `json:"file"`
}

// canvasRefs collects image file nodes from canvas JSON.
func canvasRefs(data []byte) []Ref {
	var doc struct {
		Nodes []canvasNode `json:"nodes"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []Ref
	for _, n := range doc.Nodes {
		if n.Type != "file" || !imagelink.HasImageExt(n.File) {
			continue
		}
		if _, dup := seen[n.File]; dup {
			continue
		}
		seen[n.File] = struct{}{}
		out = append(out, Ref{Raw: n.File, Kind: "canvas"})
	}
	return out
}

// IsDrawing reports whether markdown data carries the embedded-drawing
// frontmatter flag. Files named *.excalidraw.md are classified by path
// before content is read; this catches renamed drawings.
func IsDrawing(data []byte) bool {
	fm := frontmatter(data)
	if fm == nil {
		return false
	}
	_, ok := fm["excalidraw-plugin"]
	return ok
}

// frontmatter parses the YAML block between leading --- delimiters.
// Missing or invalid frontmatter yields nil.
func frontmatter(data []byte) map[string]interface{} {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil
	}
	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil
	}
	var fm map[string]interface{}
	if err := yaml.Unmarshal(rest[:idx], &fm); err != nil {
		return nil
	}
	return fm
}
