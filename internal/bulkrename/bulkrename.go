// Package bulkrename plans and executes batch image renames. Planning is
// pure: it filters candidates, derives proposed names per mode, and never
// touches the filesystem. Execution applies selected items through a Host,
// probing alternative names on collision and recording per-item failures
// instead of aborting the run.
package bulkrename

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/starford/pictor/internal/apperr"
	"github.com/starford/pictor/internal/filename"
)

// Mode selects how proposed names are derived.
type Mode string

const (
	// ModeReplace names every image after its owning note, numbered from 1.
	ModeReplace Mode = "replace"
	// ModePrepend keeps the current name, prefixed with the owning note.
	ModePrepend Mode = "prepend"
	// ModePattern renders a template with {note}, {original} and {n} tokens.
	ModePattern Mode = "pattern"
)

// Filter restricts which images participate in planning.
type Filter string

const (
	FilterAll     Filter = "all"
	FilterGeneric Filter = "generic"
)

// ImageInfo is one scan-time rename candidate. SourceNote is the path of
// the single document referencing the image, empty when the image is
// unreferenced or referenced from several documents.
type ImageInfo struct {
	Path       string `json:"path"`
	SourceNote string `json:"source_note,omitempty"`
	Generic    bool   `json:"generic"`
}

// Item is one proposed rename. CurrentName and NewName are base names
// without extension; the extension is carried by Path and preserved on
// execution. Selected is always false on emit.
type Item struct {
	Path        string `json:"path"`
	CurrentName string `json:"current_name"`
	NewName     string `json:"new_name"`
	Note        string `json:"note"`
	Selected    bool   `json:"selected"`
	Generic     bool   `json:"generic"`
}

// Planner computes rename plans. Aggressive selects the stricter sanitizer
// profile when deriving names from note titles.
type Planner struct {
	Aggressive bool
}

// Plan proposes renames for images. Ownerless images are skipped, replace
// mode drops images already named "{note} {digits}" without counting their
// suffixes, and a proposal equal to the current name is never emitted.
// Counters start at 1 within each plan.
func (p Planner) Plan(images []ImageInfo, mode Mode, filter Filter, pattern string) ([]Item, error) {
	switch mode {
	case ModeReplace, ModePrepend, ModePattern:
	default:
		return nil, fmt.Errorf("bulkrename: %w: mode %q", apperr.ErrInvalidName, mode)
	}
	switch filter {
	case FilterAll, FilterGeneric:
	default:
		return nil, fmt.Errorf("bulkrename: %w: filter %q", apperr.ErrInvalidName, filter)
	}
	if mode == ModePattern && strings.TrimSpace(pattern) == "" {
		return nil, fmt.Errorf("bulkrename: %w: pattern mode requires a template", apperr.ErrInvalidName)
	}

	var candidates []ImageInfo
	for _, img := range images {
		if img.SourceNote == "" {
			continue
		}
		if filter == FilterGeneric && !img.Generic {
			continue
		}
		if mode == ModeReplace && alreadyNamed(stemOf(img.Path), p.noteBase(img.SourceNote)) {
			continue
		}
		candidates = append(candidates, img)
	}

	var items []Item
	counters := make(map[string]int)
	used := make(map[string]struct{})
	for _, img := range candidates {
		cur := stemOf(img.Path)
		note := p.noteBase(img.SourceNote)

		var proposed string
		switch mode {
		case ModeReplace:
			counters[note]++
			proposed = note + " " + strconv.Itoa(counters[note])
		case ModePrepend:
			proposed = uniqueIn(used, note+" - "+cur)
		case ModePattern:
			rendered := strings.ReplaceAll(pattern, "{note}", note)
			rendered = strings.ReplaceAll(rendered, "{original}", cur)
			if strings.Contains(rendered, "{n}") {
				counters[rendered]++
				proposed = strings.ReplaceAll(rendered, "{n}", strconv.Itoa(counters[rendered]))
			} else {
				proposed = uniqueIn(used, rendered)
			}
		}

		used[proposed] = struct{}{}
		if proposed == cur || proposed == "" {
			continue
		}
		items = append(items, Item{
			Path:        img.Path,
			CurrentName: cur,
			NewName:     proposed,
			Note:        img.SourceNote,
			Generic:     img.Generic,
		})
	}
	return items, nil
}

func (p Planner) noteBase(notePath string) string {
	return filename.Sanitize(stemOf(notePath), p.Aggressive)
}

// alreadyNamed reports whether base is exactly "{note} {digits}". The digits
// are not checked for uniqueness or sequence: a loose match is enough to
// presume the image was named by an earlier replace run.
func alreadyNamed(base, note string) bool {
	rest, ok := strings.CutPrefix(base, note+" ")
	if !ok || rest == "" {
		return false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// uniqueIn disambiguates name against already-proposed names by appending
// " {n}" counters starting at 1.
func uniqueIn(used map[string]struct{}, name string) string {
	if _, ok := used[name]; !ok {
		return name
	}
	for n := 1; ; n++ {
		probe := name + " " + strconv.Itoa(n)
		if _, ok := used[probe]; !ok {
			return probe
		}
	}
}

func stemOf(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Host is the filesystem surface Execute needs. Rename implementations may
// carry side effects such as rewriting references in documents.
type Host interface {
	Exists(path string) bool
	Rename(oldPath, newPath string) error
}

// ItemError records one failed rename under the image's original base name.
type ItemError struct {
	Name string
	Err  error
}

// Result aggregates one execution run.
type Result struct {
	Success int
	Failed  int
	Errors  []ItemError
}

// Execute applies the selected items through host. Items whose proposed name
// equals their current name are skipped without counting. A target that
// already exists is disambiguated by probing " {n}" suffixes. Failures are
// recorded per item and never stop the run.
func Execute(host Host, items []Item) Result {
	var res Result
	for _, it := range items {
		if !it.Selected || it.CurrentName == it.NewName {
			continue
		}
		target := siblingPath(it.Path, it.NewName)
		for n := 1; host.Exists(target); n++ {
			target = siblingPath(it.Path, it.NewName+" "+strconv.Itoa(n))
		}
		if err := host.Rename(it.Path, target); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, ItemError{Name: it.CurrentName, Err: err})
			continue
		}
		res.Success++
	}
	return res
}

// siblingPath swaps the base name of p, keeping its directory and extension.
func siblingPath(p, newBase string) string {
	dir := path.Dir(p)
	if dir == "." {
		return newBase + path.Ext(p)
	}
	return dir + "/" + newBase + path.Ext(p)
}
