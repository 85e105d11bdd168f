// Package linktrack maintains per-document snapshots of referenced image
// paths and reports structural link removals between successive snapshots.
// Only the path component of a link feeds the snapshot, so caption and size
// edits to an existing link are never reported as removals.
package linktrack

import (
	"net/url"
	"sort"
	"sync"

	"github.com/starford/pictor/internal/imagelink"
)

// Tracker holds the per-document reference sets. It is owned state, not a
// package global, so separate instances stay independent and testable. Safe
// for concurrent use.
type Tracker struct {
	mu   sync.Mutex
	docs map[string]map[string]struct{}
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{docs: make(map[string]map[string]struct{})}
}

// ExtractTargets collects the path component of every image link in text:
// embed targets as written, inline targets URL-decoded, both filtered to
// recognized image extensions. Duplicate targets collapse.
func ExtractTargets(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, l := range imagelink.ParseAll(text) {
		target := l.FilePath
		if l.Kind == imagelink.KindInline {
			if dec, err := url.PathUnescape(target); err == nil {
				target = dec
			}
			if !imagelink.HasImageExt(target) {
				continue
			}
		}
		out[target] = struct{}{}
	}
	return out
}

// Snapshot records the current reference set of docPath, overwriting any
// previous snapshot.
func (t *Tracker) Snapshot(docPath, text string) {
	targets := ExtractTargets(text)
	t.mu.Lock()
	t.docs[docPath] = targets
	t.mu.Unlock()
}

// DiffAndUpdate compares newText against the stored snapshot of docPath and
// returns the targets that disappeared, sorted ascending. The stored set is
// replaced unconditionally. With no prior snapshot the first observation
// establishes the baseline and nothing is reported.
func (t *Tracker) DiffAndUpdate(docPath, newText string) []string {
	newSet := ExtractTargets(newText)

	t.mu.Lock()
	oldSet, seen := t.docs[docPath]
	t.docs[docPath] = newSet
	t.mu.Unlock()

	if !seen {
		return nil
	}

	var removed []string
	for target := range oldSet {
		if _, ok := newSet[target]; !ok {
			removed = append(removed, target)
		}
	}
	sort.Strings(removed)
	return removed
}

// Clear drops the snapshot for docPath, typically when the document closes
// or is deleted.
func (t *Tracker) Clear(docPath string) {
	t.mu.Lock()
	delete(t.docs, docPath)
	t.mu.Unlock()
}

// Targets returns a sorted copy of the snapshot for docPath, or nil when the
// document is not tracked.
func (t *Tracker) Targets(docPath string) []string {
	t.mu.Lock()
	set, ok := t.docs[docPath]
	t.mu.Unlock()
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for target := range set {
		out = append(out, target)
	}
	sort.Strings(out)
	return out
}
