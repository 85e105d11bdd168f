// Package orphan finds vault images no document references. An image counts
// as referenced when at least one indexed document of any kind holds a
// structural embed resolving to it; everything else is orphaned.
package orphan

import (
	"fmt"

	"github.com/starford/pictor/internal/models"
)

// RefIndex answers reverse-reference lookups for the scan.
type RefIndex interface {
	ReferencingDocuments(path string) ([]string, error)
}

// Image is one orphaned file. Selected is always false on emit; trashing is
// an explicit user action over a chosen subset.
type Image struct {
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Selected bool   `json:"selected"`
}

// Report summarizes one scan.
type Report struct {
	Orphaned        []Image `json:"orphaned"`
	TotalCount      int     `json:"total_count"`
	ReferencedCount int     `json:"referenced_count"`
	OrphanedBytes   int64   `json:"orphaned_bytes"`
}

// Scan checks every image against the reference index. The scan is linear
// over images; a single referencing document of any kind keeps an image out
// of the report.
func Scan(images []models.FileInfo, idx RefIndex) (*Report, error) {
	rep := &Report{Orphaned: []Image{}, TotalCount: len(images)}
	for _, img := range images {
		refs, err := idx.ReferencingDocuments(img.Path)
		if err != nil {
			return nil, fmt.Errorf("orphan: lookup %s: %w", img.Path, err)
		}
		if len(refs) > 0 {
			rep.ReferencedCount++
			continue
		}
		rep.Orphaned = append(rep.Orphaned, Image{Path: img.Path, Size: img.Size})
		rep.OrphanedBytes += img.Size
	}
	return rep, nil
}
