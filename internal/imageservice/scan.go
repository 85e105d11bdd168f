package imageservice

import (
	"context"
	"time"

	"github.com/starford/pictor/internal/bulkrename"
	"github.com/starford/pictor/internal/filename"
	"github.com/starford/pictor/internal/metrics"
	"github.com/starford/pictor/internal/models"
	"github.com/starford/pictor/internal/orphan"
)

// ImageEntry is one vault image with its scan-time classification.
type ImageEntry struct {
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
	SourceNote string    `json:"source_note,omitempty"`
	Generic    bool      `json:"generic"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ListImages returns every vault image with ownership and name class.
func (s *Service) ListImages(_ context.Context) ([]ImageEntry, error) {
	files, err := s.imageFiles()
	if err != nil {
		return nil, err
	}
	entries := make([]ImageEntry, 0, len(files))
	for _, fi := range files {
		owner, err := s.db.SourceNote(fi.Path)
		if err != nil {
			return nil, err
		}
		entries = append(entries, ImageEntry{
			Path:       fi.Path,
			Size:       fi.Size,
			SourceNote: owner,
			Generic:    filename.IsGeneric(stem(fi.Path)),
			UpdatedAt:  fi.UpdatedAt,
		})
	}
	return entries, nil
}

// BulkPreview plans a batch rename over the whole vault. An empty filter
// falls back to the configured default.
func (s *Service) BulkPreview(ctx context.Context, mode bulkrename.Mode, filter bulkrename.Filter, pattern string) ([]bulkrename.Item, error) {
	if mode == "" {
		mode = bulkrename.ModeReplace
	}
	if filter == "" {
		filter = s.cfg.DefaultFilter
	}
	start := time.Now()
	entries, err := s.ListImages(ctx)
	if err != nil {
		return nil, err
	}
	images := make([]bulkrename.ImageInfo, len(entries))
	for i, e := range entries {
		images[i] = bulkrename.ImageInfo{Path: e.Path, SourceNote: e.SourceNote, Generic: e.Generic}
	}
	items, err := s.planner.Plan(images, mode, filter, pattern)
	if err != nil {
		return nil, err
	}
	s.rec.ObserveScanDuration("bulk", time.Since(start))
	return items, nil
}

// BulkExecute applies the selected items of a previewed plan. Every rename
// goes through the reference-rewriting path, so links follow the files.
func (s *Service) BulkExecute(_ context.Context, items []bulkrename.Item) bulkrename.Result {
	res := bulkrename.Execute(bulkHost{s}, items)
	for i := 0; i < res.Success; i++ {
		s.rec.IncRename(metrics.OutcomeSuccess)
	}
	for i := 0; i < res.Failed; i++ {
		s.rec.IncRename(metrics.OutcomeFailed)
	}
	return res
}

// bulkHost adapts the service's rewriting rename to the bulk executor.
type bulkHost struct{ s *Service }

func (h bulkHost) Exists(path string) bool {
	return h.s.host.Exists(path)
}

func (h bulkHost) Rename(oldPath, newPath string) error {
	return h.s.renameTo(oldPath, newPath)
}

// Orphans scans the vault for images no document references.
func (s *Service) Orphans(_ context.Context) (*orphan.Report, error) {
	start := time.Now()
	files, err := s.imageFiles()
	if err != nil {
		return nil, err
	}
	rep, err := orphan.Scan(files, s.db)
	if err != nil {
		return nil, err
	}
	s.rec.ObserveScanDuration("orphan", time.Since(start))
	return rep, nil
}

// TrashResult aggregates an orphan-trash run.
type TrashResult struct {
	Trashed []string     `json:"trashed"`
	Errors  []TrashError `json:"errors,omitempty"`
}

// TrashError is one image that could not be trashed.
type TrashError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// TrashOrphans moves the given images to the vault trash. Images that
// regained a reference since the scan are refused; failures are per item.
func (s *Service) TrashOrphans(_ context.Context, paths []string) TrashResult {
	res := TrashResult{Trashed: []string{}}
	for _, p := range paths {
		refs, err := s.db.ReferencingDocuments(p)
		if err != nil {
			res.Errors = append(res.Errors, TrashError{Path: p, Error: err.Error()})
			continue
		}
		if len(refs) > 0 {
			res.Errors = append(res.Errors, TrashError{Path: p, Error: "still referenced"})
			continue
		}
		if err := s.trashImage(p, "orphan"); err != nil {
			res.Errors = append(res.Errors, TrashError{Path: p, Error: err.Error()})
			continue
		}
		res.Trashed = append(res.Trashed, p)
	}
	return res
}

func (s *Service) imageFiles() ([]models.FileInfo, error) {
	infos, err := s.host.List("")
	if err != nil {
		return nil, err
	}
	var out []models.FileInfo
	for _, fi := range infos {
		if fi.Kind == models.KindImage {
			out = append(out, fi)
		}
	}
	return out, nil
}
