package imageservice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/starford/pictor/internal/apperr"
	"github.com/starford/pictor/internal/filename"
	"github.com/starford/pictor/internal/imagelink"
	"github.com/starford/pictor/internal/index"
	"github.com/starford/pictor/internal/metrics"
	"github.com/starford/pictor/internal/models"
	"github.com/starford/pictor/internal/naming"
	"github.com/starford/pictor/internal/vault"
)

// RenameImage renames an image to the sanitized newBase, keeping folder and
// extension, and repoints every referencing document. Collisions resolve by
// probing "name n". Returns the path the image ended up at.
func (s *Service) RenameImage(_ context.Context, imagePath, newBase string) (string, error) {
	cleaned := filename.Sanitize(newBase, s.cfg.Aggressive)
	if cleaned == "" {
		return "", fmt.Errorf("imageservice: rename %s: %w", imagePath, apperr.ErrInvalidName)
	}
	if !s.host.Exists(imagePath) {
		return "", fmt.Errorf("imageservice: rename %s: %w", imagePath, apperr.ErrNotFound)
	}
	dir := path.Dir(imagePath)
	if dir == "." {
		dir = ""
	}
	target := path.Join(dir, cleaned+path.Ext(imagePath))
	if target == imagePath {
		return imagePath, nil
	}
	target = naming.NextAvailable(s.host, target)
	if err := s.renameTo(imagePath, target); err != nil {
		s.rec.IncRename(metrics.OutcomeFailed)
		return "", err
	}
	s.rec.IncRename(metrics.OutcomeSuccess)
	return target, nil
}

// RenameFromLink resolves a link target written in a document to a vault
// image and renames it. An unresolvable target reports apperr.ErrNotFound.
func (s *Service) RenameFromLink(ctx context.Context, docPath, target, newBase string) (string, error) {
	imagePath, err := s.db.Resolve(target, docPath)
	if err != nil {
		return "", err
	}
	return s.RenameImage(ctx, imagePath, newBase)
}

// AutoRenameOnCreate renames a freshly created image after its owning note
// when the current name is generic. Images the service itself just wrote are
// guarded against double processing; images without exactly one referencing
// note are left alone.
func (s *Service) AutoRenameOnCreate(imagePath string) {
	if s.guard.Contains(imagePath) {
		s.logger.Debug("auto-rename: in-flight guard hit", slog.String("path", imagePath))
		return
	}
	if !filename.IsGeneric(stem(imagePath)) {
		return
	}
	owner, err := s.db.SourceNote(imagePath)
	if err != nil || owner == "" {
		return
	}
	base := filename.Sanitize(stem(owner), s.cfg.Aggressive)
	if base == "" {
		return
	}
	dir := path.Dir(imagePath)
	if dir == "." {
		dir = ""
	}
	target, err := s.seq.Resolve(dir, base, strings.TrimPrefix(path.Ext(imagePath), "."))
	if err != nil {
		s.logger.Warn("auto-rename: resolve failed", slog.String("path", imagePath), slog.String("error", err.Error()))
		return
	}
	if err := s.renameTo(imagePath, target); err != nil {
		s.rec.IncRename(metrics.OutcomeFailed)
		s.logger.Warn("auto-rename failed", slog.String("path", imagePath), slog.String("error", err.Error()))
		return
	}
	s.rec.IncRename(metrics.OutcomeSuccess)
	s.logger.Info("auto-rename: renamed", slog.String("from", imagePath), slog.String("to", target))
}

// renameTo moves an image on disk and rewrites the link in every document
// the index knows to reference it. Per-document rewrite failures are logged
// and skipped; the file move itself has already happened.
func (s *Service) renameTo(oldPath, newPath string) error {
	refs, err := s.db.ReferencingDocuments(oldPath)
	if err != nil {
		return fmt.Errorf("imageservice: referencing documents: %w", err)
	}
	if err := s.host.Rename(oldPath, newPath); err != nil {
		return err
	}
	for _, doc := range refs {
		if err := s.retargetDoc(doc, oldPath, newPath); err != nil {
			s.logger.Warn("rename: rewrite failed",
				slog.String("doc", doc),
				slog.String("image", newPath),
				slog.String("error", err.Error()))
		}
	}
	if err := s.db.DeleteDocument(oldPath); err != nil {
		s.logger.Warn("rename: index delete failed", slog.String("path", oldPath), slog.String("error", err.Error()))
	}
	if err := index.SyncFile(s.db, s.host, newPath); err != nil {
		s.logger.Warn("rename: index add failed", slog.String("path", newPath), slog.String("error", err.Error()))
	}
	s.emit(EventImageRenamed, newPath)
	return nil
}

func (s *Service) retargetDoc(doc, oldPath, newPath string) error {
	data, err := s.host.Read(doc)
	if err != nil {
		return err
	}
	var out []byte
	var hits int
	kind, _ := vault.KindFor(doc)
	if kind == models.KindCanvas {
		out, hits = retargetCanvas(data, oldPath, newPath)
	} else {
		text, n := imagelink.ReplaceTarget(string(data), oldPath, newPath)
		out, hits = []byte(text), n
	}
	if hits == 0 {
		return nil
	}
	if err := s.host.Write(doc, out); err != nil {
		return err
	}
	if kind != models.KindCanvas {
		// Keep the tracker baseline current so the rewrite is not later
		// diffed as a link removal.
		s.tracker.Snapshot(doc, string(out))
	}
	s.rec.IncLinkRewrite("retarget")
	return index.SyncFile(s.db, s.host, doc)
}

// retargetCanvas repoints file nodes in canvas JSON. Unparseable data is
// returned untouched.
func retargetCanvas(data []byte, oldPath, newPath string) ([]byte, int) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return data, 0
	}
	nodes, ok := doc["nodes"].([]any)
	if !ok {
		return data, 0
	}
	want := imagelink.NormalizeRef(oldPath)
	hits := 0
	for _, raw := range nodes {
		node, ok := raw.(map[string]any)
		if !ok || node["type"] != "file" {
			continue
		}
		file, _ := node["file"].(string)
		if file == "" || imagelink.NormalizeRef(file) != want {
			continue
		}
		node["file"] = newPath
		hits++
	}
	if hits == 0 {
		return data, 0
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return data, 0
	}
	return out, hits
}
