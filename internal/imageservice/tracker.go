package imageservice

import (
	"fmt"
	"log/slog"

	"github.com/starford/pictor/internal/debounce"
)

// NoteChanged records fresh document text and schedules a link-removal diff.
// The first change for a document diffs immediately; changes inside the
// debounce window coalesce into one trailing diff over the final text.
func (s *Service) NoteChanged(docPath, text string) {
	s.mu.Lock()
	s.pending[docPath] = text
	deb, ok := s.debounced[docPath]
	if !ok {
		deb = debounce.New(s.cfg.DebounceDelay, func() { s.flushDiff(docPath) })
		s.debounced[docPath] = deb
	}
	s.mu.Unlock()
	deb.Call()
}

// NoteClosed drops tracker and scheduler state for a document, typically
// when the file is deleted or moved away.
func (s *Service) NoteClosed(docPath string) {
	s.mu.Lock()
	if deb, ok := s.debounced[docPath]; ok {
		deb.Stop()
		delete(s.debounced, docPath)
	}
	delete(s.pending, docPath)
	s.mu.Unlock()
	s.tracker.Clear(docPath)
}

// SeedTracker snapshots every text document so the first observed change
// diffs against real content instead of an empty baseline.
func (s *Service) SeedTracker() error {
	infos, err := s.host.List("")
	if err != nil {
		return fmt.Errorf("imageservice: seed tracker: %w", err)
	}
	for _, fi := range infos {
		if !fi.Kind.Text() {
			continue
		}
		data, err := s.host.Read(fi.Path)
		if err != nil {
			s.logger.Warn("seed: read failed", slog.String("path", fi.Path), slog.String("error", err.Error()))
			continue
		}
		s.tracker.Snapshot(fi.Path, string(data))
	}
	return nil
}

func (s *Service) flushDiff(docPath string) {
	s.mu.Lock()
	text, ok := s.pending[docPath]
	delete(s.pending, docPath)
	s.mu.Unlock()
	if !ok {
		return
	}
	for _, target := range s.tracker.DiffAndUpdate(docPath, text) {
		s.handleRemoved(docPath, target)
	}
}

// handleRemoved reacts to one structural link removal. The image is trashed
// only when nothing else references it and the configured action allows it.
func (s *Service) handleRemoved(docPath, target string) {
	imagePath, err := s.db.Resolve(target, docPath)
	if err != nil {
		// The target never resolved to a vault image; nothing to clean up.
		return
	}
	s.emit(EventLinkRemoved, imagePath)
	refs, err := s.db.ReferencingDocuments(imagePath)
	if err != nil {
		s.logger.Warn("removal: reference lookup failed", slog.String("path", imagePath), slog.String("error", err.Error()))
		return
	}
	if len(refs) > 0 {
		s.logger.Debug("removal: image still referenced",
			slog.String("path", imagePath),
			slog.Int("refs", len(refs)))
		return
	}
	switch s.cfg.DeleteAction {
	case DeleteActionAuto:
	case DeleteActionPrompt:
		if s.decide == nil || !s.decide(imagePath, docPath) {
			return
		}
	default:
		return
	}
	if err := s.trashImage(imagePath, "link_removed"); err != nil {
		s.logger.Warn("removal: trash failed", slog.String("path", imagePath), slog.String("error", err.Error()))
	}
}

func (s *Service) trashImage(imagePath, reason string) error {
	rel, err := s.host.Trash(imagePath)
	if err != nil {
		return err
	}
	if err := s.db.DeleteDocument(imagePath); err != nil {
		s.logger.Warn("trash: index delete failed", slog.String("path", imagePath), slog.String("error", err.Error()))
	}
	s.rec.IncImageTrashed(reason)
	s.emit(EventImageTrashed, imagePath)
	s.logger.Info("image trashed",
		slog.String("path", imagePath),
		slog.String("to", rel),
		slog.String("reason", reason))
	return nil
}
