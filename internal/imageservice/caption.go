package imageservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/pictor/internal/apperr"
	"github.com/starford/pictor/internal/imagelink"
	"github.com/starford/pictor/internal/index"
)

// SetCaption replaces or adds the caption on every link in the document that
// points at target. A document with no matching link is left untouched.
func (s *Service) SetCaption(_ context.Context, docPath, target, caption string) error {
	return s.rewriteCaption(docPath, target, caption, "caption_set")
}

// RemoveCaption strips the caption from every link in the document that
// points at target. Size markers survive.
func (s *Service) RemoveCaption(_ context.Context, docPath, target string) error {
	return s.rewriteCaption(docPath, target, "", "caption_removed")
}

func (s *Service) rewriteCaption(docPath, target, caption, op string) error {
	data, err := s.host.Read(docPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("imageservice: %s: %w", docPath, apperr.ErrNotFound)
		}
		return err
	}
	text := string(data)
	updated := imagelink.SetCaption(text, target, caption)
	if updated == text {
		// No link matched, or the caption already reads as requested.
		return nil
	}
	if err := s.host.Write(docPath, []byte(updated)); err != nil {
		return err
	}
	s.tracker.Snapshot(docPath, updated)
	if err := index.SyncFile(s.db, s.host, docPath); err != nil {
		s.logger.Warn("caption: index refresh failed", slog.String("path", docPath), slog.String("error", err.Error()))
	}
	s.rec.IncLinkRewrite(op)
	s.emit(EventLinkCaptioned, docPath)
	return nil
}
