// Package watcher wires fsnotify events on the vault root into index
// updates and engine hooks.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/pictor/internal/index"
	"github.com/starford/pictor/internal/models"
	"github.com/starford/pictor/internal/vault"
)

// EventCallback is called after a watcher-driven index change.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, path string)

// Engine receives file lifecycle hooks after the index has been updated.
type Engine interface {
	// AutoRenameOnCreate runs the generic-name pass on a new image.
	AutoRenameOnCreate(imagePath string)
	// NoteChanged feeds fresh text to the link-removal tracker.
	NoteChanged(docPath, text string)
	// NoteClosed drops tracker state for a removed document.
	NoteClosed(docPath string)
}

// Watch starts an fsnotify watcher on the vault root and processes file
// change events until ctx is cancelled. Recognized vault files keep the
// index current; text changes and image creations additionally flow into
// eng. cb (if non-nil) fires after each successful index mutation.
//
// New directories created at runtime are added to the watch list; dot
// directories such as the vault trash are ignored. Rename events trigger a
// reconciliation pass that removes stale index entries whose files no
// longer exist on disk.
func Watch(ctx context.Context, db *index.DB, host vault.Host, eng Engine, vaultRoot string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, vaultRoot); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", vaultRoot))

	// reconcileTimer debounces rename reconciliation.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(db, host, logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			// New directories join the watch list.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if hidden(filepath.Base(absPath)) {
						continue
					}
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					indexNewDir(db, host, vaultRoot, absPath, logger, cb)
					continue
				}
			}

			rel, relErr := filepath.Rel(vaultRoot, absPath)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if hiddenPath(rel) {
				continue
			}
			kind, recognized := vault.KindFor(rel)
			if !recognized {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				if syncErr := index.SyncFile(db, host, rel); syncErr != nil {
					logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", syncErr.Error()))
					continue
				}
				evKind := "updated"
				if ev.Op&fsnotify.Create != 0 {
					evKind = "created"
				}
				logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", evKind))
				if cb != nil {
					cb(evKind, rel)
				}
				if eng == nil {
					continue
				}
				if kind == models.KindImage {
					if evKind == "created" {
						eng.AutoRenameOnCreate(rel)
					}
					continue
				}
				if kind.Text() {
					data, readErr := host.Read(rel)
					if readErr != nil {
						logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", readErr.Error()))
						continue
					}
					eng.NoteChanged(rel, string(data))
				}

			case ev.Op&fsnotify.Remove != 0:
				if delErr := db.DeleteDocument(rel); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
					continue
				}
				if eng != nil && kind.Text() {
					eng.NoteClosed(rel)
				}
				logger.Debug("watcher: deleted", slog.String("path", rel))
				if cb != nil {
					cb("deleted", rel)
				}

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the OLD path only. The new path
				// will arrive as a separate Create event (if it stays within
				// a watched dir). Delete the old entry immediately and
				// schedule a short reconciliation pass for stragglers.
				if delErr := db.DeleteDocument(rel); delErr != nil {
					logger.Warn("watcher: rename delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
				} else {
					logger.Debug("watcher: rename old deleted", slog.String("path", rel))
					if eng != nil && kind.Text() {
						eng.NoteClosed(rel)
					}
					if cb != nil {
						cb("deleted", rel)
					}
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcile does a lightweight sync using batch lookups: index entries
// without a file on disk are removed, and on-disk files that are missing or
// stale in the index are reindexed. Presence is checked per path, not per
// checksum, so binary files with empty checksums still count as indexed.
func reconcile(db *index.DB, host vault.Host, logger *slog.Logger, cb EventCallback) {
	checksums, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}

	infos, err := host.List("")
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(infos))
	for _, fi := range infos {
		disk[fi.Path] = fi.Checksum
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if delErr := db.DeleteDocument(p); delErr == nil {
				logger.Debug("reconcile: removed stale", slog.String("path", p))
				if cb != nil {
					cb("deleted", p)
				}
			}
		}
	}

	for p, cs := range disk {
		if indexed, ok := checksums[p]; ok && indexed == cs {
			continue
		}
		if syncErr := index.SyncFile(db, host, p); syncErr == nil {
			logger.Debug("reconcile: indexed new", slog.String("path", p))
			if cb != nil {
				cb("created", p)
			}
		}
	}
}

// indexNewDir indexes recognized vault files found in a newly created
// directory, typically one moved into the vault wholesale.
func indexNewDir(db *index.DB, host vault.Host, vaultRoot, dirPath string, logger *slog.Logger, cb EventCallback) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if hidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(vaultRoot, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if _, recognized := vault.KindFor(rel); !recognized {
			return nil
		}
		if syncErr := index.SyncFile(db, host, rel); syncErr == nil {
			logger.Debug("watcher: indexed from new dir", slog.String("path", rel))
			if cb != nil {
				cb("created", rel)
			}
		}
		return nil
	})
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the
// watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && hidden(d.Name()) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func hiddenPath(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if hidden(part) {
			return true
		}
	}
	return false
}
