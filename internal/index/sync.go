package index

import (
	"fmt"
	"log/slog"

	"github.com/starford/pictor/internal/models"
	"github.com/starford/pictor/internal/vault"
)

// Sync walks the vault and brings the index up to date:
//   - new/changed files are extracted and upserted
//   - files removed from disk are deleted from the index
//
// Image rows carry an empty checksum on both sides, so skipping is decided
// on key presence, never on checksum equality alone.
func Sync(db *DB, host vault.Host, logger *slog.Logger) error {
	infos, err := host.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(infos))
	for _, fi := range infos {
		disk[fi.Path] = struct{}{}

		if cs, indexed := checksums[fi.Path]; indexed && cs == fi.Checksum {
			continue
		}

		if err := indexFile(db, host, fi); err != nil {
			logger.Warn("sync: index failed", slog.String("path", fi.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", fi.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteDocument(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// SyncFile refreshes the index entry for a single vault path.
func SyncFile(db *DB, host vault.Host, path string) error {
	fi, err := host.Stat(path)
	if err != nil {
		return fmt.Errorf("index: sync file: %w", err)
	}
	if fi.Kind == "" {
		return nil
	}
	if fi.Kind.Text() {
		data, err := host.Read(path)
		if err != nil {
			return fmt.Errorf("index: sync file: %w", err)
		}
		fi.Checksum = vault.Checksum(data)
	}
	return indexFile(db, host, fi)
}

// indexFile extracts refs from fi and upserts its row. Markdown files
// carrying the drawing frontmatter flag are stored as drawings.
func indexFile(db *DB, host vault.Host, fi models.FileInfo) error {
	kind := fi.Kind
	var refs []Ref
	if kind.Text() {
		data, err := host.Read(fi.Path)
		if err != nil {
			return err
		}
		if kind == models.KindNote && IsDrawing(data) {
			kind = models.KindDrawing
		}
		refs = ExtractRefs(kind, data)
	}
	row := DocumentRow{
		Path:      fi.Path,
		Kind:      kind,
		Checksum:  fi.Checksum,
		UpdatedAt: fi.UpdatedAt,
	}
	return db.UpsertDocument(row, refs)
}
