package index

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/starford/pictor/internal/apperr"
	"github.com/starford/pictor/internal/imagelink"
	"github.com/starford/pictor/internal/models"
)

// DocumentRow represents a row in the documents table.
type DocumentRow struct {
	Path      string
	Kind      models.Kind
	Checksum  string
	UpdatedAt time.Time
}

// Ref is one image reference extracted from a document. Raw is the target
// exactly as written; Kind is the syntax it was written in.
type Ref struct {
	Raw  string
	Kind string
}

// normBase reduces a path or reference to its comparable base form.
func normBase(p string) string {
	return imagelink.NormalizeRef(p)
}

// normStem is normBase without the extension.
func normStem(p string) string {
	b := normBase(p)
	return strings.TrimSuffix(b, path.Ext(b))
}

// UpsertDocument inserts or replaces a document row and its outgoing refs
// within a transaction.
func (db *DB) UpsertDocument(row DocumentRow, refs []Ref) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO documents (path, kind, base_norm, stem_norm, checksum, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			kind       = excluded.kind,
			base_norm  = excluded.base_norm,
			stem_norm  = excluded.stem_norm,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, row.Path, string(row.Kind), normBase(row.Path), normStem(row.Path), row.Checksum, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	// Replace refs: delete old then bulk insert.
	_, _ = tx.Exec(`DELETE FROM refs WHERE source = ?`, row.Path)
	if len(refs) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO refs (source, target_raw, target_norm, kind) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare ref insert: %w", err)
		}
		defer stmt.Close()
		for _, r := range refs {
			if _, err := stmt.Exec(row.Path, r.Raw, normBase(r.Raw), r.Kind); err != nil {
				return fmt.Errorf("index: insert ref: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteDocument removes a document row and its outgoing refs.
func (db *DB) DeleteDocument(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, _ = tx.Exec(`DELETE FROM refs WHERE source = ?`, path)
	_, _ = tx.Exec(`DELETE FROM documents WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a document, or empty string if
// not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllPaths returns every indexed document path.
func (db *DB) AllPaths() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT path FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

// AllChecksums returns path → checksum for every indexed document. Image
// rows carry an empty checksum; callers must distinguish presence from the
// empty value.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// ReferencingDocuments returns the distinct documents holding a ref that
// resolves to target, sorted by path. Both the extension-full normalized
// form and the extension-less shorthand stem are matched.
func (db *DB) ReferencingDocuments(target string) ([]string, error) {
	rows, err := db.conn.Query(
		`SELECT DISTINCT source FROM refs WHERE target_norm IN (?, ?) ORDER BY source`,
		normBase(target), normStem(target),
	)
	if err != nil {
		return nil, fmt.Errorf("index: referencing documents: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SourceNote returns the owning document of an image: the single document
// referencing it. Empty when the image is unreferenced or referenced from
// several documents.
func (db *DB) SourceNote(target string) (string, error) {
	refs, err := db.ReferencingDocuments(target)
	if err != nil {
		return "", err
	}
	if len(refs) != 1 {
		return "", nil
	}
	return refs[0], nil
}

// Resolve finds the vault image a written reference points at. References
// with an extension match image base names; extension-less shorthand
// matches stems. Candidates in fromDoc's folder win, then shorter paths,
// then lexicographic order. Returns ErrNotFound when nothing matches.
func (db *DB) Resolve(ref, fromDoc string) (string, error) {
	norm := normBase(ref)
	column := "base_norm"
	if path.Ext(norm) == "" {
		column = "stem_norm"
	}
	rows, err := db.conn.Query(
		`SELECT path FROM documents WHERE kind = ? AND `+column+` = ?`,
		string(models.KindImage), norm,
	)
	if err != nil {
		return "", fmt.Errorf("index: resolve: %w", err)
	}
	defer rows.Close()

	var candidates []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return "", err
		}
		candidates = append(candidates, p)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("index: resolve %q: %w", ref, apperr.ErrNotFound)
	}

	fromDir := path.Dir(fromDoc)
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		aSame, bSame := path.Dir(a) == fromDir, path.Dir(b) == fromDir
		if aSame != bSame {
			return aSame
		}
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})
	return candidates[0], nil
}
