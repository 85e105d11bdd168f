package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/starford/pictor/internal/apperr"
	"github.com/starford/pictor/internal/models"
)

// TrashDir is the vault-relative folder Trash moves files into.
const TrashDir = ".trash"

// FS implements Host backed by the local file system.
type FS struct {
	root string // absolute path to vault directory
}

var _ Host = (*FS)(nil)

// NewFS creates a new FS host rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("vault: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("vault: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// safePath resolves a relative path against the vault root and rejects
// any result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("vault: absolute paths not allowed: %s", rel)
	}
	joined := filepath.Join(f.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("vault: resolve path: %w", err)
	}
	// Ensure the resolved path is still under root.
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("vault: path escapes vault root: %s", rel)
	}
	return abs, nil
}

// List walks dir and returns metadata for every recognized file. Hidden
// files and folders (leading dot, trash and temp files included) are
// skipped. Checksums are computed for text kinds only.
func (f *FS) List(dir string) ([]models.FileInfo, error) {
	base, err := f.safePath(dir)
	if err != nil {
		return nil, err
	}
	var out []models.FileInfo
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if strings.HasPrefix(d.Name(), ".") && p != base {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		kind, ok := KindFor(d.Name())
		if !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		var sum string
		if kind.Text() {
			data, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			sum = Checksum(data)
		}
		rel, _ := filepath.Rel(f.root, p)
		out = append(out, models.FileInfo{
			Path:      filepath.ToSlash(rel),
			Kind:      kind,
			Size:      info.Size(),
			Checksum:  sum,
			UpdatedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vault: list: %w", err)
	}
	return out, nil
}

// Read returns the raw bytes of a vault file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("vault: read %s: %w", path, err)
	}
	return data, nil
}

// Write atomically writes content: tmp file → fsync → rename.
func (f *FS) Write(path string, content []byte) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("vault: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".pictor-tmp-*")
	if err != nil {
		return fmt.Errorf("vault: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("vault: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("vault: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("vault: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("vault: rename: %w", err)
	}
	success = true
	return nil
}

// WriteBinary creates a new file with content. The destination must not
// exist yet; name resolution is the caller's job.
func (f *FS) WriteBinary(path string, content []byte) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("vault: mkdir: %w", err)
	}
	file, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("vault: create %s: %w", path, apperr.ErrAlreadyExists)
		}
		return fmt.Errorf("vault: create %s: %w", path, err)
	}
	success := false
	defer func() {
		if !success {
			_ = file.Close()
			_ = os.Remove(abs)
		}
	}()
	if _, err := file.Write(content); err != nil {
		return fmt.Errorf("vault: write %s: %w", path, err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("vault: fsync %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("vault: close %s: %w", path, err)
	}
	success = true
	return nil
}

// Rename moves a file within the vault. The destination must be free.
func (f *FS) Rename(oldPath, newPath string) error {
	absOld, err := f.safePath(oldPath)
	if err != nil {
		return err
	}
	absNew, err := f.safePath(newPath)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(absNew); err == nil {
		return fmt.Errorf("vault: rename to %s: %w", newPath, apperr.ErrAlreadyExists)
	}
	if err := os.MkdirAll(filepath.Dir(absNew), 0o755); err != nil {
		return fmt.Errorf("vault: mkdir for rename: %w", err)
	}
	if err := os.Rename(absOld, absNew); err != nil {
		return fmt.Errorf("vault: rename: %w", err)
	}
	return nil
}

// Trash moves path into TrashDir, appending " {n}" counters to the base
// name when the slot is taken, and returns the trash-relative path.
func (f *FS) Trash(path string) (string, error) {
	absOld, err := f.safePath(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Join(f.root, TrashDir), 0o755); err != nil {
		return "", fmt.Errorf("vault: mkdir trash: %w", err)
	}

	base := filepath.Base(absOld)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	rel := TrashDir + "/" + base
	for n := 1; ; n++ {
		abs, err := f.safePath(rel)
		if err != nil {
			return "", err
		}
		if _, err := os.Lstat(abs); os.IsNotExist(err) {
			if err := os.Rename(absOld, abs); err != nil {
				return "", fmt.Errorf("vault: trash %s: %w", path, err)
			}
			return rel, nil
		}
		rel = TrashDir + "/" + stem + " " + strconv.Itoa(n) + ext
	}
}

// Exists reports whether path resolves to an existing file or folder.
func (f *FS) Exists(path string) bool {
	abs, err := f.safePath(path)
	if err != nil {
		return false
	}
	_, err = os.Lstat(abs)
	return err == nil
}

// EnsureFolder creates dir and any missing parents.
func (f *FS) EnsureFolder(dir string) error {
	abs, err := f.safePath(dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("vault: ensure folder %s: %w", dir, err)
	}
	return nil
}

// Stat returns metadata for the file at path.
func (f *FS) Stat(path string) (models.FileInfo, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return models.FileInfo{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return models.FileInfo{}, fmt.Errorf("vault: stat %s: %w", path, err)
	}
	kind, _ := KindFor(path)
	return models.FileInfo{
		Path:      path,
		Kind:      kind,
		Size:      info.Size(),
		UpdatedAt: info.ModTime(),
	}, nil
}
