// Package vault is the file-system host for a note vault. Every operation
// takes slash-separated paths relative to the vault root; a traversal guard
// rejects anything resolving outside it.
package vault

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/starford/pictor/internal/imagelink"
	"github.com/starford/pictor/internal/models"
)

// Host is the interface for vault file operations.
type Host interface {
	// List returns metadata for every recognized file under dir. Checksums
	// are populated for text kinds only.
	List(dir string) ([]models.FileInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent folders.
	Write(path string, content []byte) error
	// WriteBinary creates a new file at path. Fails with ErrAlreadyExists
	// when the path is taken.
	WriteBinary(path string, content []byte) error
	// Rename moves oldPath to newPath. Fails with ErrAlreadyExists when the
	// destination is taken.
	Rename(oldPath, newPath string) error
	// Trash moves path into the vault trash folder, disambiguating name
	// collisions, and returns the path it landed at.
	Trash(path string) (string, error)
	// Exists reports whether a file or folder exists at path.
	Exists(path string) bool
	// EnsureFolder creates dir and any missing parents. Idempotent.
	EnsureFolder(dir string) error
	// Stat returns metadata for a single file. Checksum is left empty.
	Stat(path string) (models.FileInfo, error)
}

// KindFor classifies a vault path by extension. Embedded drawings are
// detected by the .excalidraw.md suffix here; frontmatter-flagged drawings
// are recognized later during index extraction, which sees file content.
func KindFor(path string) (models.Kind, bool) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".excalidraw.md"):
		return models.KindDrawing, true
	case strings.HasSuffix(lower, ".md"):
		return models.KindNote, true
	case strings.HasSuffix(lower, ".canvas"):
		return models.KindCanvas, true
	case imagelink.HasImageExt(lower):
		return models.KindImage, true
	}
	return "", false
}

// Checksum returns the hex-encoded SHA-256 digest of data.
func Checksum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
