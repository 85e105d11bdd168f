// Package models defines the domain types shared across Pictor packages.
package models

import "time"

// Kind classifies a vault file for indexing and event routing.
type Kind string

const (
	KindNote    Kind = "note"
	KindCanvas  Kind = "canvas"
	KindDrawing Kind = "drawing"
	KindImage   Kind = "image"
)

// Text reports whether files of this kind carry indexable text content.
func (k Kind) Text() bool {
	return k == KindNote || k == KindCanvas || k == KindDrawing
}

// FileInfo is a lightweight representation of a vault file returned by
// list and stat operations. Checksum is only populated for text kinds.
type FileInfo struct {
	Path      string    `json:"path"`
	Kind      Kind      `json:"kind"`
	Size      int64     `json:"size"`
	Checksum  string    `json:"checksum,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
