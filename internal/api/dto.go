package api

import (
	"github.com/starford/pictor/internal/bulkrename"
	"github.com/starford/pictor/internal/imageservice"
	"github.com/starford/pictor/internal/orphan"
)

// CaptionRequest addresses one image link inside one document.
type CaptionRequest struct {
	Path    string `json:"path" example:"notes/trip.md" validate:"required"`
	Target  string `json:"target" example:"attachments/Trip 1.png" validate:"required"`
	Caption string `json:"caption,omitempty" example:"Sunset at the pier"`
}

// RenameRequest renames an image either directly by path or through a link
// target written in a document.
type RenameRequest struct {
	Path    string `json:"path,omitempty" example:"attachments/Pasted image 1.png"`
	Doc     string `json:"doc,omitempty" example:"notes/trip.md"`
	Target  string `json:"target,omitempty" example:"Pasted image 1.png"`
	NewName string `json:"new_name" example:"Harbor sunset" validate:"required"`
}

// RenameResponse carries the path the image ended up at.
type RenameResponse struct {
	Path string `json:"path" example:"attachments/Harbor sunset.png" validate:"required"`
}

// ImageUploadResponse is returned after a successful upload-and-insert.
type ImageUploadResponse struct {
	Path string `json:"path" example:"attachments/Trip 1.png" validate:"required"`
	Size int64  `json:"size" example:"12345" validate:"required"`
	URL  string `json:"url" example:"/api/images/raw/attachments/Trip 1.png" validate:"required"`
}

// ImageListResponse wraps image listings.
type ImageListResponse struct {
	Images []ImageEntry `json:"images" validate:"required"`
}

// PreviewResponse wraps a bulk-rename plan.
type PreviewResponse struct {
	Items []PlanItem `json:"items" validate:"required"`
}

// ExecuteRequest carries previewed plan items back for execution.
type ExecuteRequest struct {
	Items []bulkrename.Item `json:"items" validate:"required"`
}

// ItemError is one failed rename in an execution response.
type ItemError struct {
	Name  string `json:"name" example:"Pasted image 1" validate:"required"`
	Error string `json:"error" example:"rename failed" validate:"required"`
}

// ExecuteResponse summarizes a bulk-rename run.
type ExecuteResponse struct {
	Success int         `json:"success" example:"3" validate:"required"`
	Failed  int         `json:"failed" example:"0" validate:"required"`
	Errors  []ItemError `json:"errors,omitempty"`
}

// TrashRequest lists images to move to the vault trash.
type TrashRequest struct {
	Paths []string `json:"paths" validate:"required"`
}

// Response types aliased from the domain layer.
type (
	NoteDetail   = imageservice.NoteDetail
	ImageEntry   = imageservice.ImageEntry
	TrashResult  = imageservice.TrashResult
	PlanItem     = bulkrename.Item
	OrphanReport = orphan.Report
)
