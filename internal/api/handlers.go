package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starford/pictor/internal/bulkrename"
	"github.com/starford/pictor/internal/imageservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *imageservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *imageservice.Service) *Handler {
	return &Handler{svc: svc}
}

// wildcardPath extracts a vault path from the URL wildcard. Supports encoded
// slashes from OpenAPI clients (e.g. topics%2Fnote.md).
func wildcardPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// GetNote handles GET /api/notes/*.
//
//	@Summary		Get a note with its image links and backlinks
//	@Tags			notes
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	NoteDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{path} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	path := wildcardPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	note, err := h.svc.GetNote(r.Context(), path)
	if err != nil {
		writeError(w, "get note", path, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// SetCaption handles PUT /api/caption.
//
//	@Summary		Set or replace the caption of an image link
//	@Tags			captions
//	@Accept			json
//	@Param			body	body	CaptionRequest	true	"Link address and caption"
//	@Success		204		"Caption written"
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/caption [put]
func (h *Handler) SetCaption(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CaptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Path == "" || req.Target == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path and target are required"))
		return
	}
	if err := h.svc.SetCaption(r.Context(), req.Path, req.Target, req.Caption); err != nil {
		writeError(w, "set caption", req.Path, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveCaption handles DELETE /api/caption.
//
//	@Summary		Remove the caption of an image link, keeping its size
//	@Tags			captions
//	@Accept			json
//	@Param			body	body	CaptionRequest	true	"Link address"
//	@Success		204		"Caption removed"
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/caption [delete]
func (h *Handler) RemoveCaption(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CaptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Path == "" || req.Target == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path and target are required"))
		return
	}
	if err := h.svc.RemoveCaption(r.Context(), req.Path, req.Target); err != nil {
		writeError(w, "remove caption", req.Path, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListImages handles GET /api/images.
//
//	@Summary		List vault images with ownership and name class
//	@Tags			images
//	@Produce		json
//	@Success		200	{object}	ImageListResponse
//	@Security		BearerAuth
//	@Router			/images [get]
func (h *Handler) ListImages(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.ListImages(r.Context())
	if err != nil {
		writeError(w, "list images", "", err)
		return
	}
	if entries == nil {
		entries = []imageservice.ImageEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"images": entries,
	})
}

// RenameImage handles POST /api/images/rename. The image is addressed either
// directly by path or by a link target written in a document.
//
//	@Summary		Rename an image and repoint every referencing document
//	@Tags			images
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RenameRequest	true	"Image address and new base name"
//	@Success		200		{object}	RenameResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/images/rename [post]
func (h *Handler) RenameImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req RenameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.NewName == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("new_name is required"))
		return
	}

	var (
		renamed string
		err     error
	)
	switch {
	case req.Path != "":
		renamed, err = h.svc.RenameImage(r.Context(), req.Path, req.NewName)
	case req.Doc != "" && req.Target != "":
		renamed, err = h.svc.RenameFromLink(r.Context(), req.Doc, req.Target, req.NewName)
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("path or doc+target is required"))
		return
	}
	if err != nil {
		writeError(w, "rename image", req.Path, err)
		return
	}
	writeJSON(w, http.StatusOK, RenameResponse{Path: renamed})
}

// BulkPreview handles GET /api/renames/preview.
//
//	@Summary		Plan a batch rename without touching files
//	@Tags			renames
//	@Produce		json
//	@Param			mode	query		string	true	"Naming mode"	Enums(replace, prepend, pattern)
//	@Param			filter	query		string	false	"Candidate filter"	Enums(all, generic)
//	@Param			pattern	query		string	false	"Template for pattern mode"
//	@Success		200		{object}	PreviewResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/renames/preview [get]
func (h *Handler) BulkPreview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.svc.BulkPreview(r.Context(),
		bulkrename.Mode(q.Get("mode")),
		bulkrename.Filter(q.Get("filter")),
		q.Get("pattern"))
	if err != nil {
		writeError(w, "bulk preview", "", err)
		return
	}
	if items == nil {
		items = []bulkrename.Item{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
	})
}

// BulkExecute handles POST /api/renames/execute.
//
//	@Summary		Apply selected items of a previewed rename plan
//	@Tags			renames
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ExecuteRequest	true	"Plan items with selections"
//	@Success		200		{object}	ExecuteResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/renames/execute [post]
func (h *Handler) BulkExecute(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	res := h.svc.BulkExecute(r.Context(), req.Items)
	out := ExecuteResponse{Success: res.Success, Failed: res.Failed}
	for _, e := range res.Errors {
		out.Errors = append(out.Errors, ItemError{Name: e.Name, Error: e.Err.Error()})
	}
	writeJSON(w, http.StatusOK, out)
}

// Orphans handles GET /api/orphans.
//
//	@Summary		Scan the vault for unreferenced images
//	@Tags			orphans
//	@Produce		json
//	@Success		200	{object}	OrphanReport
//	@Security		BearerAuth
//	@Router			/orphans [get]
func (h *Handler) Orphans(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.Orphans(r.Context())
	if err != nil {
		writeError(w, "scan orphans", "", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// TrashOrphans handles POST /api/orphans/trash.
//
//	@Summary		Move unreferenced images to the vault trash
//	@Tags			orphans
//	@Accept			json
//	@Produce		json
//	@Param			body	body		TrashRequest	true	"Image paths to trash"
//	@Success		200		{object}	TrashResult
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/orphans/trash [post]
func (h *Handler) TrashOrphans(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req TrashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if len(req.Paths) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("paths are required"))
		return
	}
	writeJSON(w, http.StatusOK, h.svc.TrashOrphans(r.Context(), req.Paths))
}
