package api

import (
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
)

const maxUploadBytes = 50 << 20 // 50 MB

// UploadImage handles POST /api/images (multipart/form-data, fields "note"
// and "file"). The image lands in the configured folder named after the note
// and an embed link is appended to the note.
//
//	@Summary		Upload an image and insert its link into a note
//	@Tags			images
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			note	formData	string	true	"Note path the image belongs to"
//	@Param			file	formData	file	true	"Image data"
//	@Success		201		{object}	ImageUploadResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/images [post]
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	note := r.FormValue("note")
	if note == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("note field is required"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}

	ext := strings.TrimPrefix(path.Ext(header.Filename), ".")
	imagePath, err := h.svc.InsertImage(r.Context(), note, ext, data, "api")
	if err != nil {
		writeError(w, "insert image", note, err)
		return
	}

	writeJSON(w, http.StatusCreated, ImageUploadResponse{
		Path: imagePath,
		Size: int64(len(data)),
		URL:  "/api/images/raw/" + imagePath,
	})
}

// RawImage handles GET /api/images/raw/*.
//
//	@Summary		Serve the raw bytes of a vault image
//	@Tags			images
//	@Param			path	path	string	true	"Image path"
//	@Success		200		{file}	binary
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/images/raw/{path} [get]
func (h *Handler) RawImage(w http.ResponseWriter, r *http.Request) {
	imagePath := wildcardPath(r)
	if imagePath == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	data, err := h.svc.ReadImage(r.Context(), imagePath)
	if err != nil {
		writeError(w, "read image", imagePath, err)
		return
	}
	ctype := mime.TypeByExtension(path.Ext(imagePath))
	if ctype == "" {
		ctype = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", ctype)
	_, _ = w.Write(data)
}
