package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/pictor/internal/imageservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *imageservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Note read surface.
	r.Get("/notes/*", h.GetNote)

	// Caption edits address one link in one document.
	r.Put("/caption", h.SetCaption)
	r.Delete("/caption", h.RemoveCaption)

	// Images: listing, upload-and-insert, raw bytes, single rename.
	r.Get("/images", h.ListImages)
	r.Post("/images", h.UploadImage)
	r.Get("/images/raw/*", h.RawImage)
	r.Post("/images/rename", h.RenameImage)

	// Bulk rename plan/apply.
	r.Get("/renames/preview", h.BulkPreview)
	r.Post("/renames/execute", h.BulkExecute)

	// Orphan scan and cleanup.
	r.Get("/orphans", h.Orphans)
	r.Post("/orphans/trash", h.TrashOrphans)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
