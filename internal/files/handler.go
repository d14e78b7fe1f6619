package files

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quickscan/backend/internal/apperr"
	"github.com/quickscan/backend/internal/registry"
	"github.com/quickscan/backend/internal/response"
)

// multipartOverhead leaves room for the multipart framing around the file
// part when capping the request body.
const multipartOverhead = 16 * 1024

// Handler holds HTTP handlers for file endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new files Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type listData struct {
	Files      []*registry.FileRecord `json:"files"`
	TotalCount int                    `json:"total_count"`
}

type cleanupData struct {
	DeletedCount int `json:"deleted_count"`
}

// Upload handles POST /api/upload (multipart, field "file").
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.svc.opts.MaxUploadSize+multipartOverhead)

	f, fh, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.Error(w, apperr.New(apperr.TooLarge, "file size exceeds upload limit"))
			return
		}
		response.Error(w, apperr.Wrap(apperr.Validation, "no file found in upload", err))
		return
	}
	defer f.Close()

	rec, err := h.svc.Upload(r.Context(), fh.Filename, fh.Header.Get("Content-Type"), f, fh.Size)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, rec, "File uploaded successfully")
}

// List handles GET /api/files.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	recs := h.svc.List()
	response.OK(w, listData{Files: recs, TotalCount: len(recs)}, "Files retrieved successfully")
}

// Download handles GET /api/files/{id}/download, streaming the bytes back
// with an attachment disposition.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, rc, err := h.svc.Download(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.Filename))
	w.Header().Set("Content-Type", rec.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, rc)
}

// GetURL handles GET /api/files/{id}/url.
func (h *Handler) GetURL(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	u, err := h.svc.GetDownloadURL(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, u, "Download URL generated successfully")
}

// Delete handles DELETE /api/files/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.svc.Delete(r.Context(), id); err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, fmt.Sprintf("File %s deleted", id), "File deleted successfully")
}

// Cleanup handles POST /api/files/cleanup.
func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) {
	count, err := h.svc.Cleanup(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, cleanupData{DeletedCount: count}, "Cleanup completed successfully")
}
