package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/cusspwk/cuss/pkg/media"
)

// MediaStore stores uploaded images and returns their public URL.
type MediaStore interface {
	Upload(ctx context.Context, folder, contentType string, body io.Reader) (string, error)
}

// mediaFolders are the accepted upload destinations.
var mediaFolders = map[string]bool{
	"services":     true,
	"testimonials": true,
	"site":         true,
}

// MediaHandler accepts admin image uploads.
type MediaHandler struct {
	store MediaStore
	log   *zap.Logger
}

// NewMediaHandler creates a new media handler. store may be nil when
// uploads are not configured.
func NewMediaHandler(store MediaStore, log *zap.Logger) *MediaHandler {
	return &MediaHandler{store: store, log: log}
}

// Routes registers the upload endpoint.
func (h *MediaHandler) Routes(admin *mux.Router) {
	admin.HandleFunc("/media", h.Upload).Methods(http.MethodPost)
}

// Upload handles POST /api/v1/admin/media
//
// Expects multipart/form-data with a "file" part and an optional "folder"
// field (services, testimonials or site).
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "uploads_disabled", media.ErrDisabled.Error())
		return
	}

	const limit = media.MaxUploadBytes + 1<<10
	if r.ContentLength > limit {
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", "File must be at most 5 MB.")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(media.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", "File must be at most 5 MB.")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_body", "Request must be multipart/form-data.")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing_file", "A file part is required.")
		return
	}
	defer file.Close()

	folder := r.FormValue("folder")
	if folder == "" {
		folder = "site"
	}
	if !mediaFolders[folder] {
		writeError(w, http.StatusBadRequest, "invalid_folder", "folder must be services, testimonials or site.")
		return
	}

	contentType := header.Header.Get("Content-Type")
	url, err := h.store.Upload(r.Context(), folder, contentType, file)
	if err != nil {
		switch {
		case errors.Is(err, media.ErrUnsupportedType):
			writeError(w, http.StatusUnsupportedMediaType, "unsupported_type", "Only JPEG, PNG, WebP and SVG images are accepted.")
		case errors.Is(err, media.ErrDisabled):
			writeError(w, http.StatusServiceUnavailable, "uploads_disabled", err.Error())
		default:
			h.log.Error("media upload failed", zap.String("folder", folder), zap.Error(err))
			writeError(w, http.StatusBadGateway, "upload_failed", "Upload failed. Please try again.")
		}
		return
	}

	h.log.Info("media uploaded", zap.String("url", url), zap.Int64("bytes", header.Size))
	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}
