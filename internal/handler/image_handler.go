package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"tesatiki/internal/storage"
)

// multipartOverhead is the allowance for form boundaries and headers on
// top of the file size limit.
const multipartOverhead = 1 << 20

type UploadResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
}

func (h *Handlers) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.Cfg.MaxUploadSize+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, "Invalid file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	url, err := h.ImageService.Upload(r.Context(), header.Header.Get("Content-Type"), file)
	switch {
	case err == nil:
		writeSuccess(w, UploadResponse{Success: true, URL: url}, http.StatusOK)
	case errors.Is(err, storage.ErrFileTooLarge):
		writeErrorDetails(w, "File too large", err.Error(), http.StatusBadRequest)
	case errors.Is(err, storage.ErrInvalidFile):
		WriteError(w, "Invalid file", http.StatusBadRequest)
	default:
		h.Logger.Error("image upload failed", zap.Error(err))
		writeErrorDetails(w, "Upload failed", err.Error(), http.StatusInternalServerError)
	}
}

// ServeImage proxies GET /images/<path> to the blob store.
func (h *Handlers) ServeImage(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, storage.ProxyPrefix)

	image, err := h.ImageService.Open(r.Context(), path)
	if err != nil {
		h.writeImageError(w, path, err)
		return
	}
	defer image.Body.Close()

	contentType := image.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := w.Header()
	header.Set("Content-Type", contentType)
	if image.ContentLength >= 0 {
		header.Set("Content-Length", strconv.FormatInt(image.ContentLength, 10))
	}
	header.Set("Cache-Control", fmt.Sprintf("public, max-age=%d, immutable", int(h.Cfg.Cache.ImageTTL.Seconds())))
	header.Set("X-Content-Type-Options", "nosniff")
	header.Set("X-Cache", cacheStatus(image.Cached))
	header.Set("X-Image-Path", path)
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, image.Body); err != nil {
		h.Logger.Warn("image stream interrupted", zap.String("path", path), zap.Error(err))
	}
}

func (h *Handlers) writeImageError(w http.ResponseWriter, path string, err error) {
	var statusErr *storage.StatusError

	switch {
	case errors.Is(err, storage.ErrInvalidPath):
		writeSuccess(w, map[string]any{"error": "Invalid file path", "path": path}, http.StatusBadRequest)
	case errors.Is(err, storage.ErrObjectNotFound):
		writeSuccess(w, map[string]any{"error": "Image not found", "path": path}, http.StatusNotFound)
	case errors.Is(err, storage.ErrAuthUnavailable):
		writeErrorDetails(w, "B2 authentication failed", err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, storage.ErrUnreachable):
		writeErrorDetails(w, "Network error fetching image", err.Error(), http.StatusBadGateway)
	case errors.As(err, &statusErr):
		writeSuccess(w, map[string]any{"error": "Failed to retrieve image from B2", "status": statusErr.Status}, http.StatusBadGateway)
	default:
		h.Logger.Error("image proxy failed", zap.String("path", path), zap.Error(err))
		writeSuccess(w, map[string]any{"error": "Internal server error", "message": err.Error()}, http.StatusInternalServerError)
	}
}
