package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Nazifamoh/artifyAI/internal/auth"
	"github.com/Nazifamoh/artifyAI/internal/handler/dto"
	"github.com/Nazifamoh/artifyAI/internal/service"
	"github.com/Nazifamoh/artifyAI/internal/transform"
)

// ImageHandler manages the gallery of saved transformation results.
type ImageHandler struct {
	svc    *service.ImageService
	logger *slog.Logger
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(svc *service.ImageService, logger *slog.Logger) *ImageHandler {
	return &ImageHandler{
		svc:    svc,
		logger: logger,
	}
}

// Get handles GET /api/v1/images/{id}.
func (h *ImageHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Image ID is required")
		return
	}

	image, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToImageResponse(image))
}

// List handles GET /api/v1/me/images.
func (h *ImageHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "Limit must be an integer")
			return
		}
		limit = parsed
	}

	out, err := h.svc.List(r.Context(), service.ListInput{
		OwnerID: user.ID,
		Cursor:  r.URL.Query().Get("cursor"),
		Limit:   limit,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToImageListResponse(out.Images, out.NextCursor, out.HasMore))
}

// Update handles PATCH /api/v1/images/{id}.
func (h *ImageHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Image ID is required")
		return
	}

	var req dto.UpdateImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	image, err := h.svc.Update(r.Context(), id, user.ID, service.UpdateImageInput{
		Title:  req.Title,
		Config: req.Config,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("image_updated", "image_id", id, "user_id", user.ID)

	writeJSON(w, http.StatusOK, dto.ToImageResponse(image))
}

// Delete handles DELETE /api/v1/images/{id}.
func (h *ImageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Image ID is required")
		return
	}

	if err := h.svc.Delete(r.Context(), id, user.ID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("image_deleted", "image_id", id, "user_id", user.ID)

	w.WriteHeader(http.StatusNoContent)
}

// handleServiceError maps service errors to HTTP responses.
func (h *ImageHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrImageNotFound):
		writeError(w, http.StatusNotFound, "IMAGE_NOT_FOUND", "Image not found")
	case errors.Is(err, service.ErrNotImageOwner):
		writeError(w, http.StatusForbidden, "NOT_OWNER", "Image belongs to another user")
	case errors.Is(err, service.ErrInvalidCursor):
		writeError(w, http.StatusBadRequest, "INVALID_CURSOR", "Invalid pagination cursor")
	case errors.Is(err, transform.ErrTypeMismatch):
		writeError(w, http.StatusConflict, "TYPE_MISMATCH", "Configuration type cannot change")
	case errors.Is(err, transform.ErrUnknownType):
		writeError(w, http.StatusBadRequest, "UNKNOWN_TYPE", "Unknown transformation type")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
