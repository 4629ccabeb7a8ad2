package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Nazifamoh/artifyAI/internal/auth"
	"github.com/Nazifamoh/artifyAI/internal/handler/dto"
	"github.com/Nazifamoh/artifyAI/internal/service"
)

// UserHandler manages the authenticated account endpoints.
type UserHandler struct {
	svc    *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		svc:    svc,
		logger: logger,
	}
}

// Me handles GET /api/v1/me.
// The auth middleware already resolved the account, so this is a read of
// the request context.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())
	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

// UpdateMe handles PATCH /api/v1/me.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	var req dto.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	updated, err := h.svc.UpdateProfile(r.Context(), user.ID, service.UpdateProfileInput{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		PhotoURL:  req.PhotoURL,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("profile_updated", "user_id", user.ID)

	writeJSON(w, http.StatusOK, dto.ToUserResponse(updated))
}

// DeleteMe handles DELETE /api/v1/me. Removes the account and cascades to
// images, ledger entries, and transactions.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	if err := h.svc.Delete(r.Context(), user.ID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("account_deleted", "user_id", user.ID)

	w.WriteHeader(http.StatusNoContent)
}

// Balance handles GET /api/v1/me/credits.
func (h *UserHandler) Balance(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	// Re-read rather than trusting the context copy: the balance may have
	// moved between resolution and this call.
	fresh, err := h.svc.Get(r.Context(), user.ID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{Balance: fresh.CreditBalance})
}

// Ledger handles GET /api/v1/me/ledger.
func (h *UserHandler) Ledger(w http.ResponseWriter, r *http.Request) {
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

	entries, err := h.svc.LedgerHistory(r.Context(), user.ID, limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToLedgerResponse(entries))
}

// handleServiceError maps service errors to HTTP responses.
func (h *UserHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, service.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "USERNAME_TAKEN", "Username already taken")
	case errors.Is(err, service.ErrInvalidUsername):
		writeError(w, http.StatusBadRequest, "INVALID_USERNAME", "Username must be between 3 and 64 characters")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
