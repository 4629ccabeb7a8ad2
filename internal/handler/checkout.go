package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/Nazifamoh/artifyAI/internal/auth"
	"github.com/Nazifamoh/artifyAI/internal/handler/dto"
	"github.com/Nazifamoh/artifyAI/internal/service"
)

// CheckoutHandler manages credit purchases through the hosted checkout
// provider.
type CheckoutHandler struct {
	svc    *service.CheckoutService
	logger *slog.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		svc:    svc,
		logger: logger,
	}
}

// Plans handles GET /api/v1/checkout/plans.
func (h *CheckoutHandler) Plans(w http.ResponseWriter, r *http.Request) {
	keys := make([]string, 0, len(service.Plans))
	for key := range service.Plans {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	data := make([]dto.PlanResponse, len(keys))
	for i, key := range keys {
		plan := service.Plans[key]
		data[i] = dto.PlanResponse{
			Key:         key,
			Name:        plan.Name,
			AmountCents: plan.AmountCents,
			Credits:     plan.Credits,
		}
	}
	writeJSON(w, http.StatusOK, dto.PlanListResponse{Data: data})
}

// Start handles POST /api/v1/checkout. The response carries the provider
// URL the client must redirect the buyer to.
func (h *CheckoutHandler) Start(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	var req dto.StartCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	out, err := h.svc.Start(r.Context(), user.ID, req.Plan)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("checkout_started",
		"user_id", user.ID,
		"plan", req.Plan,
		"transaction_id", out.TransactionID,
	)

	writeJSON(w, http.StatusCreated, dto.CheckoutResponse{
		TransactionID: out.TransactionID,
		RedirectURL:   out.RedirectURL,
	})
}

// Result handles GET /api/v1/checkout/{id}. The page the provider
// redirects back to polls this until the completion webhook lands.
func (h *CheckoutHandler) Result(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Transaction ID is required")
		return
	}

	txn, err := h.svc.Result(r.Context(), id, user.ID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToTransactionResponse(txn))
}

// handleServiceError maps service errors to HTTP responses.
func (h *CheckoutHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownPlan):
		writeError(w, http.StatusBadRequest, "UNKNOWN_PLAN", "Unknown credit plan")
	case errors.Is(err, service.ErrTransactionNotFound),
		errors.Is(err, service.ErrNotTransactionOwner):
		// A foreign transaction is indistinguishable from a missing one.
		writeError(w, http.StatusNotFound, "TRANSACTION_NOT_FOUND", "Transaction not found")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
