package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Nazifamoh/artifyAI/internal/handler/dto"
	"github.com/Nazifamoh/artifyAI/internal/model"
	"github.com/Nazifamoh/artifyAI/internal/payment"
	"github.com/Nazifamoh/artifyAI/internal/service"
)

// Webhook signature headers.
const (
	headerSignature = "X-Webhook-Signature"
	headerTimestamp = "X-Webhook-Timestamp"
)

// Payment provider events.
const (
	eventChargeSucceeded = "charge.succeeded"
)

// Identity provider events.
const (
	eventUserUpdated = "user.updated"
	eventUserDeleted = "user.deleted"
)

// WebhookHandler receives signed callbacks from the checkout provider and
// the identity provider. Both use the same HMAC scheme over
// "{timestamp}.{payload}" with per-provider secrets.
type WebhookHandler struct {
	checkout       *service.CheckoutService
	users          *service.UserService
	paymentSecret  string
	identitySecret string
	logger         *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(checkout *service.CheckoutService, users *service.UserService, paymentSecret, identitySecret string, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		checkout:       checkout,
		users:          users,
		paymentSecret:  paymentSecret,
		identitySecret: identitySecret,
		logger:         logger,
	}
}

// Payment handles POST /webhooks/payment. Redeliveries are acknowledged
// without crediting twice.
func (h *WebhookHandler) Payment(w http.ResponseWriter, r *http.Request) {
	body, ok := h.verifiedBody(w, r, h.paymentSecret)
	if !ok {
		return
	}

	var event dto.PaymentWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid webhook payload")
		return
	}

	if event.Event != eventChargeSucceeded {
		// Unknown events are acknowledged so the provider stops retrying.
		h.logger.Info("payment_webhook_ignored", "event", event.Event)
		w.WriteHeader(http.StatusOK)
		return
	}

	err := h.checkout.Complete(r.Context(), service.CompletedCharge{
		TransactionID: event.Data.TransactionID,
		ChargeID:      event.Data.ChargeID,
	})
	if err != nil {
		if errors.Is(err, service.ErrTransactionNotFound) {
			writeError(w, http.StatusNotFound, "TRANSACTION_NOT_FOUND", "Transaction not found")
			return
		}
		h.logger.Error("payment_webhook_failed",
			"error", err,
			"transaction_id", event.Data.TransactionID,
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	h.logger.Info("payment_webhook_completed",
		"transaction_id", event.Data.TransactionID,
		"charge_id", event.Data.ChargeID,
	)

	w.WriteHeader(http.StatusOK)
}

// Identity handles POST /webhooks/identity: provider-side profile changes
// and account deletions.
func (h *WebhookHandler) Identity(w http.ResponseWriter, r *http.Request) {
	body, ok := h.verifiedBody(w, r, h.identitySecret)
	if !ok {
		return
	}

	var event dto.IdentityWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid webhook payload")
		return
	}
	if event.Data.ID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_IDENTITY", "Identity ID is required")
		return
	}

	var err error
	switch event.Type {
	case eventUserUpdated:
		err = h.users.SyncIdentity(r.Context(), &model.Principal{
			IdentityID: event.Data.ID,
			Email:      event.Data.Email,
			Username:   event.Data.Username,
			FirstName:  event.Data.FirstName,
			LastName:   event.Data.LastName,
			PhotoURL:   event.Data.PhotoURL,
		})
	case eventUserDeleted:
		err = h.users.DeleteByIdentity(r.Context(), event.Data.ID)
	default:
		h.logger.Info("identity_webhook_ignored", "type", event.Type)
		w.WriteHeader(http.StatusOK)
		return
	}

	if err != nil {
		h.logger.Error("identity_webhook_failed",
			"error", err,
			"type", event.Type,
			"identity_id", event.Data.ID,
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	h.logger.Info("identity_webhook_processed",
		"type", event.Type,
		"identity_id", event.Data.ID,
	)

	w.WriteHeader(http.StatusOK)
}

// verifiedBody reads the payload and checks its signature. On failure the
// error response is already written.
func (h *WebhookHandler) verifiedBody(w http.ResponseWriter, r *http.Request, secret string) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "Could not read request body")
		return nil, false
	}

	signature := r.Header.Get(headerSignature)
	timestampRaw := r.Header.Get(headerTimestamp)
	if signature == "" || timestampRaw == "" {
		h.logger.Warn("webhook rejected", "reason", "missing_signature_headers")
		writeError(w, http.StatusUnauthorized, "MISSING_SIGNATURE", "Signature headers are required")
		return nil, false
	}

	timestamp, err := strconv.ParseInt(timestampRaw, 10, 64)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "INVALID_TIMESTAMP", "Timestamp must be a unix epoch")
		return nil, false
	}

	if err := payment.ValidateSignature(secret, signature, timestamp, body, payment.DefaultReplayWindow); err != nil {
		h.logger.Warn("webhook rejected",
			"reason", "invalid_signature",
			"error", err.Error(),
			"ip", r.RemoteAddr,
		)
		writeError(w, http.StatusUnauthorized, "INVALID_SIGNATURE", "Signature verification failed")
		return nil, false
	}

	return body, true
}
