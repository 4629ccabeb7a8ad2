package dto

import (
	"time"

	"github.com/Nazifamoh/artifyAI/internal/model"
)

// PlanResponse represents one purchasable credit package.
type PlanResponse struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	AmountCents int    `json:"amount_cents"`
	Credits     int    `json:"credits"`
}

// PlanListResponse represents the credit package menu.
type PlanListResponse struct {
	Data []PlanResponse `json:"data"`
}

// StartCheckoutRequest represents the request body for starting a checkout.
type StartCheckoutRequest struct {
	Plan string `json:"plan"`
}

// CheckoutResponse carries the provider redirect for a started checkout.
type CheckoutResponse struct {
	TransactionID string `json:"transaction_id"`
	RedirectURL   string `json:"redirect_url"`
}

// TransactionResponse represents a credit purchase in API responses.
type TransactionResponse struct {
	ID        string                  `json:"id"`
	Plan      string                  `json:"plan"`
	Amount    int                     `json:"amount"`
	Credits   int                     `json:"credits"`
	Status    model.TransactionStatus `json:"status"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// ToTransactionResponse converts a Transaction model to TransactionResponse DTO.
func ToTransactionResponse(txn *model.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:        txn.ID,
		Plan:      txn.Plan,
		Amount:    txn.Amount,
		Credits:   txn.Credits,
		Status:    txn.Status,
		CreatedAt: txn.CreatedAt,
		UpdatedAt: txn.UpdatedAt,
	}
}

// PaymentWebhookEvent is the completion payload the checkout provider
// signs and delivers.
type PaymentWebhookEvent struct {
	Event string             `json:"event"`
	Data  PaymentWebhookData `json:"data"`
}

// PaymentWebhookData carries the charge identifiers.
type PaymentWebhookData struct {
	TransactionID string `json:"transaction_id"`
	ChargeID      string `json:"charge_id"`
}

// IdentityWebhookEvent is the lifecycle payload the identity provider
// signs and delivers.
type IdentityWebhookEvent struct {
	Type string              `json:"type"`
	Data IdentityWebhookData `json:"data"`
}

// IdentityWebhookData carries provider-side profile fields.
type IdentityWebhookData struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	PhotoURL  string `json:"image_url"`
}
