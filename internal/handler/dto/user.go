package dto

import (
	"time"

	"github.com/Nazifamoh/artifyAI/internal/model"
)

// UserResponse represents the authenticated account in API responses.
type UserResponse struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Username      string    `json:"username"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	PhotoURL      string    `json:"photo_url"`
	PlanID        int       `json:"plan_id"`
	CreditBalance int       `json:"credit_balance"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// UpdateProfileRequest represents the request body for updating the
// profile. Nil fields are left unchanged.
type UpdateProfileRequest struct {
	Username  *string `json:"username,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	PhotoURL  *string `json:"photo_url,omitempty"`
}

// BalanceResponse represents the current credit balance.
type BalanceResponse struct {
	Balance int `json:"balance"`
}

// LedgerEntryResponse represents one balance mutation.
type LedgerEntryResponse struct {
	ID           string    `json:"id"`
	Delta        int       `json:"delta"`
	BalanceAfter int       `json:"balance_after"`
	Reason       string    `json:"reason"`
	Reference    string    `json:"reference,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// LedgerResponse represents the recent ledger history.
type LedgerResponse struct {
	Data []LedgerEntryResponse `json:"data"`
}

// ToUserResponse converts a User model to UserResponse DTO.
func ToUserResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:            user.ID,
		Email:         user.Email,
		Username:      user.Username,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		PhotoURL:      user.PhotoURL,
		PlanID:        user.PlanID,
		CreditBalance: user.CreditBalance,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
}

// ToLedgerResponse converts ledger entries to the response DTO.
func ToLedgerResponse(entries []*model.LedgerEntry) *LedgerResponse {
	data := make([]LedgerEntryResponse, len(entries))
	for i, entry := range entries {
		data[i] = LedgerEntryResponse{
			ID:           entry.ID,
			Delta:        entry.Delta,
			BalanceAfter: entry.BalanceAfter,
			Reason:       entry.Reason,
			Reference:    entry.Reference,
			CreatedAt:    entry.CreatedAt,
		}
	}
	return &LedgerResponse{Data: data}
}
