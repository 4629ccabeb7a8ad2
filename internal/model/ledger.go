package model

import "time"

// Ledger entry reasons.
const (
	LedgerReasonSignup   = "signup_grant"
	LedgerReasonApply    = "transformation_apply"
	LedgerReasonPurchase = "purchase"
)

// LedgerEntry is an immutable record of a single balance mutation. The
// running total on the user row is authoritative for gating; the ledger
// exists so every charge can be audited and, if needed, compensated.
type LedgerEntry struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Delta        int       `json:"delta"`
	BalanceAfter int       `json:"balance_after"`
	Reason       string    `json:"reason"`
	Reference    string    `json:"reference"`
	CreatedAt    time.Time `json:"created_at"`
}
