package model

import "time"

// TransactionStatus represents the lifecycle of a checkout transaction.
type TransactionStatus string

const (
	TransactionPending  TransactionStatus = "pending"
	TransactionPaid     TransactionStatus = "paid"
	TransactionCanceled TransactionStatus = "canceled"
)

// Transaction records one credit purchase through the hosted checkout
// provider. The provider charge ID arrives on the completion webhook and
// makes crediting idempotent.
type Transaction struct {
	ID               string            `json:"id"`
	BuyerID          string            `json:"buyer_id"`
	Plan             string            `json:"plan"`
	Amount           int               `json:"amount"`
	Credits          int               `json:"credits"`
	Provider         string            `json:"provider"`
	ProviderChargeID *string           `json:"provider_charge_id,omitempty"`
	Status           TransactionStatus `json:"status"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}
