package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Nazifamoh/artifyAI/internal/model"
)

// Common errors for transaction repository operations.
var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrChargeAlreadySeen   = errors.New("provider charge already recorded")
)

const transactionColumns = `id, buyer_id, plan, amount, credits, provider, provider_charge_id, status, created_at, updated_at`

// CreateTransaction inserts a pending checkout transaction.
func (r *Repository) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	query := `
		INSERT INTO transactions (id, buyer_id, plan, amount, credits, provider, provider_charge_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		txn.ID,
		txn.BuyerID,
		txn.Plan,
		txn.Amount,
		txn.Credits,
		txn.Provider,
		txn.ProviderChargeID,
		txn.Status,
		txn.CreatedAt,
		txn.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// GetTransactionByID retrieves a transaction by its ID.
func (r *Repository) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	txn, err := scanTransaction(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction by ID: %w", err)
	}

	return txn, nil
}

// GetTransactionByCharge retrieves a transaction by the provider's charge ID.
func (r *Repository) GetTransactionByCharge(ctx context.Context, chargeID string) (*model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE provider_charge_id = $1`

	txn, err := scanTransaction(r.pool.QueryRow(ctx, query, chargeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction by charge: %w", err)
	}

	return txn, nil
}

// MarkTransactionPaid records the provider charge against a pending
// transaction and flips it to paid. The unique constraint on the charge ID
// plus the status guard make webhook redelivery a no-op: a second delivery
// finds no pending row and returns ErrChargeAlreadySeen.
func (r *Repository) MarkTransactionPaid(ctx context.Context, id, chargeID string) error {
	query := `
		UPDATE transactions
		SET provider_charge_id = $2, status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4
	`

	result, err := r.pool.Exec(ctx, query, id, chargeID, model.TransactionPaid, model.TransactionPending)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrChargeAlreadySeen
		}
		return fmt.Errorf("failed to mark transaction paid: %w", err)
	}

	if result.RowsAffected() == 0 {
		var status model.TransactionStatus
		checkErr := r.pool.QueryRow(ctx, `SELECT status FROM transactions WHERE id = $1`, id).Scan(&status)
		if errors.Is(checkErr, pgx.ErrNoRows) {
			return ErrTransactionNotFound
		}
		if checkErr != nil {
			return fmt.Errorf("failed to check transaction status: %w", checkErr)
		}
		if status == model.TransactionPaid {
			return ErrChargeAlreadySeen
		}
		return ErrTransactionNotFound
	}

	return nil
}

// CancelTransaction flips a pending transaction to canceled.
func (r *Repository) CancelTransaction(ctx context.Context, id string) error {
	query := `
		UPDATE transactions
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`

	result, err := r.pool.Exec(ctx, query, id, model.TransactionCanceled, model.TransactionPending)
	if err != nil {
		return fmt.Errorf("failed to cancel transaction: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}

	return nil
}

// scanTransaction scans a single row into a Transaction model.
func scanTransaction(row pgx.Row) (*model.Transaction, error) {
	var txn model.Transaction
	err := row.Scan(
		&txn.ID,
		&txn.BuyerID,
		&txn.Plan,
		&txn.Amount,
		&txn.Credits,
		&txn.Provider,
		&txn.ProviderChargeID,
		&txn.Status,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}
